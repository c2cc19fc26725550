package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/exhibitworks/guestbook/internal/http/middleware"
	"github.com/exhibitworks/guestbook/internal/http/response"
	"github.com/exhibitworks/guestbook/internal/service"
	"github.com/exhibitworks/guestbook/pkg/logger"
)

type Handlers struct {
	guestbook  *service.GuestbookService
	reporting  *service.ReportingService
	auth       *service.AuthService
	signLimit  *middleware.RateLimiter
	loginLimit *middleware.RateLimiter
}

func New(
	guestbook *service.GuestbookService,
	reporting *service.ReportingService,
	auth *service.AuthService,
	signLimit *middleware.RateLimiter,
	loginLimit *middleware.RateLimiter,
) *Handlers {
	return &Handlers{
		guestbook:  guestbook,
		reporting:  reporting,
		auth:       auth,
		signLimit:  signLimit,
		loginLimit: loginLimit,
	}
}

// Routes mounts the public and admin API under one subrouter.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.signLimit.Middleware()).Post("/sign", h.Sign)
	r.Get("/entries", h.ListEntries)
	r.Get("/stats", h.Stats)

	r.Route("/admin", func(r chi.Router) {
		r.With(h.loginLimit.Middleware()).Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)
			r.Get("/verify", h.VerifyToken)
			r.Get("/dashboard", h.Dashboard)
			r.Get("/export/all", h.ExportAll)
			r.Get("/export/newsletter", h.ExportNewsletter)
			r.Get("/export/range", h.ExportRange)
		})
	})

	return r
}

// RequireAdmin authenticates admin requests. The token comes from the
// Authorization header, or from a `token` query parameter for
// browser-initiated download links that cannot set headers.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		} else {
			token = r.URL.Query().Get("token")
		}

		if token == "" {
			response.Unauthorized(w, "Access denied")
			return
		}

		claims, err := h.auth.Verify(token)
		if err != nil {
			response.Forbidden(w, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), logger.AdminUserKey, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeCSV(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

func parsePagination(r *http.Request) (page, limit int) {
	page, limit = 1, 20
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	return page, limit
}
