package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/exhibitworks/guestbook/internal/domain"
	"github.com/exhibitworks/guestbook/internal/http/response"
	"github.com/exhibitworks/guestbook/pkg/logger"
)

// Login exchanges admin credentials for a signed token
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		response.Unauthorized(w, "Invalid credentials")
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Login failed", "error", err)
		response.InternalError(w, "Failed to log in")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// VerifyToken confirms a presented token; RequireAdmin already did the work
func (h *Handlers) VerifyToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// Dashboard returns the admin summary aggregates
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.reporting.Dashboard(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to build dashboard", "error", err)
		response.InternalError(w, "Failed to fetch statistics")
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}

// ExportAll streams the full dump as a CSV attachment
func (h *Handlers) ExportAll(w http.ResponseWriter, r *http.Request) {
	csv, err := h.reporting.ExportAllCSV(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to export signatures", "error", err)
		response.InternalError(w, "Failed to export data")
		return
	}

	writeCSV(w, "all_guestbook_entries.csv", csv)
}

// ExportNewsletter streams subscribers in Mailchimp's import layout
func (h *Handlers) ExportNewsletter(w http.ResponseWriter, r *http.Request) {
	csv, err := h.reporting.ExportNewsletterCSV(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to export newsletter subscribers", "error", err)
		response.InternalError(w, "Failed to export data")
		return
	}

	writeCSV(w, "mailchimp_newsletter_subscribers.csv", csv)
}

// ExportRange streams a date-bounded dump as a CSV attachment
func (h *Handlers) ExportRange(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	csv, err := h.reporting.ExportRangeCSV(r.Context(), start, end)
	if errors.Is(err, domain.ErrMissingRange) {
		response.BadRequest(w, "Start and end dates required")
		return
	}
	if errors.Is(err, domain.ErrInvalidRange) {
		response.BadRequest(w, "Invalid date format")
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to export range", "error", err)
		response.InternalError(w, "Failed to export data")
		return
	}

	writeCSV(w, fmt.Sprintf("guestbook_%s_to_%s.csv", start, end), csv)
}
