package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/exhibitworks/guestbook/internal/domain"
	"github.com/exhibitworks/guestbook/internal/http/response"
	"github.com/exhibitworks/guestbook/pkg/logger"
)

// Sign handles a visitor submission
func (h *Handlers) Sign(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	id, err := h.guestbook.Submit(r.Context(), &req)
	switch {
	case errors.Is(err, domain.ErrMissingField):
		response.BadRequest(w, "Name and email are required")
	case errors.Is(err, domain.ErrInvalidEmail):
		response.BadRequest(w, "Invalid email format")
	case err != nil:
		logger.ErrorContext(r.Context(), "Failed to insert signature", "error", err)
		response.InternalError(w, "Failed to save signature")
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"id":      id,
			"message": "Thank you for signing the guestbook!",
		})
	}
}

// ListEntries handles the public paginated listing
func (h *Handlers) ListEntries(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)

	entries, err := h.guestbook.ListEntries(r.Context(), page, limit)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to list entries", "error", err)
		response.InternalError(w, "Failed to fetch entries")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// Stats handles the public aggregate counters
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.guestbook.PublicStats(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to fetch stats", "error", err)
		response.InternalError(w, "Failed to fetch statistics")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
