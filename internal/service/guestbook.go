package service

import (
	"context"
	"fmt"
	"time"

	"github.com/exhibitworks/guestbook/internal/domain"
	"github.com/exhibitworks/guestbook/internal/mailer"
	"github.com/exhibitworks/guestbook/internal/store"
	"github.com/exhibitworks/guestbook/pkg/events"
	"github.com/exhibitworks/guestbook/pkg/logger"
)

type GuestbookService struct {
	store  store.Store
	mailer mailer.Service
	events events.Publisher
}

func NewGuestbookService(st store.Store, m mailer.Service, pub events.Publisher) *GuestbookService {
	return &GuestbookService{
		store:  st,
		mailer: m,
		events: pub,
	}
}

type EntriesPage struct {
	Entries    []domain.Entry `json:"entries"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	TotalPages int64          `json:"totalPages"`
}

// Submit validates and persists a signature. The welcome mail and the
// created event run after the insert and never fail the request.
func (s *GuestbookService) Submit(ctx context.Context, req *domain.SubmitRequest) (int64, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.Insert(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("insert signature: %w", err)
	}

	go s.afterSubmit(id, req)

	return id, nil
}

func (s *GuestbookService) afterSubmit(id int64, req *domain.SubmitRequest) {
	// Detached from the request context: the response has already been
	// decided by the time these run.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	evt := events.SignatureCreatedEvent{
		SignatureID:      id,
		Name:             req.Name,
		Email:            req.Email,
		NewsletterSignup: req.NewsletterSignup,
		CreatedAt:        time.Now(),
	}
	if err := s.events.Publish(ctx, events.SignatureCreated, evt); err != nil {
		logger.Warn("Failed to publish signature event", "error", err, "signature_id", id)
	}

	if req.NewsletterSignup {
		if err := s.mailer.SendNewsletterWelcome(req.Email, req.Name); err != nil {
			logger.Warn("Failed to send newsletter welcome mail", "error", err, "signature_id", id)
		}
	}
}

func (s *GuestbookService) ListEntries(ctx context.Context, page, limit int) (*EntriesPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	entries, total, err := s.store.ListEntries(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	if entries == nil {
		entries = []domain.Entry{}
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)

	return &EntriesPage{
		Entries:    entries,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}

func (s *GuestbookService) PublicStats(ctx context.Context) (*domain.Stats, error) {
	return s.store.Stats(ctx)
}
