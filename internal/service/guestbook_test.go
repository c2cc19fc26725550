package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/exhibitworks/guestbook/internal/domain"
	"github.com/exhibitworks/guestbook/internal/service"
)

func newGuestbook(st *memStore, m *stubMailer, p *stubPublisher) *service.GuestbookService {
	if m == nil {
		m = &stubMailer{}
	}
	if p == nil {
		p = &stubPublisher{}
	}
	return service.NewGuestbookService(st, m, p)
}

func TestSubmit_PersistsSignature(t *testing.T) {
	st := newMemStore()
	svc := newGuestbook(st, nil, nil)

	id, err := svc.Submit(context.Background(), &domain.SubmitRequest{
		Name:             "Ada Lovelace",
		Email:            "ada@example.com",
		NewsletterSignup: true,
		Message:          "hi",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if id == 0 {
		t.Fatal("Expected non-zero id")
	}

	total, _ := st.Count(context.Background())
	if total != 1 {
		t.Fatalf("Expected 1 row, got %d", total)
	}
}

func TestSubmit_ValidationRejectsWithoutPersisting(t *testing.T) {
	tests := []struct {
		name    string
		req     domain.SubmitRequest
		wantErr error
	}{
		{"empty name", domain.SubmitRequest{Email: "a@b.com"}, domain.ErrMissingField},
		{"empty email", domain.SubmitRequest{Name: "Ada"}, domain.ErrMissingField},
		{"whitespace name", domain.SubmitRequest{Name: "   ", Email: "a@b.com"}, domain.ErrMissingField},
		{"no at sign", domain.SubmitRequest{Name: "Ada", Email: "adaexample.com"}, domain.ErrInvalidEmail},
		{"no dot after at", domain.SubmitRequest{Name: "Ada", Email: "ada@examplecom"}, domain.ErrInvalidEmail},
		{"space in email", domain.SubmitRequest{Name: "Ada", Email: "ada lovelace@example.com"}, domain.ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newMemStore()
			svc := newGuestbook(st, nil, nil)

			_, err := svc.Submit(context.Background(), &tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}

			total, _ := st.Count(context.Background())
			if total != 0 {
				t.Fatalf("Expected no rows persisted, got %d", total)
			}
		})
	}
}

func TestSubmit_StorageErrorSurfaces(t *testing.T) {
	st := newMemStore()
	st.insertErr = errors.New("connection refused")
	svc := newGuestbook(st, nil, nil)

	_, err := svc.Submit(context.Background(), &domain.SubmitRequest{
		Name:  "Ada",
		Email: "ada@example.com",
	})
	if err == nil {
		t.Fatal("Expected storage error")
	}
}

func TestSubmit_SideEffectFailuresDoNotFailSubmit(t *testing.T) {
	st := newMemStore()
	m := &stubMailer{sent: make(chan string, 1), sendErr: errors.New("smtp down")}
	p := &stubPublisher{publishErr: errors.New("nats down")}
	svc := newGuestbook(st, m, p)

	id, err := svc.Submit(context.Background(), &domain.SubmitRequest{
		Name:             "Ada Lovelace",
		Email:            "ada@example.com",
		NewsletterSignup: true,
	})
	if err != nil {
		t.Fatalf("Submit failed despite side effects being best-effort: %v", err)
	}
	if id == 0 {
		t.Fatal("Expected non-zero id")
	}

	// The welcome mail is attempted asynchronously
	select {
	case email := <-m.sent:
		if email != "ada@example.com" {
			t.Fatalf("Welcome mail sent to %q", email)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Welcome mail was never attempted")
	}
}

func TestSubmit_NoWelcomeMailWithoutOptIn(t *testing.T) {
	st := newMemStore()
	m := &stubMailer{sent: make(chan string, 1)}
	svc := newGuestbook(st, m, nil)

	if _, err := svc.Submit(context.Background(), &domain.SubmitRequest{
		Name:  "Ada",
		Email: "ada@example.com",
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	select {
	case email := <-m.sent:
		t.Fatalf("Unexpected welcome mail to %q", email)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestListEntries_TotalPages(t *testing.T) {
	st := newMemStore()
	now := time.Now().UTC()
	for i := 0; i < 21; i++ {
		st.seed(domain.Signature{
			Name:      "Visitor",
			Email:     "v@example.com",
			Timestamp: now.Add(time.Duration(i) * time.Second),
		})
	}
	svc := newGuestbook(st, nil, nil)

	page, err := svc.ListEntries(context.Background(), 1, 20)
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if page.Total != 21 || page.TotalPages != 2 {
		t.Fatalf("Expected total=21 totalPages=2, got total=%d totalPages=%d", page.Total, page.TotalPages)
	}
	if len(page.Entries) != 20 {
		t.Fatalf("Expected 20 entries on page 1, got %d", len(page.Entries))
	}

	page2, err := svc.ListEntries(context.Background(), 2, 20)
	if err != nil {
		t.Fatalf("ListEntries page 2 failed: %v", err)
	}
	if len(page2.Entries) != 1 {
		t.Fatalf("Expected 1 entry on page 2, got %d", len(page2.Entries))
	}
}

func TestListEntries_DefaultsAndOrdering(t *testing.T) {
	st := newMemStore()
	now := time.Now().UTC()
	st.seed(
		domain.Signature{Name: "Older", Email: "a@b.com", Timestamp: now.Add(-time.Hour)},
		domain.Signature{Name: "Newer", Email: "a@b.com", Timestamp: now},
	)
	svc := newGuestbook(st, nil, nil)

	// Out-of-range page and limit fall back to defaults
	page, err := svc.ListEntries(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if page.Page != 1 {
		t.Fatalf("Expected page 1, got %d", page.Page)
	}
	if page.Entries[0].Name != "Newer" {
		t.Fatalf("Expected newest first, got %q", page.Entries[0].Name)
	}
}

func TestPublicStats_Idempotent(t *testing.T) {
	st := newMemStore()
	st.seed(
		domain.Signature{Name: "A", Email: "a@b.com", NewsletterSignup: true, Timestamp: time.Now()},
		domain.Signature{Name: "B", Email: "b@b.com", Timestamp: time.Now()},
	)
	svc := newGuestbook(st, nil, nil)

	first, err := svc.PublicStats(context.Background())
	if err != nil {
		t.Fatalf("PublicStats failed: %v", err)
	}
	second, err := svc.PublicStats(context.Background())
	if err != nil {
		t.Fatalf("PublicStats failed: %v", err)
	}

	if *first != *second {
		t.Fatalf("Stats changed between reads: %+v vs %+v", first, second)
	}
	if first.TotalSignatures != 2 || first.NewsletterSignups != 1 {
		t.Fatalf("Unexpected stats: %+v", first)
	}
}
