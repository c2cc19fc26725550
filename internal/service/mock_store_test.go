package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/exhibitworks/guestbook/internal/domain"
)

// memStore is an in-memory stand-in for the sql backends. Error fields
// let individual tests inject failures per operation.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	rows   []domain.Signature

	insertErr error
	countErr  error
	listErr   error
	statsErr  error
	recentErr error
	exportErr error
}

func newMemStore() *memStore {
	return &memStore{nextID: 1}
}

func (m *memStore) seed(sigs ...domain.Signature) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range sigs {
		s.ID = m.nextID
		m.nextID++
		m.rows = append(m.rows, s)
	}
}

// byTimestampDesc returns a copy sorted newest first, id as tiebreak.
func (m *memStore) byTimestampDesc() []domain.Signature {
	out := make([]domain.Signature, len(m.rows))
	copy(out, m.rows)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func (m *memStore) Insert(_ context.Context, req *domain.SubmitRequest) (int64, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.rows = append(m.rows, domain.Signature{
		ID:               id,
		Name:             req.Name,
		Email:            req.Email,
		NewsletterSignup: req.NewsletterSignup,
		Message:          req.Message,
		Timestamp:        time.Now().UTC(),
	})
	return id, nil
}

func (m *memStore) Count(context.Context) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func (m *memStore) ListEntries(_ context.Context, limit, offset int) ([]domain.Entry, int64, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	sorted := m.byTimestampDesc()
	total := int64(len(sorted))

	if offset >= len(sorted) {
		return []domain.Entry{}, total, nil
	}
	end := offset + limit
	if end > len(sorted) {
		end = len(sorted)
	}

	entries := []domain.Entry{}
	for _, s := range sorted[offset:end] {
		entries = append(entries, domain.Entry{
			ID:        s.ID,
			Name:      s.Name,
			Message:   s.Message,
			Timestamp: s.Timestamp,
		})
	}
	return entries, total, nil
}

func (m *memStore) Stats(context.Context) (*domain.Stats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	st := &domain.Stats{TotalSignatures: int64(len(m.rows))}
	for _, s := range m.rows {
		if s.NewsletterSignup {
			st.NewsletterSignups++
		}
	}
	return st, nil
}

func (m *memStore) NewsletterCount(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.rows {
		if s.NewsletterSignup {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountOnDate(_ context.Context, date string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.rows {
		if s.Timestamp.Format("2006-01-02") == date {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountSinceDate(_ context.Context, date string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.rows {
		// ISO dates compare correctly as strings
		if s.Timestamp.Format("2006-01-02") >= date {
			n++
		}
	}
	return n, nil
}

func (m *memStore) DailyCounts(_ context.Context, sinceDate string) ([]domain.DailyCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byDate := map[string]int64{}
	for _, s := range m.rows {
		day := s.Timestamp.Format("2006-01-02")
		if day >= sinceDate {
			byDate[day]++
		}
	}

	days := make([]string, 0, len(byDate))
	for day := range byDate {
		days = append(days, day)
	}
	sort.Strings(days)

	counts := []domain.DailyCount{}
	for _, day := range days {
		counts = append(counts, domain.DailyCount{Date: day, Count: byDate[day]})
	}
	return counts, nil
}

func (m *memStore) Recent(_ context.Context, limit int) ([]domain.Signature, error) {
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	sorted := m.byTimestampDesc()
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (m *memStore) ExportAll(context.Context) ([]domain.Signature, error) {
	if m.exportErr != nil {
		return nil, m.exportErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byTimestampDesc(), nil
}

func (m *memStore) ExportNewsletter(context.Context) ([]domain.NewsletterRow, error) {
	if m.exportErr != nil {
		return nil, m.exportErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []domain.NewsletterRow{}
	for _, s := range m.byTimestampDesc() {
		if s.NewsletterSignup {
			out = append(out, domain.NewsletterRow{
				Email:     s.Email,
				Name:      s.Name,
				Timestamp: s.Timestamp,
			})
		}
	}
	return out, nil
}

func (m *memStore) ExportRange(_ context.Context, start, end string) ([]domain.Signature, error) {
	if m.exportErr != nil {
		return nil, m.exportErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []domain.Signature{}
	for _, s := range m.byTimestampDesc() {
		day := s.Timestamp.Format("2006-01-02")
		if day >= start && day <= end {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) Close() {}

// stubMailer records welcome sends on a channel and can fail on demand.
type stubMailer struct {
	sent    chan string
	sendErr error
}

func (s *stubMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	return "", s.sendErr
}

func (s *stubMailer) SendNewsletterWelcome(email, name string) error {
	if s.sent != nil {
		s.sent <- email
	}
	return s.sendErr
}

// stubPublisher records published subjects and can fail on demand.
type stubPublisher struct {
	mu         sync.Mutex
	subjects   []string
	publishErr error
}

func (s *stubPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	s.mu.Lock()
	s.subjects = append(s.subjects, subject)
	s.mu.Unlock()
	return s.publishErr
}

func (s *stubPublisher) Close() error { return nil }
