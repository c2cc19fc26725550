package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/exhibitworks/guestbook/internal/domain"
	"github.com/exhibitworks/guestbook/internal/store"
)

// Mailchimp import tag applied to every exported subscriber.
const newsletterTag = "Born to Run Exhibit"

const allExportHeader = "Name,Email,Newsletter Signup,Message,Timestamp\n"

type ReportingService struct {
	store store.Store
}

func NewReportingService(st store.Store) *ReportingService {
	return &ReportingService{store: st}
}

// Dashboard gathers the admin summary. The six aggregates are
// independent, so they fan out concurrently and join before composing
// the response.
func (s *ReportingService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	// Bucket by UTC calendar date; both backends store timestamps in UTC.
	now := time.Now().UTC()
	today := now.Format("2006-01-02")
	weekStart := now.AddDate(0, 0, -6).Format("2006-01-02") // 7-day inclusive window

	var d domain.Dashboard

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Stats.Total, err = s.store.Count(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.Stats.Newsletter, err = s.store.NewsletterCount(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		d.Stats.Today, err = s.store.CountOnDate(ctx, today)
		return err
	})
	g.Go(func() error {
		var err error
		d.Stats.Week, err = s.store.CountSinceDate(ctx, weekStart)
		return err
	})
	g.Go(func() error {
		var err error
		d.DailyStats, err = s.store.DailyCounts(ctx, weekStart)
		return err
	})
	g.Go(func() error {
		var err error
		d.RecentEntries, err = s.store.Recent(ctx, 10)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard aggregates: %w", err)
	}

	if d.DailyStats == nil {
		d.DailyStats = []domain.DailyCount{}
	}
	if d.RecentEntries == nil {
		d.RecentEntries = []domain.Signature{}
	}

	return &d, nil
}

func (s *ReportingService) ExportAllCSV(ctx context.Context) (string, error) {
	rows, err := s.store.ExportAll(ctx)
	if err != nil {
		return "", fmt.Errorf("export all: %w", err)
	}
	return renderSignaturesCSV(rows), nil
}

// ExportNewsletterCSV renders subscribers in Mailchimp's import column
// layout. Names split on the first space; everything after it becomes
// the last name.
func (s *ReportingService) ExportNewsletterCSV(ctx context.Context) (string, error) {
	rows, err := s.store.ExportNewsletter(ctx)
	if err != nil {
		return "", fmt.Errorf("export newsletter: %w", err)
	}

	var b strings.Builder
	b.WriteString("Email Address,First Name,Last Name,Tags,Subscribe Date\n")
	for _, r := range rows {
		first, last, _ := strings.Cut(r.Name, " ")
		fmt.Fprintf(&b, "\"%s\",\"%s\",\"%s\",\"%s\",\"%s\"\n",
			r.Email, first, last, newsletterTag, r.Timestamp.Format("2006-01-02"))
	}
	return b.String(), nil
}

// ExportRangeCSV covers [start, end] inclusive by calendar date. A start
// after the end is not an error; it just matches no rows. Malformed
// dates are rejected here so the backends never see them; the sql
// dialects disagree on what a bad date cast does.
func (s *ReportingService) ExportRangeCSV(ctx context.Context, start, end string) (string, error) {
	if start == "" || end == "" {
		return "", domain.ErrMissingRange
	}
	for _, d := range []string{start, end} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return "", domain.ErrInvalidRange
		}
	}

	rows, err := s.store.ExportRange(ctx, start, end)
	if err != nil {
		return "", fmt.Errorf("export range: %w", err)
	}
	return renderSignaturesCSV(rows), nil
}

// renderSignaturesCSV quote-wraps every field without escaping embedded
// quotes, to stay byte-compatible with the files existing downstream
// imports were built against.
func renderSignaturesCSV(rows []domain.Signature) string {
	var b strings.Builder
	b.WriteString(allExportHeader)
	for _, r := range rows {
		fmt.Fprintf(&b, "\"%s\",\"%s\",\"%s\",\"%s\",\"%s\"\n",
			r.Name, r.Email, yesNo(r.NewsletterSignup), r.Message,
			r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
