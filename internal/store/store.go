package store

import (
	"context"

	"github.com/exhibitworks/guestbook/internal/domain"
)

// Store is the persistence contract shared by the postgres and sqlite
// backends. The service layer is written against this interface only;
// dialect differences (boolean encoding, date bucketing) stay inside
// the backends. Dates cross the boundary as ISO strings (YYYY-MM-DD).
type Store interface {
	Insert(ctx context.Context, req *domain.SubmitRequest) (int64, error)
	Count(ctx context.Context) (int64, error)
	ListEntries(ctx context.Context, limit, offset int) ([]domain.Entry, int64, error)
	Stats(ctx context.Context) (*domain.Stats, error)

	NewsletterCount(ctx context.Context) (int64, error)
	CountOnDate(ctx context.Context, date string) (int64, error)
	CountSinceDate(ctx context.Context, date string) (int64, error)
	DailyCounts(ctx context.Context, sinceDate string) ([]domain.DailyCount, error)
	Recent(ctx context.Context, limit int) ([]domain.Signature, error)

	ExportAll(ctx context.Context) ([]domain.Signature, error)
	ExportNewsletter(ctx context.Context) ([]domain.NewsletterRow, error)
	ExportRange(ctx context.Context, start, end string) ([]domain.Signature, error)

	Close()
}
