package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/exhibitworks/guestbook/internal/domain"
	"github.com/exhibitworks/guestbook/pkg/config"
)

// Store is the production backend, backed by a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

func Connect(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pc.MinConns = int32(cfg.MinConns)
	pc.MaxConns = int32(cfg.MaxConns)
	pc.MaxConnLifetime = cfg.MaxLifetime
	pc.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) InitSchema(ctx context.Context) error {
	const q = `
		CREATE TABLE IF NOT EXISTS signatures (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			newsletter_signup BOOLEAN NOT NULL DEFAULT FALSE,
			message TEXT NOT NULL DEFAULT '',
			timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	_, err := s.pool.Exec(ctx, q)
	return err
}

const sigCols = `id, name, email, newsletter_signup, message, timestamp`

func (s *Store) Insert(ctx context.Context, req *domain.SubmitRequest) (int64, error) {
	const q = `
		INSERT INTO signatures (name, email, newsletter_signup, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var id int64
	err := s.pool.QueryRow(ctx, q, req.Name, req.Email, req.NewsletterSignup, req.Message).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	const q = `SELECT COUNT(*) FROM signatures`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int64
	err := s.pool.QueryRow(ctx, q).Scan(&n)
	return n, err
}

func (s *Store) ListEntries(ctx context.Context, limit, offset int) ([]domain.Entry, int64, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	const q = `
		SELECT id, name, message, timestamp
		FROM signatures
		ORDER BY timestamp DESC
		LIMIT $1 OFFSET $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := []domain.Entry{}
	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Message, &e.Timestamp); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (s *Store) Stats(ctx context.Context) (*domain.Stats, error) {
	const q = `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE newsletter_signup)
		FROM signatures`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var st domain.Stats
	err := s.pool.QueryRow(ctx, q).Scan(&st.TotalSignatures, &st.NewsletterSignups)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) NewsletterCount(ctx context.Context) (int64, error) {
	const q = `SELECT COUNT(*) FROM signatures WHERE newsletter_signup`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int64
	err := s.pool.QueryRow(ctx, q).Scan(&n)
	return n, err
}

func (s *Store) CountOnDate(ctx context.Context, date string) (int64, error) {
	const q = `SELECT COUNT(*) FROM signatures WHERE timestamp::date = $1::date`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int64
	err := s.pool.QueryRow(ctx, q, date).Scan(&n)
	return n, err
}

func (s *Store) CountSinceDate(ctx context.Context, date string) (int64, error) {
	const q = `SELECT COUNT(*) FROM signatures WHERE timestamp::date >= $1::date`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int64
	err := s.pool.QueryRow(ctx, q, date).Scan(&n)
	return n, err
}

func (s *Store) DailyCounts(ctx context.Context, sinceDate string) ([]domain.DailyCount, error) {
	const q = `
		SELECT timestamp::date, COUNT(*)
		FROM signatures
		WHERE timestamp::date >= $1::date
		GROUP BY timestamp::date
		ORDER BY timestamp::date`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, q, sinceDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []domain.DailyCount{}
	for rows.Next() {
		var day time.Time
		var dc domain.DailyCount
		if err := rows.Scan(&day, &dc.Count); err != nil {
			return nil, err
		}
		dc.Date = day.Format("2006-01-02")
		counts = append(counts, dc)
	}
	return counts, rows.Err()
}

func (s *Store) Recent(ctx context.Context, limit int) ([]domain.Signature, error) {
	const q = `SELECT ` + sigCols + ` FROM signatures ORDER BY timestamp DESC LIMIT $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSignatures(rows)
}

func (s *Store) ExportAll(ctx context.Context) ([]domain.Signature, error) {
	const q = `SELECT ` + sigCols + ` FROM signatures ORDER BY timestamp DESC`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSignatures(rows)
}

func (s *Store) ExportNewsletter(ctx context.Context) ([]domain.NewsletterRow, error) {
	const q = `
		SELECT email, name, timestamp
		FROM signatures
		WHERE newsletter_signup
		ORDER BY timestamp DESC`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.NewsletterRow{}
	for rows.Next() {
		var r domain.NewsletterRow
		if err := rows.Scan(&r.Email, &r.Name, &r.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ExportRange(ctx context.Context, start, end string) ([]domain.Signature, error) {
	const q = `
		SELECT ` + sigCols + `
		FROM signatures
		WHERE timestamp::date >= $1::date AND timestamp::date <= $2::date
		ORDER BY timestamp DESC`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, q, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSignatures(rows)
}

func (s *Store) Close() {
	s.pool.Close()
}

type sigRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSignatures(rows sigRows) ([]domain.Signature, error) {
	out := []domain.Signature{}
	for rows.Next() {
		var sig domain.Signature
		if err := rows.Scan(&sig.ID, &sig.Name, &sig.Email, &sig.NewsletterSignup, &sig.Message, &sig.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}
