package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/exhibitworks/guestbook/internal/domain"
)

// Store is the embedded single-file backend used for local development.
// SQLite stores booleans as 0/1 integers and buckets dates with date();
// both quirks stay behind this type.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_loc=UTC", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// One writer at a time keeps the driver from tripping over
	// SQLITE_BUSY under concurrent request handling.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) InitSchema(ctx context.Context) error {
	const q = `
		CREATE TABLE IF NOT EXISTS signatures (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			newsletter_signup BOOLEAN NOT NULL DEFAULT 0,
			message TEXT NOT NULL DEFAULT '',
			timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`

	_, err := s.db.ExecContext(ctx, q)
	return err
}

const sigCols = `id, name, email, newsletter_signup, message, timestamp`

func (s *Store) Insert(ctx context.Context, req *domain.SubmitRequest) (int64, error) {
	const q = `
		INSERT INTO signatures (name, email, newsletter_signup, message)
		VALUES (?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, q, req.Name, req.Email, req.NewsletterSignup, req.Message)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM signatures`).Scan(&n)
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
		LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, q, limit, offset)
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
		SELECT COUNT(*),
		       SUM(CASE WHEN newsletter_signup = 1 THEN 1 ELSE 0 END)
		FROM signatures`

	var st domain.Stats
	var newsletter sql.NullInt64 // SUM over zero rows is NULL
	if err := s.db.QueryRowContext(ctx, q).Scan(&st.TotalSignatures, &newsletter); err != nil {
		return nil, err
	}
	st.NewsletterSignups = newsletter.Int64
	return &st, nil
}

func (s *Store) NewsletterCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM signatures WHERE newsletter_signup = 1`).Scan(&n)
	return n, err
}

func (s *Store) CountOnDate(ctx context.Context, date string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM signatures WHERE date(timestamp) = date(?)`, date).Scan(&n)
	return n, err
}

func (s *Store) CountSinceDate(ctx context.Context, date string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM signatures WHERE date(timestamp) >= date(?)`, date).Scan(&n)
	return n, err
}

func (s *Store) DailyCounts(ctx context.Context, sinceDate string) ([]domain.DailyCount, error) {
	const q = `
		SELECT date(timestamp), COUNT(*)
		FROM signatures
		WHERE date(timestamp) >= date(?)
		GROUP BY date(timestamp)
		ORDER BY date(timestamp)`

	rows, err := s.db.QueryContext(ctx, q, sinceDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []domain.DailyCount{}
	for rows.Next() {
		var dc domain.DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, dc)
	}
	return counts, rows.Err()
}

func (s *Store) Recent(ctx context.Context, limit int) ([]domain.Signature, error) {
	const q = `SELECT ` + sigCols + ` FROM signatures ORDER BY timestamp DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSignatures(rows)
}

func (s *Store) ExportAll(ctx context.Context) ([]domain.Signature, error) {
	const q = `SELECT ` + sigCols + ` FROM signatures ORDER BY timestamp DESC`

	rows, err := s.db.QueryContext(ctx, q)
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
		WHERE newsletter_signup = 1
		ORDER BY timestamp DESC`

	rows, err := s.db.QueryContext(ctx, q)
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
		WHERE date(timestamp) >= date(?) AND date(timestamp) <= date(?)
		ORDER BY timestamp DESC`

	rows, err := s.db.QueryContext(ctx, q, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSignatures(rows)
}

func (s *Store) Close() {
	s.db.Close()
}

func scanSignatures(rows *sql.Rows) ([]domain.Signature, error) {
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
