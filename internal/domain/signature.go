package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	ErrMissingField       = errors.New("name and email are required")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingRange       = errors.New("start and end dates required")
	ErrInvalidRange       = errors.New("invalid date format")
)

// Deliberately loose: local@domain.tld shape only, no RFC 5322 parsing.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Signature is one guestbook entry. Rows are append-only; id and
// timestamp are assigned by storage and never change.
type Signature struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	NewsletterSignup bool      `json:"newsletter_signup"`
	Message          string    `json:"message"`
	Timestamp        time.Time `json:"timestamp"`
}

// Entry is the public listing projection. Email is write-only from the
// public side and only ever appears on the admin surface.
type Entry struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type SubmitRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	NewsletterSignup bool   `json:"newsletter_signup"`
	Message          string `json:"message"`
}

func (r *SubmitRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *SubmitRequest) Validate() error {
	if r.Name == "" || r.Email == "" {
		return ErrMissingField
	}
	if !emailPattern.MatchString(r.Email) {
		return ErrInvalidEmail
	}
	return nil
}

type Stats struct {
	TotalSignatures   int64 `json:"total_signatures"`
	NewsletterSignups int64 `json:"newsletter_signups"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type DashboardStats struct {
	Total      int64 `json:"total"`
	Newsletter int64 `json:"newsletter"`
	Today      int64 `json:"today"`
	Week       int64 `json:"week"`
}

type Dashboard struct {
	Stats         DashboardStats `json:"stats"`
	DailyStats    []DailyCount   `json:"dailyStats"`
	RecentEntries []Signature    `json:"recentEntries"`
}

// NewsletterRow is the projection used by the subscriber export.
type NewsletterRow struct {
	Email     string
	Name      string
	Timestamp time.Time
}
