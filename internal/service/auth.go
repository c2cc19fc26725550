package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/exhibitworks/guestbook/internal/domain"
	"github.com/exhibitworks/guestbook/pkg/auth"
	"github.com/exhibitworks/guestbook/pkg/config"
)

// AuthService holds the single admin principal. The configured password
// is hashed once at startup; the plaintext is never kept around.
type AuthService struct {
	username     string
	passwordHash string
	secret       string
	ttl          time.Duration
}

func NewAuthService(cfg config.AuthConfig) (*AuthService, error) {
	hash, err := argon2id.CreateHash(cfg.AdminPassword, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}

	return &AuthService{
		username:     cfg.AdminUsername,
		passwordHash: hash,
		secret:       cfg.JWTSecret,
		ttl:          cfg.TokenTTL,
	}, nil
}

// Login issues an admin token. The password comparison always runs, so a
// wrong username costs the same as a wrong password and the error never
// says which one it was.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	match, err := argon2id.ComparePasswordAndHash(password, s.passwordHash)
	if err != nil {
		return "", fmt.Errorf("verify password: %w", err)
	}
	if username != s.username || !match {
		return "", domain.ErrInvalidCredentials
	}

	return auth.NewAdminToken(s.username, s.secret, s.ttl)
}

func (s *AuthService) Verify(token string) (*auth.Claims, error) {
	return auth.Parse(token, s.secret)
}
