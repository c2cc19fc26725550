package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/exhibitworks/guestbook/internal/domain"
	"github.com/exhibitworks/guestbook/internal/service"
	"github.com/exhibitworks/guestbook/pkg/config"
)

func newAuth(t *testing.T) *service.AuthService {
	t.Helper()
	svc, err := service.NewAuthService(config.AuthConfig{
		JWTSecret:     "test-secret",
		AdminUsername: "admin",
		AdminPassword: "correct-horse",
		TokenTTL:      time.Hour,
	})
	if err != nil {
		t.Fatalf("NewAuthService failed: %v", err)
	}
	return svc
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	svc := newAuth(t)

	token, err := svc.Login(context.Background(), "admin", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Username != "admin" {
		t.Fatalf("Expected username admin, got %q", claims.Username)
	}
}

// Wrong username and wrong password must be indistinguishable.
func TestLogin_UniformRejection(t *testing.T) {
	svc := newAuth(t)

	for _, tt := range []struct{ username, password string }{
		{"admin", "wrong"},
		{"root", "correct-horse"},
		{"root", "wrong"},
		{"", ""},
	} {
		if _, err := svc.Login(context.Background(), tt.username, tt.password); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("username=%q: expected ErrInvalidCredentials, got %v", tt.username, err)
		}
	}
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	expired, err := service.NewAuthService(config.AuthConfig{
		JWTSecret:     "test-secret",
		AdminUsername: "admin",
		AdminPassword: "correct-horse",
		TokenTTL:      -time.Minute,
	})
	if err != nil {
		t.Fatalf("NewAuthService failed: %v", err)
	}

	token, err := expired.Login(context.Background(), "admin", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if _, err := expired.Verify(token); err == nil {
		t.Fatal("Expected expired token to be rejected")
	}
}

func TestVerify_RejectsForeignToken(t *testing.T) {
	svc := newAuth(t)

	other, err := service.NewAuthService(config.AuthConfig{
		JWTSecret:     "different-secret",
		AdminUsername: "admin",
		AdminPassword: "correct-horse",
		TokenTTL:      time.Hour,
	})
	if err != nil {
		t.Fatalf("NewAuthService failed: %v", err)
	}

	token, err := other.Login(context.Background(), "admin", "correct-horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if _, err := svc.Verify(token); err == nil {
		t.Fatal("Expected token signed with another secret to be rejected")
	}
}
