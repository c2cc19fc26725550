package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/exhibitworks/guestbook/internal/http/handlers"
	hmw "github.com/exhibitworks/guestbook/internal/http/middleware"
	"github.com/exhibitworks/guestbook/internal/mailer"
	"github.com/exhibitworks/guestbook/internal/service"
	"github.com/exhibitworks/guestbook/internal/store"
	"github.com/exhibitworks/guestbook/internal/store/postgres"
	"github.com/exhibitworks/guestbook/internal/store/sqlite"
	"github.com/exhibitworks/guestbook/pkg/config"
	"github.com/exhibitworks/guestbook/pkg/events"
	"github.com/exhibitworks/guestbook/pkg/logger"
	mw "github.com/exhibitworks/guestbook/pkg/middleware"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	st := openStore(ctx, cfg)
	defer st.Close()

	var pub events.Publisher = events.NewNoopPublisher()
	if cfg.NATS.URL != "" {
		bus, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Warn("NATS unavailable, events disabled", "error", err)
		} else {
			pub = bus
			defer bus.Close()
		}
	}

	authService, err := service.NewAuthService(cfg.Auth)
	if err != nil {
		logger.Error("Failed to initialize auth service", "error", err)
		os.Exit(1)
	}
	guestbookService := service.NewGuestbookService(st, buildMailer(cfg.Email), pub)
	reportingService := service.NewReportingService(st)

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Warn("Invalid REDIS_URL, rate limiting disabled", "error", err)
		} else {
			redisClient = redis.NewClient(opt)
			defer redisClient.Close()
		}
	}
	signLimit := hmw.NewRateLimiter(redisClient, "sign", 10, time.Minute)
	loginLimit := hmw.NewRateLimiter(redisClient, "login", 5, time.Minute)

	h := handlers.New(guestbookService, reportingService, authService, signLimit, loginLimit)

	// Setup router
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(mw.Health)

	r.Mount("/api", h.Routes())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down guestbook server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting guestbook server", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// openStore selects the backend: postgres when DATABASE_URL is set,
// otherwise the embedded sqlite file.
func openStore(ctx context.Context, cfg *config.Config) store.Store {
	if cfg.Database.URL != "" {
		pg, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Error("Failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		if err := pg.InitSchema(ctx); err != nil {
			logger.Error("Failed to initialize postgres schema", "error", err)
			os.Exit(1)
		}
		logger.Info("Using postgres backend")
		return pg
	}

	sq, err := sqlite.Open(cfg.Database.SQLitePath)
	if err != nil {
		logger.Error("Failed to open sqlite database", "error", err)
		os.Exit(1)
	}
	if err := sq.InitSchema(ctx); err != nil {
		logger.Error("Failed to initialize sqlite schema", "error", err)
		os.Exit(1)
	}
	logger.Info("Using sqlite backend", "path", cfg.Database.SQLitePath)
	return sq
}

func buildMailer(cfg config.EmailConfig) mailer.Service {
	if cfg.DevMode {
		return mailer.NewDevMailer()
	}
	if cfg.MailerSendKey != "" {
		return mailer.NewMailerSendMailer(cfg.MailerSendKey, cfg.FromName, cfg.SMTPFrom)
	}
	return mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
}
