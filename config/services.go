package config

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/andresqui0416/Melotech-Artist/auth"
	"github.com/andresqui0416/Melotech-Artist/events"
	"github.com/andresqui0416/Melotech-Artist/events/memory"
	"github.com/andresqui0416/Melotech-Artist/events/redis"
	"github.com/andresqui0416/Melotech-Artist/logging"
	"github.com/andresqui0416/Melotech-Artist/mailer"
	"github.com/andresqui0416/Melotech-Artist/service"
	"github.com/andresqui0416/Melotech-Artist/store"
	"github.com/andresqui0416/Melotech-Artist/store/postgres"
	"github.com/andresqui0416/Melotech-Artist/store/sqlite"
	"github.com/andresqui0416/Melotech-Artist/uploads"
)

// Services holds initialized application services.
type Services struct {
	PortalService  service.PortalService
	Store          store.Store
	EventPublisher events.Publisher
	Mailer         *mailer.Mailer
	Signer         *uploads.Signer // nil when uploads are not configured
	Authenticator  *auth.Authenticator
	Logger         *slog.Logger
	Config         *Config
}

// Initialize creates and returns all application services.
func (c *Config) Initialize(ctx context.Context, logger *slog.Logger) (*Services, error) {
	if logger == nil {
		logger = logging.NewLogger(c.Logging)
	}

	// Initialize store
	logger.Info("Initializing store", slog.String("type", c.Database.Type))
	var st store.Store
	var err error
	switch c.Database.Type {
	case "sqlite", "":
		st, err = sqlite.New(c.Database.SQLitePath)
	case "postgres":
		st, err = postgres.New(ctx, c.Database.PostgresConnStr)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	// Initialize event publisher
	logger.Info("Initializing event publisher", slog.String("type", c.Events.Type))
	var eventPublisher events.Publisher
	switch c.Events.Type {
	case "memory", "":
		eventPublisher = memory.NewInMemoryPublisher(c.Events.BufferSize, logger)
	case "redis":
		eventPublisher, err = redis.NewRedisPublisher(c.Events.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis publisher: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported event publisher type: %s", c.Events.Type)
	}

	// Initialize mailer (disabled without an API key)
	m := mailer.New(c.Mail.SendGridAPIKey, st, c.Mail.FromEmail, c.Mail.FromName, logger)

	// Initialize upload signer (disabled without a bucket)
	var signer *uploads.Signer
	if c.Uploads.Bucket != "" {
		signer, err = uploads.New(ctx, c.Uploads.Bucket, c.Uploads.Region, c.Uploads.MaxFileSize, c.Uploads.URLExpiry)
		if err != nil {
			return nil, fmt.Errorf("failed to create upload signer: %w", err)
		}
	} else {
		logger.Warn("S3 uploads disabled: no bucket configured")
	}

	// Initialize authentication
	secret := c.Auth.JWTSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		logger.Warn("auth.jwt_secret not set, using a random per-process secret; tokens will not survive restarts")
	}
	authenticator := auth.New(st, secret, c.Auth.TokenTTL)

	portal, err := service.New(service.Config{
		Store:          st,
		EventPublisher: eventPublisher,
		Mailer:         m,
		Signer:         signer,
		AdminEmail:     c.Seed.AdminEmail,
		AdminPassword:  c.Seed.AdminPassword,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create portal service: %w", err)
	}

	return &Services{
		PortalService:  portal,
		Store:          st,
		EventPublisher: eventPublisher,
		Mailer:         m,
		Signer:         signer,
		Authenticator:  authenticator,
		Logger:         logger,
		Config:         c,
	}, nil
}

// Close shuts down all services.
func (s *Services) Close() error {
	var firstErr error
	if s.EventPublisher != nil {
		if err := s.EventPublisher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
