// Melotech Artist Portal API Server
//
// Demo submission portal for a music label, with real-time updates for the
// admin dashboard over SSE.
//
//	@title			Melotech Artist Portal API
//	@version		0.1.0
//	@description	Music demo submission portal with real-time admin updates.
//
//	@host
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/andresqui0416/Melotech-Artist/config"
	"github.com/andresqui0416/Melotech-Artist/logging"
	fiberRoutes "github.com/andresqui0416/Melotech-Artist/routes/fiber"
)

func main() {
	// Load config first to get log settings
	cfg, err := Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logging.NewLogger(cfg.Logging)

	log.Info("Starting Melotech portal", slog.String("version", "0.1.0"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	services, err := cfg.Initialize(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if err := services.Close(); err != nil {
			log.Error("Error closing services", slog.String("error", err.Error()))
		}
	}()

	// Seed the admin account and email templates on boot so a fresh
	// database is usable without calling /api/seed.
	if err := services.PortalService.Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	portalRoutes := fiberRoutes.NewRoutes(fiberRoutes.Config{
		Service:       services.PortalService,
		Store:         services.Store,
		Authenticator: services.Authenticator,
		Signer:        services.Signer,
		Logger:        log,
	})

	log.Info("Starting HTTP server", slog.String("address", cfg.Server.Address))
	app := setupServer(cfg, portalRoutes)

	errCh := make(chan error, 1)
	go func() {
		if err := app.Listen(cfg.Server.Address); err != nil {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	log.Info("Melotech portal started successfully")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("Received shutdown signal")
	case err := <-errCh:
		log.Error("Server error", slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
		log.Info("Context canceled")
	}

	// Graceful shutdown
	log.Info("Shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", slog.String("error", err.Error()))
	}

	log.Info("Shutdown complete")
	return nil
}

func setupServer(cfg *config.Config, portalRoutes *fiberRoutes.Routes) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           cfg.Server.ReadTimeout,
	})

	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${method} ${path} - ${status} (${latency})\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "*",
		AllowMethods: "GET,POST,PATCH,PUT,DELETE,OPTIONS",
	}))

	portalRoutes.Register(app)

	app.Get("/health", portalRoutes.HandleGetHealth)

	return app
}
