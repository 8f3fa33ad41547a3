package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymbeta/internal/catalog"
	"gymbeta/internal/config"
	"gymbeta/internal/db"
	"gymbeta/internal/email"
	"gymbeta/internal/logger"
	"gymbeta/internal/membership"
	"gymbeta/internal/payment"
	"gymbeta/internal/server"
	"gymbeta/internal/store"
	"gymbeta/internal/training"
	"gymbeta/internal/user"
)

// @title GymBeta API
// @version 1.0
// @description Gym membership, PT subscription, payment and training plan backend.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.InitWithLevel(cfg.LogLevel)
	logger.Info("starting gymbeta", "port", cfg.Port)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatal("failed to run migrations", "error", err)
	}
	logger.Info("migrations completed")

	mailer := email.New(
		cfg.EmailFrom,
		cfg.EmailFromName,
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUser,
		cfg.SMTPPass,
		cfg.RedisAddr,
	)
	defer mailer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mailer.Start(ctx)

	packageRepo, err := catalog.NewCachedRepository(catalog.NewRepository(database), cfg.PackageCacheSize)
	if err != nil {
		logger.Fatal("failed to build package cache", "error", err)
	}
	st := store.New(database, packageRepo)

	userRepo := user.NewRepository(database)
	userService := user.NewService(userRepo, cfg.JWTSecret, mailer)
	catalogService := catalog.NewService(packageRepo)
	membershipService := membership.NewService(st)

	reconciler := payment.NewReconciler(st, membershipService, email.NewRegistrationNotifier(mailer, userRepo))
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.StripeCurrency, cfg.FrontendURL)
	checkout := payment.NewCheckout(st, membershipService, gateway, reconciler)
	if cfg.StripeSecretKey == "" {
		logger.Warn("stripe is not configured; online checkout disabled")
	}

	trainingService := training.NewService(training.NewRepository(database), cfg.MaxTrainingDaysPerWeek)

	sweeper, err := membership.StartSweepCron(ctx, membershipService, cfg.SweepCron)
	if err != nil {
		logger.Fatal("invalid sweep schedule", "schedule", cfg.SweepCron, "error", err)
	}

	srv := server.New(cfg, server.Handlers{
		User:       user.NewHandler(userService),
		Catalog:    catalog.NewHandler(catalogService),
		Membership: membership.NewHandler(membershipService),
		Payment:    payment.NewHandler(reconciler, checkout),
		Training:   training.NewHandler(trainingService),
	}, map[string]server.Check{
		"postgres": database.PingContext,
		"redis":    mailer.Ping,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received signal", "signal", sig.String())
	case err := <-serverErrChan:
		if err != nil {
			logger.Error("server error", "error", err)
		}
	}

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()
	if sweeper != nil {
		<-sweeper.Stop().Done()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}

	logger.Info("server stopped")
}
