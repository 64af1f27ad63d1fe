package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/okarpenko/retreathub-backend/api/routes"
	"github.com/okarpenko/retreathub-backend/internal/auth"
	"github.com/okarpenko/retreathub-backend/internal/bookings"
	"github.com/okarpenko/retreathub-backend/internal/categories"
	"github.com/okarpenko/retreathub-backend/internal/payments"
	"github.com/okarpenko/retreathub-backend/internal/payments/providers"
	"github.com/okarpenko/retreathub-backend/internal/refunds"
	"github.com/okarpenko/retreathub-backend/internal/retreats"
	"github.com/okarpenko/retreathub-backend/internal/reviews"
	"github.com/okarpenko/retreathub-backend/internal/users"
	"github.com/okarpenko/retreathub-backend/internal/wishlist"
	"github.com/okarpenko/retreathub-backend/pkg/config"
	"github.com/okarpenko/retreathub-backend/pkg/db"
	"github.com/okarpenko/retreathub-backend/pkg/logger"
	"github.com/okarpenko/retreathub-backend/pkg/metrics"
	"github.com/okarpenko/retreathub-backend/pkg/migrate"
	"github.com/okarpenko/retreathub-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	usersRepo := users.NewRepository(dbClient.DB())
	retreatsRepo := retreats.NewRepository(dbClient.DB())
	categoriesRepo := categories.NewRepository(dbClient.DB())
	bookingsRepo := bookings.NewRepository(dbClient.DB())
	paymentsRepo := payments.NewRepository(dbClient.DB())
	refundsRepo := refunds.NewRepository(dbClient.DB())
	reviewsRepo := reviews.NewRepository(dbClient.DB())
	wishlistRepo := wishlist.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	retreatsService, err := retreats.NewService(retreatsRepo, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create retreats service", err)
		os.Exit(1)
	}

	categoriesService, err := categories.NewService(categoriesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create categories service", err)
		os.Exit(1)
	}

	bookingsService, err := bookings.NewService(bookingsRepo, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create bookings service", err)
		os.Exit(1)
	}

	registry := providers.NewRegistry(
		providers.NewLiqPay(cfg.LiqPay),
		providers.NewFondy(cfg.Fondy),
		providers.NewWayForPay(cfg.WayForPay),
	)

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Repo:        paymentsRepo,
		Bookings:    bookingsRepo,
		Registry:    registry,
		DB:          dbClient,
		ReplayGuard: redisClient,
		Config:      cfg.Payments,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	refundsService, err := refunds.NewService(refunds.ServiceParams{
		Repo:     refundsRepo,
		Payments: paymentsRepo,
		Bookings: bookingsRepo,
		DB:       dbClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create refunds service", err)
		os.Exit(1)
	}

	reviewsService, err := reviews.NewService(reviews.ServiceParams{
		Repo:     reviewsRepo,
		Bookings: bookingsRepo,
		Retreats: retreatsRepo,
		DB:       dbClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reviews service", err)
		os.Exit(1)
	}

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		Repo:     wishlistRepo,
		Retreats: retreatsRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(promRegistry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, httpMetrics, promRegistry, routes.Services{
			Auth:       authService,
			Retreats:   retreatsService,
			Categories: categoriesService,
			Bookings:   bookingsService,
			Payments:   paymentsService,
			Refunds:    refundsService,
			Reviews:    reviewsService,
			Wishlist:   wishlistService,
		}),
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}
