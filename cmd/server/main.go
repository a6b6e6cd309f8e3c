package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/redis/go-redis/v9"
	billingroot "github.com/televizor/billing"
	"github.com/televizor/billing/internal/config"
	"github.com/televizor/billing/internal/handler"
	"github.com/televizor/billing/internal/middleware"
	"github.com/televizor/billing/internal/repository"
	"github.com/televizor/billing/internal/service"
	"github.com/televizor/billing/internal/telegram"
	"github.com/televizor/billing/internal/viewer"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(billingroot.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Optional Redis for rate limiting
	var limiter *middleware.RateLimiter
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opt)
		defer rdb.Close()
		limiter = middleware.NewRateLimiter(rdb, "billing:rate_limit:invoices",
			config.InvoiceRateLimit, config.InvoiceRateWindow)
	}

	// Create bot client for outbound provider calls; updates arrive over the
	// webhook, so the bot is never started in polling mode.
	b, err := bot.New(cfg.BotToken)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}
	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)

	// Initialize collaborators
	messenger := telegram.NewClient(b)
	audit := telegram.NewAuditLogger(b, cfg)
	store := repository.NewStore(pool)
	users := repository.NewUsers(pool)

	// Initialize services
	invoiceService := service.NewInvoiceService(store, users, messenger, cfg)
	checkoutService := service.NewCheckoutService(store)
	ledgerService := service.NewLedgerService(store)

	viewerManager := viewer.NewManager(cfg.ViewerCommand, cfg.ViewerListen,
		cfg.DatabaseURL, cfg.ViewerPassword, config.ViewerStopTimeout)

	// Initialize handler
	h := handler.New(handler.Deps{
		Cfg:       cfg,
		Secret:    handler.NewSecretValidator(cfg.WebhookSecretToken),
		Checkout:  checkoutService,
		Ledger:    ledgerService,
		Confirmer: ledgerService,
		Issuer:    invoiceService,
		Users:     users,
		Messenger: messenger,
		Audit:     audit,
		Viewer:    viewerManager,
	})

	// Start stale invoice sweep goroutine
	go func() {
		ticker := time.NewTicker(config.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count, err := invoiceService.ExpireStale(context.Background())
				if err != nil {
					slog.Error("expire stale invoices", "error", err)
					continue
				}
				if count > 0 {
					slog.Info("expired stale invoices", "count", count)
					audit.InvoicesExpired(count)
				}
			}
		}
	}()

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h.Router(limiter),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	go func() {
		slog.Info("starting server", "addr", srv.Addr, "bot", me.Username)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
	slog.Info("server stopped gracefully")
}
