package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/hq/internal/auth"
	"github.com/gosuda/hq/internal/config"
	"github.com/gosuda/hq/internal/domain"
	"github.com/gosuda/hq/internal/notify"
	"github.com/gosuda/hq/internal/server"
	"github.com/gosuda/hq/internal/store/postgres"
	redisstore "github.com/gosuda/hq/internal/store/redis"
	"github.com/gosuda/hq/web"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log)

	if cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		log.Info().Msg("database schema applied")
	}

	if err := ensureTenant(ctx, store.Tenants(), cfg.Bootstrap); err != nil {
		return err
	}

	pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	authSvc := auth.NewService(store.Users(), cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	var senders []notify.Sender
	if cfg.Slack.WebhookURL != "" {
		senders = append(senders, notify.NewSlackWebhook(cfg.Slack.WebhookURL, nil))
		log.Info().Msg("slack stage notifications enabled")
	}
	notifier := notify.New(senders...)

	webAssets, err := fs.Sub(web.Assets, "build")
	if err != nil {
		return fmt.Errorf("web assets: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(ctx, cfg, store, pubsub, authSvc, notifier, webAssets)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}

func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}

// ensureTenant creates the bootstrap tenant when it does not exist yet. The
// first user to register in it becomes its admin.
func ensureTenant(ctx context.Context, tenants domain.TenantRepository, cfg config.BootstrapConfig) error {
	if cfg.TenantSlug == "" {
		return nil
	}

	_, err := tenants.GetBySlug(ctx, cfg.TenantSlug)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("bootstrap tenant: %w", err)
	}

	now := time.Now()
	t := &domain.Tenant{
		ID:        uuid.New(),
		Name:      cfg.TenantName,
		Slug:      cfg.TenantSlug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tenants.Create(ctx, t); err != nil {
		return fmt.Errorf("bootstrap tenant: %w", err)
	}

	log.Info().Str("slug", t.Slug).Str("tenant_id", t.ID.String()).Msg("bootstrap tenant created")
	return nil
}
