package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/YannKr/certgen"
	"github.com/YannKr/certgen/internal/cleanup"
	"github.com/YannKr/certgen/internal/config"
	"github.com/YannKr/certgen/internal/db"
	"github.com/YannKr/certgen/internal/diskstat"
	"github.com/YannKr/certgen/internal/handler"
	"github.com/YannKr/certgen/internal/storage"
	"github.com/YannKr/certgen/internal/store"
	"github.com/YannKr/certgen/internal/webhook"
)

func Run(ctx context.Context, cfg *config.Config) error {
	for _, dir := range []string{cfg.DataDir, cfg.TemplateDir, cfg.OutputDir, cfg.ArchiveDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database, certgen.MigrationFS); err != nil {
		return err
	}
	slog.Info("database ready")

	st, closeStore, err := openStore(ctx, cfg, database)
	if err != nil {
		return err
	}
	defer closeStore()

	sink, err := openSink(ctx, cfg)
	if err != nil {
		return err
	}

	disk := diskstat.New(cfg.DataDir, map[string]string{
		"templates": cfg.TemplateDir,
		"output":    cfg.OutputDir,
		"archives":  cfg.ArchiveDir(),
	}, 60*time.Second)
	disk.Start()
	defer disk.Stop()
	if err := prometheus.Register(disk); err != nil {
		return fmt.Errorf("register disk stats: %w", err)
	}
	defer prometheus.Unregister(disk)

	if cfg.RetentionHours > 0 {
		cleaner := &cleanup.Cleaner{
			DB:        database,
			OutputDir: cfg.OutputDir,
			Retention: time.Duration(cfg.RetentionHours) * time.Hour,
			Interval:  time.Duration(max(cfg.CleanupIntervalMins, 1)) * time.Minute,
		}
		cleaner.Start(ctx)
		defer cleaner.Stop()
	}

	var renderRL *handler.RateLimiter
	if cfg.RateLimitPerMin > 0 {
		renderRL = handler.NewRateLimiter(rate.Limit(float64(cfg.RateLimitPerMin)/60.0), cfg.RateLimitPerMin)
		defer renderRL.Stop()
	}

	h := handler.New(database, cfg, st, sink)
	if cfg.JobWebhookURL != "" {
		h.Notifier = webhook.New(cfg.JobWebhookURL, cfg.JobWebhookSecret)
		defer h.Notifier.Close()
		slog.Info("job webhook enabled", "url", cfg.JobWebhookURL)
	}
	router := h.Routes(renderRL)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", cfg.ListenAddr, "templates", cfg.TemplateDir,
		"output", cfg.OutputDir, "config_store", cfg.ConfigStore, "auth", cfg.AuthTokenHash != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func openStore(ctx context.Context, cfg *config.Config, database *sql.DB) (store.Store, func(), error) {
	noop := func() {}
	switch cfg.ConfigStore {
	case "file":
		return &store.FileStore{Path: cfg.ConfigPath}, noop, nil
	case "sqlite":
		return &store.SQLStore{DB: database, Profile: cfg.ConfigProfile}, noop, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		slog.Info("config store", "backend", "redis", "addr", cfg.RedisAddr, "profile", cfg.ConfigProfile)
		return &store.RedisStore{Client: client, Profile: cfg.ConfigProfile}, func() { client.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown CONFIG_STORE %q (want file, sqlite or redis)", cfg.ConfigStore)
}

// openSink returns the output directory, mirrored to MinIO when an
// endpoint is configured.
func openSink(ctx context.Context, cfg *config.Config) (storage.Sink, error) {
	local := &storage.DirSink{Dir: cfg.OutputDir}
	if cfg.MinIOEndpoint == "" {
		return local, nil
	}
	mirror, err := storage.NewMinIOSink(ctx, storage.MinIOConfig{
		Endpoint:        cfg.MinIOEndpoint,
		AccessKeyID:     cfg.MinIOAccessKeyID,
		SecretAccessKey: cfg.MinIOSecretAccessKey,
		UseSSL:          cfg.MinIOUseSSL,
		Bucket:          cfg.MinIOBucket,
		Prefix:          cfg.MinIOPrefix,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("artifact mirror enabled", "endpoint", cfg.MinIOEndpoint, "bucket", cfg.MinIOBucket)
	return storage.MultiSink{local, mirror}, nil
}
