package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/YannKr/certgen"
	"github.com/YannKr/certgen/internal/app"
	"github.com/YannKr/certgen/internal/config"
	"github.com/YannKr/certgen/internal/db"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "apply database migrations and exit")
	flag.Parse()

	cfg := config.Load()
	slog.SetDefault(app.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat))

	if *migrateOnly {
		if err := migrate(cfg.DataDir); err != nil {
			slog.Error("migrate", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func migrate(dataDir string) error {
	database, err := db.Open(dataDir)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := db.Migrate(database, certgen.MigrationFS); err != nil {
		return err
	}
	v, err := db.SchemaVersion(database)
	if err != nil {
		return err
	}
	slog.Info("schema up to date", "path", db.Path(dataDir), "version", v)
	return nil
}
