package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/presence-backend-go/internal/config"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/logger"
	"github.com/cmlabs-hris/presence-backend-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/presence-backend-go/migrations"
	"github.com/spf13/pflag"
)

func main() {
	var (
		dsn    string
		dryRun bool
	)
	pflag.StringVar(&dsn, "dsn", "", "PostgreSQL connection URL (defaults to the DB_* environment)")
	pflag.BoolVar(&dryRun, "dry-run", false, "list pending migrations without applying them")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil && dsn == "" {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	opts := logger.Options{App: "presence-migrate", Level: "info"}
	if cfg != nil {
		opts.Version = cfg.App.Version
		opts.Env = cfg.App.Env
		opts.Level = cfg.App.LogLevel
		if dsn == "" {
			dsn = cfg.DatabaseURL()
		}
	}
	log := logger.New(os.Stderr, opts)

	if err := run(dsn, dryRun, log); err != nil {
		log.Error("Migration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(dsn string, dryRun bool, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	all, err := postgresql.LoadMigrations(migrations.FS)
	if err != nil {
		return err
	}

	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 2, MinConns: 1})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	migrator := postgresql.NewMigrator(db, log)

	if dryRun {
		pending, err := migrator.Pending(ctx, all)
		if err != nil {
			return err
		}
		for _, m := range pending {
			fmt.Printf("%s_%s\n", m.Version, m.Name)
		}
		log.Info("Dry run finished", slog.Int("pending", len(pending)))
		return nil
	}

	applied, err := migrator.Apply(ctx, all)
	if err != nil {
		return err
	}
	log.Info("Migrations applied", slog.Int("applied", len(applied)), slog.Int("total", len(all)))
	return nil
}
