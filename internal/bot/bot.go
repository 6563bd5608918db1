package bot

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gewog/LeadBot/internal/genai"
	"github.com/gewog/LeadBot/internal/lockfile"
	"github.com/gewog/LeadBot/internal/messaging"
	"github.com/gewog/LeadBot/internal/scheduler"
	"github.com/gewog/LeadBot/internal/stats"
	"github.com/gewog/LeadBot/internal/store"
)

// monthlyExportCronExpr runs the export check shortly after midnight UTC
// every day; the check itself is a no-op except on the first of the month.
const monthlyExportCronExpr = "5 0 * * *"

// Opts holds configuration applied via Option values.
type Opts struct {
	AdminID      int64
	StateDir     string
	DatabaseDSN  string
	ArtifactPath string
}

// Option configures the bot process.
type Option func(*Opts)

// WithAdminID sets the Telegram user ID of the administrator.
func WithAdminID(id int64) Option {
	return func(o *Opts) { o.AdminID = id }
}

// WithStateDir sets the state directory holding the lock file, the SQLite
// database and the stats artifact.
func WithStateDir(dir string) Option {
	return func(o *Opts) { o.StateDir = dir }
}

// WithDatabaseDSN sets the database connection string. A PostgreSQL URL
// selects the Postgres backend; anything else is an SQLite file path.
func WithDatabaseDSN(dsn string) Option {
	return func(o *Opts) { o.DatabaseDSN = dsn }
}

// WithArtifactPath overrides the monthly stats artifact location.
func WithArtifactPath(path string) Option {
	return func(o *Opts) { o.ArtifactPath = path }
}

// Run starts the bot and blocks until SIGINT/SIGTERM. It acquires the
// state-directory lock, opens the store, wires the dispatcher and runs the
// inbound event loop.
func Run(msgOpts []messaging.TelegramOption, genaiOpts []genai.Option, botOpts ...Option) error {
	var cfg Opts
	for _, opt := range botOpts {
		opt(&cfg)
	}
	if cfg.StateDir == "" {
		return fmt.Errorf("state directory not set")
	}
	if cfg.AdminID == 0 {
		return fmt.Errorf("admin ID not set")
	}
	if cfg.ArtifactPath == "" {
		cfg.ArtifactPath = filepath.Join(cfg.StateDir, stats.DefaultArtifactFileName)
	}

	lock, err := lockfile.AcquireLock(cfg.StateDir)
	if err != nil {
		return fmt.Errorf("failed to acquire state directory lock: %w", err)
	}
	defer lock.Release()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	agg := stats.NewAggregator(st, stats.WithArtifactPath(cfg.ArtifactPath))

	// The answerer stays a nil interface when no provider is configured;
	// assigning a nil *genai.Client directly would make it non-nil.
	var answerer Answerer
	if len(genaiOpts) > 0 {
		client, err := genai.NewClient(genaiOpts...)
		if err != nil {
			return fmt.Errorf("failed to initialize answer provider: %w", err)
		}
		answerer = client
	} else {
		slog.Info("Bot running without answer provider, free text gets the fixed fallback")
	}

	svc, err := messaging.NewTelegramService(msgOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize telegram service: %w", err)
	}

	dispatcher := NewDispatcher(st, agg, svc, answerer, cfg.AdminID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start telegram service: %w", err)
	}
	defer svc.Stop()

	// Catch-up check: covers months whose boundary passed while the bot
	// was offline but whose first day it started on.
	if err := agg.MaybeRunMonthlyExport(time.Now().UTC()); err != nil {
		slog.Error("Bot startup monthly export failed", "error", err)
	}

	sched := scheduler.NewScheduler()
	defer sched.Stop()
	if err := sched.AddJob(monthlyExportCronExpr, func() {
		if err := agg.MaybeRunMonthlyExport(time.Now().UTC()); err != nil {
			slog.Error("Bot scheduled monthly export failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule monthly export: %w", err)
	}

	slog.Info("Bot started", "admin_id", cfg.AdminID, "state_dir", cfg.StateDir)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Bot shutting down", "reason", ctx.Err())
			return nil
		case msg, ok := <-svc.Messages():
			if !ok {
				slog.Warn("Bot inbound channel closed, shutting down")
				return nil
			}
			if err := dispatcher.Dispatch(ctx, msg); err != nil {
				slog.Error("Bot failed to handle message", "error", err, "chat_id", msg.ChatID)
			}
		}
	}
}

// openStore selects the storage backend from the DSN: PostgreSQL URLs open
// the Postgres backend, everything else is an SQLite file path, defaulting
// to a database inside the state directory.
func openStore(cfg Opts) (store.Store, error) {
	dsn := cfg.DatabaseDSN
	if dsn == "" {
		dsn = filepath.Join(cfg.StateDir, "leadbot.db")
	}

	switch store.DetectDSNType(dsn) {
	case "postgres":
		st, err := store.NewPostgresStore(store.WithPostgresDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		slog.Info("Bot using PostgreSQL store")
		return st, nil
	default:
		st, err := store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		slog.Info("Bot using SQLite store", "path", dsn)
		return st, nil
	}
}
