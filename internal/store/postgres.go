// Package store provides storage backends for LeadBot.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/gewog/LeadBot/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// RecordInteraction appends an interaction row and upserts the user row in
// a single transaction. See SQLiteStore.RecordInteraction.
func (s *PostgresStore) RecordInteraction(user models.User, button models.ButtonKind, ts time.Time) error {
	if user.ID <= 0 {
		return models.ErrInvalidUserID
	}
	if !models.IsValidButtonKind(button) {
		return models.ErrInvalidButton
	}
	aboutInc, casesInc := buttonIncrements(button)
	now := models.FormatTime(ts)

	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("PostgresStore RecordInteraction begin failed", "error", err, "userID", user.ID)
		return fmt.Errorf("failed to begin interaction transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO interactions (user_id, button, ts) VALUES ($1, $2, $3)`,
		user.ID, string(button), now,
	); err != nil {
		slog.Error("PostgresStore RecordInteraction insert failed", "error", err, "userID", user.ID)
		return fmt.Errorf("failed to insert interaction for %d: %w", user.ID, err)
	}

	if _, err := tx.Exec(`
		INSERT INTO users (
			user_id, username, first_name, last_name,
			first_seen, last_seen,
			total_messages, about_clicks, cases_clicks
		)
		VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			username       = excluded.username,
			first_name     = excluded.first_name,
			last_name      = excluded.last_name,
			last_seen      = excluded.last_seen,
			total_messages = users.total_messages + 1,
			about_clicks   = users.about_clicks + excluded.about_clicks,
			cases_clicks   = users.cases_clicks + excluded.cases_clicks`,
		user.ID, nilIfEmpty(user.Username), nilIfEmpty(user.FirstName), nilIfEmpty(user.LastName),
		now, now, aboutInc, casesInc,
	); err != nil {
		slog.Error("PostgresStore RecordInteraction upsert failed", "error", err, "userID", user.ID)
		return fmt.Errorf("failed to upsert user %d: %w", user.ID, err)
	}

	if err := tx.Commit(); err != nil {
		slog.Error("PostgresStore RecordInteraction commit failed", "error", err, "userID", user.ID)
		return fmt.Errorf("failed to commit interaction for %d: %w", user.ID, err)
	}
	slog.Debug("PostgresStore RecordInteraction succeeded", "userID", user.ID, "button", button)
	return nil
}

func (s *PostgresStore) AddApplication(app models.Application) error {
	if err := app.Validate(); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO applications (user_id, username, first_name, last_name, phone, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		app.UserID, nilIfEmpty(app.Username), nilIfEmpty(app.FirstName), nilIfEmpty(app.LastName),
		app.Phone, models.FormatTime(app.CreatedAt),
	)
	if err != nil {
		slog.Error("PostgresStore AddApplication failed", "error", err, "userID", app.UserID)
		return fmt.Errorf("failed to insert application for %d: %w", app.UserID, err)
	}
	slog.Debug("PostgresStore AddApplication succeeded", "userID", app.UserID)
	return nil
}

func (s *PostgresStore) GetUser(id int64) (*models.User, error) {
	row := s.db.QueryRow(
		`SELECT user_id, username, first_name, last_name, first_seen, last_seen,
		        total_messages, about_clicks, cases_clicks
		 FROM users WHERE user_id = $1`, id)
	u, err := scanUserRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetUser failed", "error", err, "userID", id)
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return u, nil
}

func (s *PostgresStore) ListApplications() ([]models.Application, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, username, first_name, last_name, phone, created_at
		 FROM applications ORDER BY id`)
	if err != nil {
		slog.Error("PostgresStore ListApplications query failed", "error", err)
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var apps []models.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			slog.Error("PostgresStore ListApplications scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan application row: %w", err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListApplications rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate application rows: %w", err)
	}
	return apps, nil
}

func (s *PostgresStore) AllTimeStats() (models.StatsSummary, error) {
	var sum models.StatsSummary
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&sum.Users); err != nil {
		slog.Error("PostgresStore AllTimeStats user count failed", "error", err)
		return sum, fmt.Errorf("failed to count users: %w", err)
	}
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(about_clicks), 0), COALESCE(SUM(cases_clicks), 0), COALESCE(SUM(total_messages), 0)
		 FROM users`,
	).Scan(&sum.AboutClicks, &sum.CasesClicks, &sum.TotalMessages)
	if err != nil {
		slog.Error("PostgresStore AllTimeStats sums failed", "error", err)
		return sum, fmt.Errorf("failed to sum user counters: %w", err)
	}
	return sum, nil
}

func (s *PostgresStore) StatsSince(cutoff time.Time) (models.StatsSummary, error) {
	return s.aggregateInteractions(
		`SELECT COUNT(DISTINCT user_id) FROM interactions WHERE ts >= $1`,
		`SELECT
			COALESCE(SUM(CASE WHEN button = 'about' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN button = 'cases' THEN 1 ELSE 0 END), 0),
			COUNT(*)
		 FROM interactions WHERE ts >= $1`,
		models.FormatTime(cutoff),
	)
}

func (s *PostgresStore) StatsBetween(start, end time.Time) (models.StatsSummary, error) {
	return s.aggregateInteractions(
		`SELECT COUNT(DISTINCT user_id) FROM interactions WHERE ts >= $1 AND ts < $2`,
		`SELECT
			COALESCE(SUM(CASE WHEN button = 'about' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN button = 'cases' THEN 1 ELSE 0 END), 0),
			COUNT(*)
		 FROM interactions WHERE ts >= $1 AND ts < $2`,
		models.FormatTime(start), models.FormatTime(end),
	)
}

func (s *PostgresStore) aggregateInteractions(usersQuery, countersQuery string, args ...interface{}) (models.StatsSummary, error) {
	var sum models.StatsSummary
	if err := s.db.QueryRow(usersQuery, args...).Scan(&sum.Users); err != nil {
		slog.Error("PostgresStore interaction user count failed", "error", err)
		return sum, fmt.Errorf("failed to count distinct users: %w", err)
	}
	if err := s.db.QueryRow(countersQuery, args...).Scan(&sum.AboutClicks, &sum.CasesClicks, &sum.TotalMessages); err != nil {
		slog.Error("PostgresStore interaction counters failed", "error", err)
		return sum, fmt.Errorf("failed to aggregate interactions: %w", err)
	}
	return sum, nil
}

func (s *PostgresStore) IsMonthMarked(year, month int) (bool, error) {
	var id int64
	err := s.db.QueryRow(
		`SELECT id FROM monthly_stats_saves WHERE year = $1 AND month = $2`,
		year, month,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		slog.Error("PostgresStore IsMonthMarked failed", "error", err, "year", year, "month", month)
		return false, fmt.Errorf("failed to check export mark for %d-%02d: %w", year, month, err)
	}
	return true, nil
}

// TryMarkMonth inserts the export mark; ON CONFLICT DO NOTHING makes a
// lost race against another inserter report "already marked" instead of
// an error.
func (s *PostgresStore) TryMarkMonth(year, month int, savedAt time.Time) (bool, error) {
	res, err := s.db.Exec(
		`INSERT INTO monthly_stats_saves (year, month, saved_at) VALUES ($1, $2, $3)
		 ON CONFLICT (year, month) DO NOTHING`,
		year, month, models.FormatTime(savedAt),
	)
	if err != nil {
		slog.Error("PostgresStore TryMarkMonth failed", "error", err, "year", year, "month", month)
		return false, fmt.Errorf("failed to insert export mark for %d-%02d: %w", year, month, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read export mark result for %d-%02d: %w", year, month, err)
	}
	slog.Debug("PostgresStore TryMarkMonth finished", "year", year, "month", month, "inserted", n > 0)
	return n > 0, nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	}
	return err
}
