package store

import (
	"database/sql"
	"strings"

	"github.com/gewog/LeadBot/internal/models"
)

// Opts holds configuration applied via Option values.
type Opts struct {
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithSQLiteDSN sets a file path DSN for the SQLite backend.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets a connection string for the PostgreSQL backend.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite". Anything that
// does not look like a PostgreSQL connection string is treated as an
// SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// scanUserRow scans a User from a single sql.Row, decoding the canonical
// timestamp form and mapping nullable profile columns to empty strings.
func scanUserRow(row *sql.Row) (*models.User, error) {
	var u models.User
	var username, firstName, lastName sql.NullString
	var firstSeen, lastSeen string
	err := row.Scan(
		&u.ID, &username, &firstName, &lastName,
		&firstSeen, &lastSeen,
		&u.TotalMessages, &u.AboutClicks, &u.CasesClicks,
	)
	if err != nil {
		return nil, err
	}
	u.Username = username.String
	u.FirstName = firstName.String
	u.LastName = lastName.String
	if u.FirstSeen, err = models.ParseTime(firstSeen); err != nil {
		return nil, err
	}
	if u.LastSeen, err = models.ParseTime(lastSeen); err != nil {
		return nil, err
	}
	return &u, nil
}

// scanApplication scans an Application from sql.Rows.
func scanApplication(rows *sql.Rows) (models.Application, error) {
	var a models.Application
	var username, firstName, lastName sql.NullString
	var createdAt string
	err := rows.Scan(&a.ID, &a.UserID, &username, &firstName, &lastName, &a.Phone, &createdAt)
	if err != nil {
		return a, err
	}
	a.Username = username.String
	a.FirstName = firstName.String
	a.LastName = lastName.String
	if a.CreatedAt, err = models.ParseTime(createdAt); err != nil {
		return a, err
	}
	return a, nil
}

// buttonIncrements returns the per-event counter contributions for the
// user upsert (about, cases).
func buttonIncrements(button models.ButtonKind) (int, int) {
	switch button {
	case models.ButtonAbout:
		return 1, 0
	case models.ButtonCases:
		return 0, 1
	default:
		return 0, 0
	}
}
