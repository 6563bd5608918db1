// Package store provides storage backends for LeadBot.
//
// It includes an in-memory store for tests and DSN-less runs, plus
// persistent SQLite and PostgreSQL backends.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/gewog/LeadBot/internal/models"
)

// Store is the persistence contract shared by all backends.
//
// RecordInteraction must be atomic per user per event: the interaction
// append and the user upsert-with-increment happen in one transaction, so
// concurrent increments for the same user never lose updates.
type Store interface {
	// RecordInteraction appends an interaction row and upserts the user
	// row: profile fields and last_seen are updated unconditionally,
	// counters are incremented by the event's contribution.
	RecordInteraction(user models.User, button models.ButtonKind, ts time.Time) error

	// AddApplication appends a lead application.
	AddApplication(app models.Application) error

	// GetUser returns the aggregated user row, or nil if never seen.
	GetUser(id int64) (*models.User, error)

	// ListApplications returns all stored applications in insertion order.
	ListApplications() ([]models.Application, error)

	// AllTimeStats aggregates over the users table: row count plus sums of
	// the three counters. Zero-valued when the table is empty.
	AllTimeStats() (models.StatsSummary, error)

	// StatsSince aggregates interactions with ts >= cutoff.
	StatsSince(cutoff time.Time) (models.StatsSummary, error)

	// StatsBetween aggregates interactions with start <= ts < end.
	StatsBetween(start, end time.Time) (models.StatsSummary, error)

	// IsMonthMarked reports whether a monthly export mark exists.
	IsMonthMarked(year, month int) (bool, error)

	// TryMarkMonth inserts a monthly export mark. Returns false without
	// error if the mark already exists; the uniqueness constraint is the
	// backstop against duplicate exports under concurrent invocation.
	TryMarkMonth(year, month int, savedAt time.Time) (bool, error)

	// Close releases backend resources.
	Close() error
}

type monthKey struct {
	year  int
	month int
}

// InMemoryStore is a Store kept entirely in process memory. Used by tests
// and as the fallback when no database DSN is configured.
type InMemoryStore struct {
	mu           sync.Mutex
	users        map[int64]*models.User
	interactions []models.Interaction
	applications []models.Application
	marks        map[monthKey]time.Time
	nextID       int64
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users: make(map[int64]*models.User),
		marks: make(map[monthKey]time.Time),
	}
}

func (s *InMemoryStore) RecordInteraction(user models.User, button models.ButtonKind, ts time.Time) error {
	if user.ID <= 0 {
		return models.ErrInvalidUserID
	}
	if !models.IsValidButtonKind(button) {
		return models.ErrInvalidButton
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.interactions = append(s.interactions, models.Interaction{
		ID:     s.nextID,
		UserID: user.ID,
		Button: button,
		Time:   ts.UTC(),
	})

	u, ok := s.users[user.ID]
	if !ok {
		u = &models.User{ID: user.ID, FirstSeen: ts.UTC()}
		s.users[user.ID] = u
	}
	u.Username = user.Username
	u.FirstName = user.FirstName
	u.LastName = user.LastName
	u.LastSeen = ts.UTC()
	u.TotalMessages++
	switch button {
	case models.ButtonAbout:
		u.AboutClicks++
	case models.ButtonCases:
		u.CasesClicks++
	}
	return nil
}

func (s *InMemoryStore) AddApplication(app models.Application) error {
	if err := app.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	app.ID = int64(len(s.applications) + 1)
	s.applications = append(s.applications, app)
	return nil
}

func (s *InMemoryStore) GetUser(id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (s *InMemoryStore) ListApplications() ([]models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Application, len(s.applications))
	copy(out, s.applications)
	return out, nil
}

func (s *InMemoryStore) AllTimeStats() (models.StatsSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum models.StatsSummary
	sum.Users = int64(len(s.users))
	for _, u := range s.users {
		sum.AboutClicks += u.AboutClicks
		sum.CasesClicks += u.CasesClicks
		sum.TotalMessages += u.TotalMessages
	}
	return sum, nil
}

func (s *InMemoryStore) StatsSince(cutoff time.Time) (models.StatsSummary, error) {
	return s.aggregate(cutoff.UTC(), time.Time{})
}

func (s *InMemoryStore) StatsBetween(start, end time.Time) (models.StatsSummary, error) {
	return s.aggregate(start.UTC(), end.UTC())
}

// aggregate counts interactions in [start, end); a zero end means no upper
// bound. Comparison happens on the encoded string form, matching the SQL
// backends exactly.
func (s *InMemoryStore) aggregate(start, end time.Time) (models.StatsSummary, error) {
	startStr := models.FormatTime(start)
	endStr := ""
	if !end.IsZero() {
		endStr = models.FormatTime(end)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var sum models.StatsSummary
	seen := make(map[int64]bool)
	for _, it := range s.interactions {
		ts := models.FormatTime(it.Time)
		if ts < startStr {
			continue
		}
		if endStr != "" && ts >= endStr {
			continue
		}
		sum.TotalMessages++
		if !seen[it.UserID] {
			seen[it.UserID] = true
			sum.Users++
		}
		switch it.Button {
		case models.ButtonAbout:
			sum.AboutClicks++
		case models.ButtonCases:
			sum.CasesClicks++
		}
	}
	return sum, nil
}

func (s *InMemoryStore) IsMonthMarked(year, month int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.marks[monthKey{year, month}]
	return ok, nil
}

func (s *InMemoryStore) TryMarkMonth(year, month int, savedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := monthKey{year, month}
	if _, ok := s.marks[key]; ok {
		return false, nil
	}
	s.marks[key] = savedAt.UTC()
	return true, nil
}

// ListMarks returns all export marks sorted by (year, month). For tests.
func (s *InMemoryStore) ListMarks() []models.MonthlyExportMark {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MonthlyExportMark, 0, len(s.marks))
	for k, saved := range s.marks {
		out = append(out, models.MonthlyExportMark{Year: k.year, Month: k.month, SavedAt: saved})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

func (s *InMemoryStore) Close() error { return nil }
