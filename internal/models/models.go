// Package models defines the core data structures for LeadBot.
//
// It includes types for users, interactions, lead applications and
// monthly export marks, which are shared across modules.
package models

import (
	"errors"
	"time"
)

// ButtonKind identifies which reply-keyboard button triggered an interaction.
type ButtonKind string

const (
	// ButtonAbout marks a press of the "О нас" button.
	ButtonAbout ButtonKind = "about"
	// ButtonCases marks a press of the "Кейсы" button.
	ButtonCases ButtonKind = "cases"
	// ButtonOther marks any other tracked message (including /start).
	ButtonOther ButtonKind = "other"
)

// Reply-keyboard button labels. The dispatcher matches inbound text
// against these exact strings, so they are shared with the messaging layer.
const (
	ButtonAboutLabel   = "О нас"
	ButtonCasesLabel   = "Кейсы"
	ButtonStatsLabel   = "Статистика"
	ContactButtonLabel = "📞 Отправить контакт"
)

// Validation constants for outbound content.
const (
	// MaxMessageLength is the safe ceiling for a single outbound message.
	// Telegram caps messages at ~4096 characters; provider answers longer
	// than this are truncated with TruncationMarker appended.
	MaxMessageLength = 4000
	// TruncationMarker is appended to truncated provider answers.
	TruncationMarker = "..."
)

// TimeLayout is the storage encoding for all timestamps. Fixed-width UTC
// so that lexical ordering of encoded values equals chronological ordering
// (RFC3339Nano trims trailing zeros and does not have this property).
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// Error variables for better error handling and testability
var (
	ErrInvalidButton = errors.New("invalid button kind")
	ErrEmptyPhone    = errors.New("application phone cannot be empty")
	ErrInvalidUserID = errors.New("user id must be positive")
)

// IsValidButtonKind checks if the given button kind is supported.
func IsValidButtonKind(b ButtonKind) bool {
	switch b {
	case ButtonAbout, ButtonCases, ButtonOther:
		return true
	default:
		return false
	}
}

// FormatTime encodes a timestamp in the canonical storage form.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime decodes a timestamp from the canonical storage form.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

// User is the aggregated per-user record. One row per distinct Telegram
// user, upserted on every interaction. TotalMessages equals the count of
// that user's Interaction rows; counters never decrease.
type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username,omitempty"`
	FirstName     string    `json:"first_name,omitempty"`
	LastName      string    `json:"last_name,omitempty"`
	FirstSeen     time.Time `json:"first_seen"`
	LastSeen      time.Time `json:"last_seen"`
	TotalMessages int64     `json:"total_messages"`
	AboutClicks   int64     `json:"about_clicks"`
	CasesClicks   int64     `json:"cases_clicks"`
}

// Interaction is one logged user event. Append-only; the basis for all
// time-windowed statistics.
type Interaction struct {
	ID     int64      `json:"id"`
	UserID int64      `json:"user_id"`
	Button ButtonKind `json:"button"`
	Time   time.Time  `json:"ts"`
}

// Application is a captured phone-number lead plus submitter identity,
// intended for manual follow-up. Append-only.
type Application struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate performs validation on an Application before it is stored.
func (a *Application) Validate() error {
	if a.UserID <= 0 {
		return ErrInvalidUserID
	}
	if a.Phone == "" {
		return ErrEmptyPhone
	}
	return nil
}

// MonthlyExportMark records that a month's statistics were already written
// to the export artifact. At most one mark per (year, month), enforced by
// a database uniqueness constraint.
type MonthlyExportMark struct {
	ID      int64     `json:"id"`
	Year    int       `json:"year"`
	Month   int       `json:"month"`
	SavedAt time.Time `json:"saved_at"`
}

// StatsSummary is the four-metric tuple returned by every stats query.
// Zero-valued when no data exists, never null.
type StatsSummary struct {
	Users         int64 `json:"users"`
	AboutClicks   int64 `json:"about_clicks"`
	CasesClicks   int64 `json:"cases_clicks"`
	TotalMessages int64 `json:"total_messages"`
}

// Sender identifies the author of an inbound message.
type Sender struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Contact is a shared-contact payload attached to an inbound message.
type Contact struct {
	PhoneNumber string `json:"phone_number"`
}

// IncomingMessage is a platform-neutral inbound chat event: a command,
// button-label text, free text, or a contact share.
type IncomingMessage struct {
	ChatID  int64     `json:"chat_id"`
	From    Sender    `json:"from"`
	Text    string    `json:"text,omitempty"`
	Command string    `json:"command,omitempty"`
	Contact *Contact  `json:"contact,omitempty"`
	Time    time.Time `json:"time"`
}
