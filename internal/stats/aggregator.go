// Package stats computes engagement statistics over the store and performs
// the idempotent monthly export to the text artifact.
package stats

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gewog/LeadBot/internal/models"
	"github.com/gewog/LeadBot/internal/store"
)

// DefaultArtifactFileName is the default name of the export artifact in
// the state directory.
const DefaultArtifactFileName = "statistic.txt"

// DefaultWindowDays is the trailing window used by the admin stats button.
const DefaultWindowDays = 30

// reportSeparator is the fixed separator line of the export block.
var reportSeparator = strings.Repeat("=", 50)

// monthNames holds localized month names indexed by month-1.
var monthNames = [12]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

// Opts holds configuration applied via Option values.
type Opts struct {
	ArtifactPath string
	Now          func() time.Time
}

// Option configures an Aggregator.
type Option func(*Opts)

// WithArtifactPath sets the path of the append-only export artifact.
func WithArtifactPath(path string) Option {
	return func(o *Opts) { o.ArtifactPath = path }
}

// WithClock overrides the time source. For tests.
func WithClock(now func() time.Time) Option {
	return func(o *Opts) { o.Now = now }
}

// Aggregator computes all-time, trailing-window and calendar-month
// statistics and owns the monthly export critical section.
type Aggregator struct {
	store        store.Store
	artifactPath string
	now          func() time.Time
}

// NewAggregator creates an Aggregator over the given store.
func NewAggregator(st store.Store, opts ...Option) *Aggregator {
	cfg := Opts{
		ArtifactPath: DefaultArtifactFileName,
		Now:          time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Aggregator{store: st, artifactPath: cfg.ArtifactPath, now: cfg.Now}
}

// AllTimeStats returns the all-time summary from the users table.
func (a *Aggregator) AllTimeStats() (models.StatsSummary, error) {
	return a.store.AllTimeStats()
}

// WindowStats returns the summary for the trailing `days` days.
func (a *Aggregator) WindowStats(days int) (models.StatsSummary, error) {
	cutoff := a.now().UTC().AddDate(0, 0, -days)
	return a.store.StatsSince(cutoff)
}

// PeriodStats returns the summary for one calendar month, computed over
// [first instant of month, first instant of next month) in UTC.
func (a *Aggregator) PeriodStats(year, month int) (models.StatsSummary, error) {
	start, end := monthBounds(year, month)
	return a.store.StatsBetween(start, end)
}

// monthBounds returns the UTC half-open interval of a calendar month,
// rolling December over into January of the next year.
func monthBounds(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	var end time.Time
	if month == 12 {
		end = time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	} else {
		end = time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
	}
	return start, end
}

// ExportMonthIfUnmarked writes the month's report block to the artifact
// and records the export mark, unless the month was already exported.
// Returns true only when this call performed the export. The mark is
// inserted only after a successful append; the store's uniqueness
// constraint turns a lost race into a false return, not a duplicate block.
func (a *Aggregator) ExportMonthIfUnmarked(year, month int) (bool, error) {
	if month < 1 || month > 12 {
		return false, fmt.Errorf("invalid month %d", month)
	}

	marked, err := a.store.IsMonthMarked(year, month)
	if err != nil {
		return false, fmt.Errorf("failed to check export mark: %w", err)
	}
	if marked {
		slog.Debug("Aggregator export already recorded", "year", year, "month", month)
		return false, nil
	}

	sum, err := a.PeriodStats(year, month)
	if err != nil {
		return false, fmt.Errorf("failed to compute period stats: %w", err)
	}

	if err := a.appendToArtifact(FormatMonthlyReport(year, month, sum)); err != nil {
		return false, err
	}

	ok, err := a.store.TryMarkMonth(year, month, a.now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to record export mark: %w", err)
	}
	if !ok {
		// Another invocation marked the month between our check and insert.
		slog.Warn("Aggregator lost export race, month marked concurrently", "year", year, "month", month)
		return false, nil
	}

	slog.Info("Aggregator exported monthly stats", "year", year, "month", month, "artifact", a.artifactPath)
	return true, nil
}

// MaybeRunMonthlyExport exports the previous month's stats when today is
// the first calendar day of its month (UTC). Safe to call repeatedly; the
// export itself is idempotent.
func (a *Aggregator) MaybeRunMonthlyExport(today time.Time) error {
	today = today.UTC()
	if today.Day() != 1 {
		slog.Debug("Aggregator monthly export check: not first of month", "day", today.Day())
		return nil
	}

	prevYear, prevMonth := today.Year(), int(today.Month())-1
	if prevMonth == 0 {
		prevMonth = 12
		prevYear--
	}

	_, err := a.ExportMonthIfUnmarked(prevYear, prevMonth)
	return err
}

// appendToArtifact appends one report block to the artifact file, creating
// the file if needed. The artifact is never rewritten or truncated.
func (a *Aggregator) appendToArtifact(block string) error {
	f, err := os.OpenFile(a.artifactPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		slog.Error("Aggregator failed to open artifact", "error", err, "path", a.artifactPath)
		return fmt.Errorf("failed to open stats artifact %s: %w", a.artifactPath, err)
	}
	defer f.Close()

	if _, err := f.WriteString(block); err != nil {
		slog.Error("Aggregator failed to append to artifact", "error", err, "path", a.artifactPath)
		return fmt.Errorf("failed to append to stats artifact %s: %w", a.artifactPath, err)
	}
	return nil
}

// FormatMonthlyReport renders the fixed-layout export block for one month.
func FormatMonthlyReport(year, month int, sum models.StatsSummary) string {
	return fmt.Sprintf(
		"Статистика за %s %d года\n"+
			"%s\n"+
			"Пользователей взаимодействовало: %d\n"+
			"Нажатий «О нас»: %d\n"+
			"Нажатий «Кейсы»: %d\n"+
			"Всего сообщений: %d\n"+
			"%s\n\n",
		monthNames[month-1], year,
		reportSeparator,
		sum.Users,
		sum.AboutClicks,
		sum.CasesClicks,
		sum.TotalMessages,
		reportSeparator,
	)
}
