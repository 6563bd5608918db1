package stats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gewog/LeadBot/internal/models"
	"github.com/gewog/LeadBot/internal/store"
)

func newTestAggregator(t *testing.T, now time.Time) (*Aggregator, *store.InMemoryStore, string) {
	t.Helper()
	st := store.NewInMemoryStore()
	artifact := filepath.Join(t.TempDir(), "statistic.txt")
	agg := NewAggregator(st,
		WithArtifactPath(artifact),
		WithClock(func() time.Time { return now }),
	)
	return agg, st, artifact
}

func record(t *testing.T, st *store.InMemoryStore, userID int64, button models.ButtonKind, ts time.Time) {
	t.Helper()
	if err := st.RecordInteraction(models.User{ID: userID}, button, ts); err != nil {
		t.Fatalf("RecordInteraction failed: %v", err)
	}
}

func TestAllTimeStatsEmpty(t *testing.T) {
	agg, _, _ := newTestAggregator(t, time.Now())
	sum, err := agg.AllTimeStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum != (models.StatsSummary{}) {
		t.Errorf("expected zero summary, got %+v", sum)
	}
}

func TestWindowStats(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	agg, st, _ := newTestAggregator(t, now)

	record(t, st, 1, models.ButtonAbout, now.AddDate(0, 0, -31)) // outside window
	record(t, st, 2, models.ButtonCases, now.AddDate(0, 0, -10))
	record(t, st, 2, models.ButtonOther, now.AddDate(0, 0, -1))

	sum, err := agg.WindowStats(30)
	if err != nil {
		t.Fatalf("WindowStats failed: %v", err)
	}
	want := models.StatsSummary{Users: 1, AboutClicks: 0, CasesClicks: 1, TotalMessages: 2}
	if sum != want {
		t.Errorf("WindowStats(30) = %+v, want %+v", sum, want)
	}
}

func TestPeriodStatsPartition(t *testing.T) {
	agg, st, _ := newTestAggregator(t, time.Now())

	aprilStart := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	record(t, st, 1, models.ButtonOther, aprilStart.Add(-time.Second)) // March
	record(t, st, 2, models.ButtonOther, aprilStart)                   // exactly at boundary: April
	record(t, st, 3, models.ButtonOther, aprilStart.Add(time.Hour))    // April

	march, err := agg.PeriodStats(2025, 3)
	if err != nil {
		t.Fatalf("PeriodStats failed: %v", err)
	}
	april, err := agg.PeriodStats(2025, 4)
	if err != nil {
		t.Fatalf("PeriodStats failed: %v", err)
	}
	if march.TotalMessages != 1 {
		t.Errorf("march total = %d, want 1", march.TotalMessages)
	}
	if april.TotalMessages != 2 {
		t.Errorf("april total = %d, want 2", april.TotalMessages)
	}
}

func TestPeriodStatsDecemberRollover(t *testing.T) {
	agg, st, _ := newTestAggregator(t, time.Now())

	record(t, st, 1, models.ButtonOther, time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC))
	record(t, st, 2, models.ButtonOther, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	december, err := agg.PeriodStats(2024, 12)
	if err != nil {
		t.Fatalf("PeriodStats failed: %v", err)
	}
	if december.TotalMessages != 1 {
		t.Errorf("december total = %d, want 1", december.TotalMessages)
	}
}

func TestExportMonthIfUnmarkedIdempotent(t *testing.T) {
	now := time.Date(2025, 8, 1, 0, 5, 0, 0, time.UTC)
	agg, st, artifact := newTestAggregator(t, now)

	record(t, st, 1, models.ButtonAbout, time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC))
	record(t, st, 2, models.ButtonCases, time.Date(2025, 7, 20, 9, 0, 0, 0, time.UTC))

	ok, err := agg.ExportMonthIfUnmarked(2025, 7)
	if err != nil {
		t.Fatalf("first export failed: %v", err)
	}
	if !ok {
		t.Fatal("first export returned false")
	}

	data, err := os.ReadFile(artifact)
	if err != nil {
		t.Fatalf("failed to read artifact: %v", err)
	}
	first := string(data)
	if !strings.Contains(first, "Статистика за Июль 2025 года") {
		t.Errorf("artifact missing report header:\n%s", first)
	}
	if got := strings.Count(first, strings.Repeat("=", 50)); got != 2 {
		t.Errorf("artifact has %d separator lines, want 2", got)
	}
	if !strings.Contains(first, "Пользователей взаимодействовало: 2") ||
		!strings.Contains(first, "Нажатий «О нас»: 1") ||
		!strings.Contains(first, "Нажатий «Кейсы»: 1") ||
		!strings.Contains(first, "Всего сообщений: 2") {
		t.Errorf("artifact metrics wrong:\n%s", first)
	}

	ok, err = agg.ExportMonthIfUnmarked(2025, 7)
	if err != nil {
		t.Fatalf("second export failed: %v", err)
	}
	if ok {
		t.Error("second export returned true, expected false")
	}
	data, err = os.ReadFile(artifact)
	if err != nil {
		t.Fatalf("failed to re-read artifact: %v", err)
	}
	if string(data) != first {
		t.Error("second export appended to the artifact")
	}
}

func TestExportMarkOnlyAfterAppend(t *testing.T) {
	now := time.Date(2025, 8, 1, 0, 5, 0, 0, time.UTC)
	st := store.NewInMemoryStore()
	// Artifact path points into a missing directory so the append fails.
	agg := NewAggregator(st,
		WithArtifactPath(filepath.Join(t.TempDir(), "missing", "statistic.txt")),
		WithClock(func() time.Time { return now }),
	)

	if _, err := agg.ExportMonthIfUnmarked(2025, 7); err == nil {
		t.Fatal("expected append failure")
	}
	marked, err := st.IsMonthMarked(2025, 7)
	if err != nil {
		t.Fatalf("IsMonthMarked failed: %v", err)
	}
	if marked {
		t.Error("month marked even though the artifact append failed")
	}
}

func TestMaybeRunMonthlyExport(t *testing.T) {
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	agg, st, artifact := newTestAggregator(t, now)
	record(t, st, 1, models.ButtonOther, time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC))

	// Not the first of the month: no-op.
	if err := agg.MaybeRunMonthlyExport(time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(artifact); !os.IsNotExist(err) {
		t.Fatal("artifact written on a non-boundary day")
	}

	// January 1st exports December of the previous year.
	if err := agg.MaybeRunMonthlyExport(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(artifact)
	if err != nil {
		t.Fatalf("failed to read artifact: %v", err)
	}
	if !strings.Contains(string(data), "Статистика за Декабрь 2024 года") {
		t.Errorf("expected December 2024 report, got:\n%s", string(data))
	}
	marks := st.ListMarks()
	if len(marks) != 1 || marks[0].Year != 2024 || marks[0].Month != 12 {
		t.Errorf("unexpected export marks: %+v", marks)
	}
}

func TestFormatMonthlyReportLayout(t *testing.T) {
	got := FormatMonthlyReport(2025, 2, models.StatsSummary{Users: 3, AboutClicks: 1, CasesClicks: 2, TotalMessages: 7})
	want := "Статистика за Февраль 2025 года\n" +
		strings.Repeat("=", 50) + "\n" +
		"Пользователей взаимодействовало: 3\n" +
		"Нажатий «О нас»: 1\n" +
		"Нажатий «Кейсы»: 2\n" +
		"Всего сообщений: 7\n" +
		strings.Repeat("=", 50) + "\n\n"
	if got != want {
		t.Errorf("report layout mismatch:\ngot:\n%q\nwant:\n%q", got, want)
	}
}
