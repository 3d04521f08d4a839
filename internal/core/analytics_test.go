package core

import (
	"testing"
	"time"
)

func exp(date string, cents int64, desc string) Expense {
	d, _ := ParseDate(date)
	return Expense{Date: d, Description: desc, Amount: Money{Cents: cents}}
}

// Wednesday, October 15th 2025.
var refTime = time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)

func TestFilterByRange(t *testing.T) {
	expenses := []Expense{
		exp("2025-09-30", 100, "last month"),
		exp("2025-10-01", 200, "first"),
		exp("2025-10-15", 300, "today"),
		exp("2025-10-20", 400, "future"),
		{Description: "no date", Amount: Money{Cents: 500}}, // zero date, skipped
	}

	tests := []struct {
		name string
		w    Window
		want int
	}{
		{
			name: "unbounded excludes future and zero dates",
			w:    Window{},
			want: 3,
		},
		{
			name: "explicit end includes future records",
			w:    Window{End: NewDate(2025, 10, 31)},
			want: 4,
		},
		{
			name: "start bound drops earlier records",
			w:    Window{Start: NewDate(2025, 10, 1)},
			want: 2,
		},
		{
			name: "closed range",
			w:    Window{Start: NewDate(2025, 10, 1), End: NewDate(2025, 10, 15)},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByRange(expenses, tt.w, refTime)
			if len(got) != tt.want {
				t.Errorf("FilterByRange() returned %d records, want %d", len(got), tt.want)
			}
		})
	}
}

func TestFilterByMonth(t *testing.T) {
	expenses := []Expense{
		exp("2025-09-28", 100, "september"),
		exp("2025-10-02", 200, "early"),
		exp("2025-10-15", 300, "today"),
		exp("2025-10-28", 400, "later this month"),
		exp("2025-11-01", 500, "november"),
	}

	got := FilterByMonth(expenses, refTime, true)
	if len(got) != 2 {
		t.Fatalf("excludeFuture: got %d records, want 2", len(got))
	}

	got = FilterByMonth(expenses, refTime, false)
	if len(got) != 3 {
		t.Fatalf("full month: got %d records, want 3", len(got))
	}
}

func TestFilterByWeek(t *testing.T) {
	// Week of Oct 13 (Monday) through Oct 19 (Sunday).
	expenses := []Expense{
		exp("2025-10-12", 100, "sunday before"),
		exp("2025-10-13", 200, "monday"),
		exp("2025-10-15", 300, "wednesday"),
		exp("2025-10-17", 400, "friday"),
		exp("2025-10-20", 500, "next monday"),
	}

	got := FilterByWeek(expenses, refTime, true)
	if len(got) != 2 {
		t.Fatalf("excludeFuture: got %d records, want 2", len(got))
	}

	got = FilterByWeek(expenses, refTime, false)
	if len(got) != 3 {
		t.Fatalf("full week: got %d records, want 3", len(got))
	}
}

func TestDayProgress(t *testing.T) {
	day, total := DayProgress(refTime)
	if day != 15 || total != 31 {
		t.Errorf("DayProgress() = (%d, %d), want (15, 31)", day, total)
	}

	day, total = DayProgress(time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC))
	if day != 28 || total != 28 {
		t.Errorf("DayProgress(feb) = (%d, %d), want (28, 28)", day, total)
	}
}

func TestWeekProgress(t *testing.T) {
	tests := []struct {
		name        string
		now         time.Time
		wantPrecise float64
		wantTotal   int
	}{
		{"first day", time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), 1.0, 5},
		{"day eight starts week two", time.Date(2025, 10, 8, 0, 0, 0, 0, time.UTC), 2.0, 5},
		{"mid week decimal", time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC), 2.2, 5},
		{"exact four weeks", time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), 4.6, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			precise, total := WeekProgress(tt.now)
			if precise != tt.wantPrecise || total != tt.wantTotal {
				t.Errorf("WeekProgress() = (%v, %d), want (%v, %d)",
					precise, total, tt.wantPrecise, tt.wantTotal)
			}
		})
	}
}

func TestDailyAverage(t *testing.T) {
	expenses := []Expense{
		exp("2025-10-01", 3000, "a"),
		exp("2025-10-10", 1500, "b"),
		exp("2025-10-20", 9999, "future, excluded"),
		exp("2025-09-15", 500, "other month"),
	}

	avg, days := DailyAverage(expenses, refTime)
	if days != 15 {
		t.Fatalf("days elapsed = %d, want 15", days)
	}
	// 4500 / 15 = 300
	if avg.Cents != 300 {
		t.Errorf("DailyAverage() = %d cents, want 300", avg.Cents)
	}

	avg, days = DailyAverage(nil, refTime)
	if avg.Cents != 0 || days != 0 {
		t.Errorf("empty list: got (%d, %d), want (0, 0)", avg.Cents, days)
	}
}

func TestWeeklyAverage(t *testing.T) {
	expenses := []Expense{
		exp("2025-10-01", 3000, "a"),
		exp("2025-10-14", 3000, "b"),
	}

	// Day 15 is in week 3: 6000 / 3 = 2000.
	avg, weeks := WeeklyAverage(expenses, refTime)
	if weeks != 3 {
		t.Fatalf("weeks elapsed = %d, want 3", weeks)
	}
	if avg.Cents != 2000 {
		t.Errorf("WeeklyAverage() = %d cents, want 2000", avg.Cents)
	}
}

func TestWeeklyPace(t *testing.T) {
	expenses := []Expense{
		exp("2025-10-13", 600, "monday"),
		exp("2025-10-14", 600, "tuesday"),
		exp("2025-10-12", 9999, "previous week"),
	}

	// Wednesday: 3 days elapsed, 1200 / 3 = 400.
	pace, days := WeeklyPace(expenses, refTime)
	if days != 3 {
		t.Fatalf("days elapsed = %d, want 3", days)
	}
	if pace.Cents != 400 {
		t.Errorf("WeeklyPace() = %d cents, want 400", pace.Cents)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name      string
		amounts   []int64
		wantCents int64
		wantCount int
	}{
		{"odd count", []int64{100, 300, 200}, 200, 3},
		{"even count averages middle pair", []int64{100, 200, 300, 400}, 250, 4},
		{"half cent rounds up", []int64{100, 101}, 101, 2},
		{"single", []int64{750}, 750, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var expenses []Expense
			for _, c := range tt.amounts {
				expenses = append(expenses, exp("2025-10-10", c, "x"))
			}
			got, count := Median(expenses, refTime)
			if got.Cents != tt.wantCents || count != tt.wantCount {
				t.Errorf("Median() = (%d, %d), want (%d, %d)",
					got.Cents, count, tt.wantCents, tt.wantCount)
			}
		})
	}

	if m, n := Median(nil, refTime); m.Cents != 0 || n != 0 {
		t.Errorf("empty list: got (%d, %d), want (0, 0)", m.Cents, n)
	}
}

func TestLargest(t *testing.T) {
	expenses := []Expense{
		exp("2025-10-01", 500, "coffee"),
		exp("2025-10-10", 12000, "rent share"),
		exp("2025-10-20", 99999, "future, excluded"),
	}

	amount, desc := Largest(expenses, refTime)
	if amount.Cents != 12000 || desc != "rent share" {
		t.Errorf("Largest() = (%d, %q), want (12000, \"rent share\")", amount.Cents, desc)
	}

	amount, desc = Largest(nil, refTime)
	if amount.Cents != 0 || desc != "No expenses" {
		t.Errorf("empty list: got (%d, %q)", amount.Cents, desc)
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name     string
		current  int64
		previous int64
		wantDir  TrendDirection
		wantNil  bool
	}{
		{"no previous data", 5000, 0, "", true},
		{"spending more", 13000, 10000, TrendIncrease, false},
		{"spending less", 7000, 10000, TrendDecrease, false},
		{"within threshold", 10400, 10000, TrendSimilar, false},
		{"exactly equal", 10000, 10000, TrendSimilar, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Trend(Money{Cents: tt.current}, Money{Cents: tt.previous})
			if tt.wantNil {
				if got != nil {
					t.Fatalf("Trend() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Trend() = nil, want indicator")
			}
			if got.Direction != tt.wantDir {
				t.Errorf("direction = %s, want %s", got.Direction, tt.wantDir)
			}
			if got.Percentage < 0 {
				t.Errorf("percentage must be positive, got %v", got.Percentage)
			}
		})
	}
}

func TestTrendPercentage(t *testing.T) {
	got := Trend(Money{Cents: 13000}, Money{Cents: 10000})
	if got == nil {
		t.Fatal("Trend() = nil")
	}
	if got.Percentage != 30.0 {
		t.Errorf("percentage = %v, want 30.0", got.Percentage)
	}
	if got.Symbol != "▲" || got.Color != "#C00000" {
		t.Errorf("unexpected styling: %+v", got)
	}
}

func TestContextDate(t *testing.T) {
	// Current month uses the wall clock.
	got := ContextDate(MonthKey("2025-10"), refTime)
	if !got.Equal(refTime) {
		t.Errorf("current month context = %v, want %v", got, refTime)
	}

	// Archive months use their last day.
	got = ContextDate(MonthKey("2025-09"), refTime)
	want := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("archive context = %v, want %v", got, want)
	}

	got = ContextDate(MonthKey("2024-02"), refTime)
	want = time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("leap year context = %v, want %v", got, want)
	}
}
