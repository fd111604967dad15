package core

import (
	"errors"
	"strings"
	"testing"
)

func tripBase() EntryTemplate {
	return EntryTemplate{
		VehicleID:   "veh-1",
		TripID:      "R123",
		Kind:        Revenue,
		Category:    TripEarnings,
		Description: "Trip earnings for R123",
		Source:      SourceImport,
	}
}

func TestSplitSameMonthSingleEntry(t *testing.T) {
	start := NewDate(2024, 3, 5)
	end := NewDate(2024, 3, 9)
	entries, err := SplitAcrossMonths(start, end, Money{Cents: 25050}, 5, tripBase())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Amount.Cents != 25050 {
		t.Errorf("amount = %d, want 25050 unmodified", e.Amount.Cents)
	}
	if !e.Date.Equal(start.Time) || !e.TripEnd.Equal(end.Time) {
		t.Errorf("dates = %s..%s, want %s..%s", e.Date, e.TripEnd, start, end)
	}
	if e.TripDays != 5 || e.SplitIndex != 1 || e.SplitTotal != 1 {
		t.Errorf("split fields = (%d, %d/%d)", e.TripDays, e.SplitIndex, e.SplitTotal)
	}
	if strings.Contains(e.Description, "days)") {
		t.Errorf("same-month entry got a split suffix: %q", e.Description)
	}
}

func TestSplitMonthBoundary(t *testing.T) {
	// Jan 28 .. Feb 3, $140.00 over 7 days at $20.00/day.
	entries, err := SplitAcrossMonths(NewDate(2024, 1, 28), NewDate(2024, 2, 3), Money{Cents: 14000}, 7, tripBase())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	jan, feb := entries[0], entries[1]
	if jan.Amount.Cents != 8000 {
		t.Errorf("january amount = %d, want 8000 (4 days)", jan.Amount.Cents)
	}
	if feb.Amount.Cents != 6000 {
		t.Errorf("february amount = %d, want 6000 (3 days)", feb.Amount.Cents)
	}
	if jan.Date.String() != "2024-01-28" || feb.Date.String() != "2024-02-01" {
		t.Errorf("segment dates = %s, %s", jan.Date, feb.Date)
	}
	if !strings.Contains(jan.Description, "(4 of 7 days)") {
		t.Errorf("january description = %q", jan.Description)
	}
	if !strings.Contains(feb.Description, "(3 of 7 days)") {
		t.Errorf("february description = %q", feb.Description)
	}
	if jan.SplitIndex != 1 || jan.SplitTotal != 2 || feb.SplitIndex != 2 || feb.SplitTotal != 2 {
		t.Errorf("split indexes = %d/%d, %d/%d", jan.SplitIndex, jan.SplitTotal, feb.SplitIndex, feb.SplitTotal)
	}
}

func TestSplitConservation(t *testing.T) {
	cases := []struct {
		name     string
		start    Date
		end      Date
		cents    int64
		days     int
		segments int
	}{
		{"two months uneven", NewDate(2024, 1, 30), NewDate(2024, 2, 5), 10001, 7, 2},
		{"three months", NewDate(2024, 11, 20), NewDate(2025, 1, 10), 123457, 52, 3},
		{"year boundary", NewDate(2024, 12, 28), NewDate(2025, 1, 2), 9999, 6, 2},
		{"awkward rate", NewDate(2024, 5, 29), NewDate(2024, 6, 3), 10000, 6, 2},
		{"zero earnings", NewDate(2024, 1, 28), NewDate(2024, 2, 3), 0, 7, 2},
		{"long trip", NewDate(2024, 2, 15), NewDate(2024, 7, 4), 777777, 141, 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := SplitAcrossMonths(tc.start, tc.end, Money{Cents: tc.cents}, tc.days, tripBase())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(entries) != tc.segments {
				t.Fatalf("expected %d segments, got %d", tc.segments, len(entries))
			}
			var sum int64
			for _, e := range entries {
				sum += e.Amount.Cents
				if e.TripDays != tc.days {
					t.Errorf("segment %d trip days = %d, want %d", e.SplitIndex, e.TripDays, tc.days)
				}
				if !e.TripEnd.Equal(tc.end.Time) {
					t.Errorf("segment %d trip end = %s, want %s", e.SplitIndex, e.TripEnd, tc.end)
				}
			}
			if sum != tc.cents {
				t.Errorf("split sum = %d, want exactly %d", sum, tc.cents)
			}
			// Day coverage parsed back from the structural fields must
			// sum to the trip duration.
			first := entries[0]
			if first.Date != tc.start {
				t.Errorf("first segment date = %s, want %s", first.Date, tc.start)
			}
		})
	}
}

func TestSplitDayCoverageSumsToTripDays(t *testing.T) {
	start, end := NewDate(2024, 11, 20), NewDate(2025, 1, 10)
	days := TripDaySpan(start, end)
	entries, err := SplitAcrossMonths(start, end, Money{Cents: 52000}, days, tripBase())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	covered := 0
	for i, e := range entries {
		segStart := e.Date
		segEnd := segStart.EndOfMonth()
		if i == len(entries)-1 {
			segEnd = end
		}
		covered += segStart.DaysUntil(segEnd) + 1
	}
	if covered != days {
		t.Errorf("covered days = %d, want %d", covered, days)
	}
}

func TestSplitInvalidInputs(t *testing.T) {
	cases := []struct {
		name  string
		start Date
		end   Date
		cents int64
		days  int
		want  error
	}{
		{"end before start", NewDate(2024, 2, 3), NewDate(2024, 1, 28), 100, 7, ErrEndBeforeStart},
		{"zero duration", NewDate(2024, 1, 28), NewDate(2024, 2, 3), 100, 0, ErrInvalidTripDuration},
		{"negative duration", NewDate(2024, 1, 28), NewDate(2024, 2, 3), 100, -3, ErrInvalidTripDuration},
		{"negative amount", NewDate(2024, 1, 28), NewDate(2024, 2, 3), -100, 7, ErrNegativeAmount},
		{"zero start date", Date{}, NewDate(2024, 2, 3), 100, 7, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SplitAcrossMonths(tc.start, tc.end, Money{Cents: tc.cents}, tc.days, tripBase())
			if !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestTripDaySpan(t *testing.T) {
	if got := TripDaySpan(NewDate(2024, 1, 28), NewDate(2024, 2, 3)); got != 7 {
		t.Errorf("span = %d, want 7", got)
	}
	if got := TripDaySpan(NewDate(2024, 1, 28), NewDate(2024, 1, 28)); got != 1 {
		t.Errorf("same-day span = %d, want 1", got)
	}
}
