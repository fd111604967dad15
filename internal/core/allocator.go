package core

import (
	"fmt"
	"math"
)

// EntryTemplate carries the fields shared by every split of one trip.
type EntryTemplate struct {
	VehicleID   string
	TripID      string
	Kind        EntryKind
	Category    Category
	Description string
	Source      string
}

// SplitAcrossMonths converts one trip's lump-sum earning into dated
// ledger entries, one per calendar month the trip touches. Entries are
// returned without IDs; persistence assigns them.
//
// A trip contained in a single calendar month yields exactly one entry
// with the unmodified amount. A trip spanning month boundaries is
// divided at a per-day rate: each month segment covers the civil days
// the trip spends in that month, except the final segment, whose day
// count is forced to tripDays minus the days already allocated so the
// day counts always sum to tripDays. Per-segment amounts are rounded
// to the cent; any rounding drift is added to the last segment, so the
// split amounts sum to total exactly.
func SplitAcrossMonths(start, end Date, total Money, tripDays int, base EntryTemplate) ([]LedgerEntry, error) {
	if start.IsZero() || end.IsZero() {
		return nil, ErrInvalidDate
	}
	if end.Before(start.Time) {
		return nil, ErrEndBeforeStart
	}
	if tripDays < 1 {
		return nil, ErrInvalidTripDuration
	}
	if total.Cents < 0 {
		return nil, ErrNegativeAmount
	}

	if start.SameMonth(end) {
		return []LedgerEntry{{
			VehicleID:   base.VehicleID,
			Kind:        base.Kind,
			Category:    base.Category,
			Amount:      total,
			Date:        start,
			TripEnd:     end,
			TripDays:    tripDays,
			TripID:      base.TripID,
			SplitIndex:  1,
			SplitTotal:  1,
			Description: base.Description,
			Source:      base.Source,
		}}, nil
	}

	dailyRate := float64(total.Cents) / float64(tripDays)

	var entries []LedgerEntry
	current := start
	allocated := 0
	for !current.After(end.Time) {
		segEnd := current.EndOfMonth()
		last := !segEnd.Before(end.Time)
		if last {
			segEnd = end
		}
		days := current.DaysUntil(segEnd) + 1
		if last {
			// Force the remainder so day counts sum to tripDays
			// even when calendar arithmetic drifts at a boundary.
			days = tripDays - allocated
		}
		entries = append(entries, LedgerEntry{
			VehicleID:   base.VehicleID,
			Kind:        base.Kind,
			Category:    base.Category,
			Amount:      Money{Cents: int64(math.Round(dailyRate * float64(days)))},
			Date:        current,
			TripEnd:     end,
			TripDays:    tripDays,
			TripID:      base.TripID,
			Description: fmt.Sprintf("%s (%d of %d days)", base.Description, days, tripDays),
			Source:      base.Source,
		})
		allocated += days
		current = current.FirstOfNextMonth()
	}

	for i := range entries {
		entries[i].SplitIndex = i + 1
		entries[i].SplitTotal = len(entries)
	}

	// Rounding drift from per-segment rounding lands on the last
	// segment so the splits sum exactly to the input lump sum.
	var sum int64
	for _, e := range entries {
		sum += e.Amount.Cents
	}
	if diff := total.Cents - sum; diff != 0 {
		entries[len(entries)-1].Amount.Cents += diff
	}

	return entries, nil
}

// TripDaySpan returns the inclusive day count of a trip date range:
// a same-day trip counts as one day.
func TripDaySpan(start, end Date) int {
	return start.DaysUntil(end) + 1
}
