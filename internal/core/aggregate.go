package core

import "fmt"

type (
	// Window bounds the entries considered by the fleet and monthly
	// queries. SelectedYear of zero means "use the explicit Start/End
	// bounds"; any other value filters by calendar year and ignores
	// the bounds.
	Window struct {
		SelectedYear int
		Start        Date
		End          Date
	}

	FleetStats struct {
		TotalRevenue  Money
		TotalExpenses Money
		Profit        Money
	}

	// MonthStats is one of the twelve fixed monthly buckets. Month is
	// the zero-based calendar month index (0 = January).
	MonthStats struct {
		Month         int
		TotalRevenue  Money
		TotalExpenses Money
		Profit        Money
	}

	// ROI is the lifetime ownership economics of a single vehicle.
	ROI struct {
		TotalRevenue  Money
		TotalExpenses Money
		RentalProfit  Money
		PurchasePrice Money
		SalePrice     Money
		MonthsOwned   int
		TotalProfit   Money
		TotalROI      float64 // percent
		MonthlyROI    float64 // percent, ownership-duration weighted
		Status        string
	}
)

// YearWindow returns a window selecting one calendar year.
func YearWindow(year int) Window {
	return Window{
		SelectedYear: year,
		Start:        NewDate(year, 1, 1),
		End:          NewDate(year, 12, 31),
	}
}

// Contains reports whether d falls inside the effective window. Bounds
// are inclusive and compared at UTC midnight.
func (w Window) Contains(d Date) bool {
	if w.SelectedYear != 0 {
		return d.Year() == w.SelectedYear
	}
	return !d.Before(w.Start.Time) && !d.After(w.End.Time)
}

// CountsAsRevenue reports whether the entry contributes to revenue
// totals. Kind and category gate jointly: only trip earnings and
// insurance claims count.
func (e LedgerEntry) CountsAsRevenue() bool {
	return e.Kind == Revenue && (e.Category == TripEarnings || e.Category == InsuranceClaim)
}

// CountsAsExpense reports whether the entry contributes to expense
// totals. Every expense-kind entry counts regardless of category.
func (e LedgerEntry) CountsAsExpense() bool {
	return e.Kind == Expense
}

// included applies the shared inclusion rule and records the entry id
// in seen. An id already present contributes nothing: duplicated
// snapshot rows count once per query execution.
func included(e LedgerEntry, selected, excluded map[string]bool, w Window, seen map[string]bool) bool {
	if seen[e.ID] {
		return false
	}
	if selected != nil && !selected[e.VehicleID] {
		return false
	}
	if excluded[e.VehicleID] {
		return false
	}
	if !w.Contains(e.Date) {
		return false
	}
	seen[e.ID] = true
	return true
}

// selectionSet returns nil for an empty selection: nil means every
// vehicle is selected.
func selectionSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func excludedSet(vehicles []Vehicle) map[string]bool {
	set := make(map[string]bool)
	for _, v := range vehicles {
		if v.ExcludedFromAggregates {
			set[v.ID] = true
		}
	}
	return set
}

// FleetTotals sums revenue and expenses over the selected vehicles'
// entries inside the window. An empty selection means the whole fleet.
func FleetTotals(entries []LedgerEntry, vehicles []Vehicle, selected []string, w Window) FleetStats {
	sel := selectionSet(selected)
	excl := excludedSet(vehicles)
	seen := make(map[string]bool, len(entries))

	var stats FleetStats
	for _, e := range entries {
		if !included(e, sel, excl, w, seen) {
			continue
		}
		switch {
		case e.CountsAsRevenue():
			stats.TotalRevenue.Cents += e.Amount.Cents
		case e.CountsAsExpense():
			stats.TotalExpenses.Cents += e.Amount.Cents
		}
	}
	stats.Profit.Cents = stats.TotalRevenue.Cents - stats.TotalExpenses.Cents
	return stats
}

// MonthlyTotals buckets the included entries into the twelve calendar
// months (UTC). All twelve buckets are always present, zero-filled
// where no entries landed.
func MonthlyTotals(entries []LedgerEntry, vehicles []Vehicle, selected []string, w Window) []MonthStats {
	sel := selectionSet(selected)
	excl := excludedSet(vehicles)
	seen := make(map[string]bool, len(entries))

	months := make([]MonthStats, 12)
	for i := range months {
		months[i].Month = i
	}
	for _, e := range entries {
		if !included(e, sel, excl, w, seen) {
			continue
		}
		m := e.Date.Month() - 1
		switch {
		case e.CountsAsRevenue():
			months[m].TotalRevenue.Cents += e.Amount.Cents
		case e.CountsAsExpense():
			months[m].TotalExpenses.Cents += e.Amount.Cents
		}
		months[m].Profit.Cents = months[m].TotalRevenue.Cents - months[m].TotalExpenses.Cents
	}
	return months
}

// CarROI computes lifetime ownership economics for one vehicle. It
// ignores any time window: every entry belonging to the vehicle
// counts. Requesting an unknown vehicle id is an error; callers
// iterating a known registry should pre-validate.
func CarROI(vehicleID string, vehicles []Vehicle, entries []LedgerEntry, today Date) (ROI, error) {
	var vehicle *Vehicle
	for i := range vehicles {
		if vehicles[i].ID == vehicleID {
			vehicle = &vehicles[i]
			break
		}
	}
	if vehicle == nil {
		return ROI{}, fmt.Errorf("vehicle %q: %w", vehicleID, ErrUnknownVehicle)
	}

	seen := make(map[string]bool)
	var revenue, expenses int64
	for _, e := range entries {
		if e.VehicleID != vehicleID || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		switch {
		case e.CountsAsRevenue():
			revenue += e.Amount.Cents
		case e.CountsAsExpense():
			expenses += e.Amount.Cents
		}
	}

	rentalProfit := revenue - expenses

	monthsOwned := 0
	if !vehicle.PurchaseDate.IsZero() {
		end := today
		if !vehicle.SaleDate.IsZero() {
			end = vehicle.SaleDate
		}
		monthsOwned = monthsBetween(vehicle.PurchaseDate, end)
	}

	saleCents := vehicle.SalePrice.Cents
	totalProfit := rentalProfit + (saleCents - vehicle.PurchasePrice.Cents)

	var totalROI, monthlyROI float64
	if vehicle.PurchasePrice.Cents > 0 {
		totalROI = float64(totalProfit) / float64(vehicle.PurchasePrice.Cents) * 100
	}
	if monthsOwned > 0 {
		monthlyROI = totalROI / float64(monthsOwned)
	}

	return ROI{
		TotalRevenue:  Money{Cents: revenue},
		TotalExpenses: Money{Cents: expenses},
		RentalProfit:  Money{Cents: rentalProfit},
		PurchasePrice: vehicle.PurchasePrice,
		SalePrice:     vehicle.SalePrice,
		MonthsOwned:   monthsOwned,
		TotalProfit:   Money{Cents: totalProfit},
		TotalROI:      totalROI,
		MonthlyROI:    monthlyROI,
		Status:        vehicle.Status(),
	}, nil
}

// monthsBetween counts whole calendar months from one date to another,
// rounding a partial final month down.
func monthsBetween(from, to Date) int {
	months := (to.Year()-from.Year())*12 + (to.Month() - from.Month())
	if to.Day() < from.Day() {
		months--
	}
	return months
}
