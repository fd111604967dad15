// Package importer turns uploaded CSV batches into ledger entries.
// Batches are partial-failure tolerant: a bad row is recorded in the
// report and the rest of the batch keeps going.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/yabdulhakim1/oakRentalsFin/internal/core"
	"github.com/yabdulhakim1/oakRentalsFin/internal/storage"
)

// Report summarizes one import batch.
type Report struct {
	Added   int        `json:"added"`
	Updated int        `json:"updated"`
	Skipped int        `json:"skipped"`
	Errors  []RowError `json:"errors,omitempty"`
}

type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (r *Report) fail(line int, err error) {
	r.Errors = append(r.Errors, RowError{Line: line, Message: err.Error()})
}

var tripHeader = []string{"trip id", "car name", "start date", "end date", "trip earnings", "trip expenses"}

type TripImporter struct {
	store storage.Store
}

func NewTripImporter(store storage.Store) *TripImporter {
	return &TripImporter{store: store}
}

// Import reads a trip CSV and upserts the resulting ledger entries.
// Re-importing the same trip updates in place instead of duplicating.
func (ti *TripImporter) Import(ctx context.Context, r io.Reader) (Report, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return Report{}, fmt.Errorf("read header: %w", err)
	}
	if err := checkHeader(header, tripHeader); err != nil {
		return Report{}, err
	}

	var report Report
	// Vehicle lookups repeat across rows of the same car.
	vehicleIDs := make(map[string]string)

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.fail(line, err)
			continue
		}
		if err := ti.importRow(ctx, row, vehicleIDs, &report); err != nil {
			report.fail(line, err)
		}
	}

	slog.InfoContext(ctx, "Trip import finished",
		"added", report.Added,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"errors", len(report.Errors))
	return report, nil
}

func (ti *TripImporter) importRow(ctx context.Context, row []string, vehicleIDs map[string]string, report *Report) error {
	if len(row) < len(tripHeader) {
		return fmt.Errorf("expected %d columns, got %d", len(tripHeader), len(row))
	}

	tripID := strings.TrimSpace(row[0])
	carName := strings.TrimSpace(row[1])
	if tripID == "" {
		return fmt.Errorf("missing trip id")
	}
	if carName == "" {
		return core.ErrEmptyVehicleName
	}

	start, err := core.ParseDate(strings.TrimSpace(row[2]))
	if err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	end, err := core.ParseDate(strings.TrimSpace(row[3]))
	if err != nil {
		return fmt.Errorf("end date: %w", err)
	}
	if end.Before(start.Time) {
		return core.ErrEndBeforeStart
	}

	earnings, err := core.ParseAmount(row[4])
	if err != nil {
		return fmt.Errorf("trip earnings: %w", err)
	}
	expenses, err := core.ParseAmount(row[5])
	if err != nil {
		return fmt.Errorf("trip expenses: %w", err)
	}

	vehicleID, ok := vehicleIDs[carName]
	if !ok {
		vehicleID, err = ti.resolveVehicle(ctx, carName, start)
		if err != nil {
			return err
		}
		vehicleIDs[carName] = vehicleID
	}

	tripDays := core.TripDaySpan(start, end)

	var fresh []core.LedgerEntry
	if earnings.Cents > 0 {
		splits, err := core.SplitAcrossMonths(start, end, earnings, tripDays, core.EntryTemplate{
			VehicleID:   vehicleID,
			TripID:      tripID,
			Kind:        core.Revenue,
			Category:    core.TripEarnings,
			Description: fmt.Sprintf("Trip %s earnings", tripID),
			Source:      core.SourceImport,
		})
		if err != nil {
			return err
		}
		fresh = append(fresh, splits...)
	}
	if expenses.Cents > 0 {
		fresh = append(fresh, core.LedgerEntry{
			VehicleID:   vehicleID,
			Kind:        core.Expense,
			Category:    core.Other,
			Amount:      expenses,
			Date:        start,
			TripEnd:     end,
			TripDays:    tripDays,
			TripID:      tripID,
			Description: fmt.Sprintf("Trip %s expenses", tripID),
			Source:      core.SourceImport,
		})
	}
	if len(fresh) == 0 {
		report.Skipped++
		return nil
	}

	return ti.upsertTrip(ctx, tripID, vehicleID, start, fresh, report)
}

// upsertTrip replaces a trip's previous entries when anything about
// them changed, so the split conservation invariant is re-established
// over the whole regenerated set.
func (ti *TripImporter) upsertTrip(ctx context.Context, tripID, vehicleID string, start core.Date, fresh []core.LedgerEntry, report *Report) error {
	existing, err := ti.store.FindTripEntries(ctx, tripID, vehicleID)
	if err != nil {
		return fmt.Errorf("find trip entries: %w", err)
	}
	if len(existing) == 0 {
		// Legacy entries predate trip ids; match by vehicle and date.
		byDate, err := ti.store.FindEntriesByVehicleAndDate(ctx, vehicleID, start)
		if err != nil {
			return fmt.Errorf("find entries by date: %w", err)
		}
		for _, e := range byDate {
			if !e.IsManual && e.TripID == "" {
				existing = append(existing, e)
			}
		}
	}

	if sameEntries(existing, fresh) {
		report.Skipped++
		return nil
	}

	for i := range fresh {
		fresh[i].ID = uuid.NewString()
	}

	if len(existing) > 0 {
		ids := make([]string, len(existing))
		for i, e := range existing {
			ids[i] = e.ID
		}
		if _, err := ti.store.DeleteEntries(ctx, ids); err != nil {
			return fmt.Errorf("replace trip entries: %w", err)
		}
	}
	if err := ti.store.SaveEntries(ctx, fresh); err != nil {
		return err
	}

	if len(existing) > 0 {
		report.Updated++
	} else {
		report.Added++
	}
	return nil
}

// resolveVehicle finds the car by exact name, then by license plate
// suffix, and finally auto-creates it so no trip row is lost to an
// unregistered vehicle.
func (ti *TripImporter) resolveVehicle(ctx context.Context, carName string, tripStart core.Date) (string, error) {
	v, err := ti.store.FindVehicleByName(ctx, carName)
	if err == nil {
		return v.ID, nil
	}

	if plate := core.PlateOf(carName); plate != "" {
		vehicles, err := ti.store.ListVehicles(ctx)
		if err != nil {
			return "", fmt.Errorf("list vehicles: %w", err)
		}
		for _, v := range vehicles {
			if core.PlateOf(v.Name) == plate {
				return v.ID, nil
			}
		}
	}

	created := core.Vehicle{
		ID:           uuid.NewString(),
		Name:         carName,
		Make:         "Unknown",
		Model:        "Unknown",
		Year:         tripStart.Year(),
		PurchaseDate: tripStart,
	}
	if err := ti.store.SaveVehicle(ctx, created); err != nil {
		return "", fmt.Errorf("auto-create vehicle: %w", err)
	}
	slog.InfoContext(ctx, "Vehicle auto-created during import", "name", carName, "id", created.ID)
	return created.ID, nil
}

// sameEntries compares without regard to order or ids: an entry
// matches on its kind, category, date, trip end and amount.
func sameEntries(existing, fresh []core.LedgerEntry) bool {
	if len(existing) != len(fresh) {
		return false
	}
	key := func(e core.LedgerEntry) string {
		return fmt.Sprintf("%s|%s|%s|%s|%d", e.Kind, e.Category, e.Date, e.TripEnd, e.Amount.Cents)
	}
	seen := make(map[string]int, len(existing))
	for _, e := range existing {
		seen[key(e)]++
	}
	for _, f := range fresh {
		k := key(f)
		if seen[k] == 0 {
			return false
		}
		seen[k]--
	}
	return true
}

func checkHeader(got, want []string) error {
	if len(got) < len(want) {
		return fmt.Errorf("expected %d header columns, got %d", len(want), len(got))
	}
	for i, w := range want {
		if !strings.EqualFold(strings.TrimSpace(got[i]), w) {
			return fmt.Errorf("header column %d: expected %q, got %q", i+1, w, strings.TrimSpace(got[i]))
		}
	}
	return nil
}
