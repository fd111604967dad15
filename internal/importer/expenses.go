package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yabdulhakim1/oakRentalsFin/internal/core"
	"github.com/yabdulhakim1/oakRentalsFin/internal/storage"
)

// ExpenseImporter reads the matrix-style expense sheet: the first
// header row names the category columns, "Month YYYY" rows set the
// month for the car rows below them, and each car row carries one
// amount per category column.
type ExpenseImporter struct {
	store storage.Store
}

func NewExpenseImporter(store storage.Store) *ExpenseImporter {
	return &ExpenseImporter{store: store}
}

func (ei *ExpenseImporter) Import(ctx context.Context, r io.Reader) (Report, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return Report{}, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return Report{}, fmt.Errorf("expected at least 2 header columns, got %d", len(header))
	}
	columns := make([]expenseColumn, 0, len(header)-1)
	for _, name := range header[1:] {
		columns = append(columns, classifyColumn(name))
	}

	var report Report
	var month core.Date

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.fail(line, err)
			continue
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}

		if m, ok := parseMonthLabel(row[0]); ok {
			month = m
			continue
		}

		if month.IsEmpty() {
			report.fail(line, fmt.Errorf("car row %q before any month row", strings.TrimSpace(row[0])))
			continue
		}
		if err := ei.importCarRow(ctx, line, row, columns, month, &report); err != nil {
			report.fail(line, err)
		}
	}

	slog.InfoContext(ctx, "Expense import finished",
		"added", report.Added,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"errors", len(report.Errors))
	return report, nil
}

func (ei *ExpenseImporter) importCarRow(ctx context.Context, line int, row []string, columns []expenseColumn, month core.Date, report *Report) error {
	carName := strings.TrimSpace(row[0])
	v, err := ei.store.FindVehicleByName(ctx, carName)
	if err != nil {
		if errors.Is(err, core.ErrUnknownVehicle) {
			return fmt.Errorf("unknown car %q", carName)
		}
		return err
	}

	existing, err := ei.store.FindEntriesByVehicleAndDate(ctx, v.ID, month)
	if err != nil {
		return fmt.Errorf("find existing entries: %w", err)
	}

	for i, col := range columns {
		cell := ""
		if i+1 < len(row) {
			cell = strings.TrimSpace(row[i+1])
		}
		if cell == "" {
			continue
		}

		amount, err := parseAbsoluteAmount(cell)
		if err != nil {
			report.fail(line, fmt.Errorf("%s %s for %q: %w", month, col.label, carName, err))
			continue
		}
		if amount.Cents == 0 {
			continue
		}

		entry := core.LedgerEntry{
			ID:          uuid.NewString(),
			VehicleID:   v.ID,
			Kind:        col.kind,
			Category:    col.category,
			Amount:      amount,
			Date:        month,
			Description: fmt.Sprintf("%s - %s", col.label, month.Time.Format("January 2006")),
			Source:      core.SourceImport,
		}

		if prev, ok := matchImported(existing, col.kind, col.category); ok {
			if prev.Amount == amount {
				report.Skipped++
				continue
			}
			entry.ID = prev.ID
			if err := ei.store.SaveEntries(ctx, []core.LedgerEntry{entry}); err != nil {
				return err
			}
			report.Updated++
			continue
		}

		if err := ei.store.SaveEntries(ctx, []core.LedgerEntry{entry}); err != nil {
			return err
		}
		report.Added++
	}
	return nil
}

type expenseColumn struct {
	label    string
	kind     core.EntryKind
	category core.Category
}

// classifyColumn maps a header label onto a ledger kind and category.
// An insurance payout is recognized as revenue, everything else is an
// expense bucket keyed off the label.
func classifyColumn(name string) expenseColumn {
	label := strings.TrimSpace(name)
	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "insurance claim"):
		return expenseColumn{label: label, kind: core.Revenue, category: core.InsuranceClaim}
	case strings.Contains(lower, "maintenance") || strings.Contains(lower, "repair"):
		return expenseColumn{label: label, kind: core.Expense, category: core.Maintenance}
	case strings.Contains(lower, "insurance"):
		return expenseColumn{label: label, kind: core.Expense, category: core.Insurance}
	default:
		return expenseColumn{label: label, kind: core.Expense, category: core.Other}
	}
}

// parseMonthLabel recognizes "January 2024" style row markers.
func parseMonthLabel(cell string) (core.Date, bool) {
	t, err := time.Parse("January 2006", strings.TrimSpace(cell))
	if err != nil {
		return core.Date{}, false
	}
	return core.NewDate(t.Year(), int(t.Month()), 1), true
}

// parseAbsoluteAmount stores the magnitude: the sheet records expenses
// as negatives or parenthesized values depending on who exported it.
func parseAbsoluteAmount(s string) (core.Money, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
	}
	s = strings.TrimPrefix(s, "-")
	return core.ParseAmount(s)
}

func matchImported(existing []core.LedgerEntry, kind core.EntryKind, category core.Category) (core.LedgerEntry, bool) {
	for _, e := range existing {
		if !e.IsManual && e.TripID == "" && e.Kind == kind && e.Category == category {
			return e, true
		}
	}
	return core.LedgerEntry{}, false
}
