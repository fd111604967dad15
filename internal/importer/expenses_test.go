package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/yabdulhakim1/oakRentalsFin/internal/core"
)

const expenseCSV = `Car,Maintenance,Insurance,Insurance Claim,Other
January 2024
Corolla (ABC123),120.50,-80.00,,15.00
February 2024
Corolla (ABC123),,(80.00),500.00,
`

func TestExpenseImportMatrix(t *testing.T) {
	s, vid := newStoreWithVehicle(t, "Corolla (ABC123)")
	ei := NewExpenseImporter(s)
	ctx := context.Background()

	report, err := ei.Import(ctx, strings.NewReader(expenseCSV))
	if err != nil {
		t.Fatal(err)
	}
	if report.Added != 5 || len(report.Errors) != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	entries, _ := s.ListEntries(ctx)
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}

	byKey := map[string]core.LedgerEntry{}
	for _, e := range entries {
		if e.VehicleID != vid {
			t.Fatalf("entry on wrong vehicle: %+v", e)
		}
		byKey[e.Date.String()+"/"+string(e.Category)] = e
	}

	jan := byKey["2024-01-01/maintenance"]
	if jan.Amount.Cents != 12050 || jan.Kind != core.Expense {
		t.Errorf("january maintenance wrong: %+v", jan)
	}

	// Negative and parenthesized amounts are stored as magnitudes.
	if byKey["2024-01-01/insurance"].Amount.Cents != 8000 {
		t.Errorf("negative amount not stored absolute: %+v", byKey["2024-01-01/insurance"])
	}
	if byKey["2024-02-01/insurance"].Amount.Cents != 8000 {
		t.Errorf("parenthesized amount not stored absolute: %+v", byKey["2024-02-01/insurance"])
	}

	claim := byKey["2024-02-01/insurance_claim"]
	if claim.Kind != core.Revenue || claim.Amount.Cents != 50000 {
		t.Errorf("insurance claim should be revenue: %+v", claim)
	}
}

func TestExpenseImportIdempotent(t *testing.T) {
	s, _ := newStoreWithVehicle(t, "Corolla (ABC123)")
	ei := NewExpenseImporter(s)
	ctx := context.Background()

	if _, err := ei.Import(ctx, strings.NewReader(expenseCSV)); err != nil {
		t.Fatal(err)
	}
	report, err := ei.Import(ctx, strings.NewReader(expenseCSV))
	if err != nil {
		t.Fatal(err)
	}
	if report.Skipped != 5 || report.Added != 0 || report.Updated != 0 {
		t.Fatalf("re-import should skip unchanged rows: %+v", report)
	}

	entries, _ := s.ListEntries(ctx)
	if len(entries) != 5 {
		t.Fatalf("re-import duplicated entries: got %d", len(entries))
	}
}

func TestExpenseImportUpdatesChangedAmount(t *testing.T) {
	s, _ := newStoreWithVehicle(t, "Corolla (ABC123)")
	ei := NewExpenseImporter(s)
	ctx := context.Background()

	first := "Car,Maintenance\nJanuary 2024\nCorolla (ABC123),100.00\n"
	if _, err := ei.Import(ctx, strings.NewReader(first)); err != nil {
		t.Fatal(err)
	}

	second := "Car,Maintenance\nJanuary 2024\nCorolla (ABC123),150.00\n"
	report, err := ei.Import(ctx, strings.NewReader(second))
	if err != nil {
		t.Fatal(err)
	}
	if report.Updated != 1 {
		t.Fatalf("expected update, got %+v", report)
	}

	entries, _ := s.ListEntries(ctx)
	if len(entries) != 1 || entries[0].Amount.Cents != 15000 {
		t.Fatalf("expected single updated entry at 15000, got %+v", entries)
	}
}

func TestExpenseImportUnknownCar(t *testing.T) {
	s, _ := newStoreWithVehicle(t, "Corolla (ABC123)")
	ei := NewExpenseImporter(s)

	csv := "Car,Maintenance\nJanuary 2024\nGhost Car,100.00\nCorolla (ABC123),50.00\n"
	report, err := ei.Import(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0].Message, "Ghost Car") {
		t.Fatalf("expected unknown-car row error, got %+v", report.Errors)
	}
	if report.Added != 1 {
		t.Errorf("good row should still land: %+v", report)
	}
}

func TestExpenseImportRowBeforeMonth(t *testing.T) {
	s, _ := newStoreWithVehicle(t, "Corolla (ABC123)")
	ei := NewExpenseImporter(s)

	csv := "Car,Maintenance\nCorolla (ABC123),100.00\n"
	report, err := ei.Import(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("expected error for car row before month row, got %+v", report)
	}
}
