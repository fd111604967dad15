package worker

import (
	"context"
	"testing"
	"time"

	"github.com/yabdulhakim1/oakRentalsFin/internal/amqp"
	"github.com/yabdulhakim1/oakRentalsFin/internal/core"
	"github.com/yabdulhakim1/oakRentalsFin/internal/export/memory"
	"github.com/yabdulhakim1/oakRentalsFin/internal/storage"
)

func seedStore(t *testing.T) *storage.MemoryStore {
	t.Helper()
	s := storage.NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	purchase, _ := core.ParseDate("2023-06-15")
	err := s.SaveVehicle(ctx, core.Vehicle{
		ID:            "v1",
		Name:          "Corolla (ABC123)",
		Make:          "Toyota",
		Model:         "Corolla",
		Year:          2020,
		PurchasePrice: core.Money{Cents: 1000000},
		PurchaseDate:  purchase,
	})
	if err != nil {
		t.Fatal(err)
	}

	d, _ := core.ParseDate("2024-03-10")
	err = s.SaveEntries(ctx, []core.LedgerEntry{{
		ID:        "e1",
		VehicleID: "v1",
		Kind:      core.Revenue,
		Category:  core.TripEarnings,
		Amount:    core.Money{Cents: 120000},
		Date:      d,
		Source:    core.SourceImport,
	}})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestExportOnce(t *testing.T) {
	s := seedStore(t)
	sink := memory.New()
	w := NewReportWorker(s, sink, time.Hour)
	w.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }

	if err := w.ExportOnce(context.Background()); err != nil {
		t.Fatal(err)
	}

	report, ok := sink.Last()
	if !ok {
		t.Fatal("expected a report")
	}
	if report.Year != 2024 {
		t.Errorf("expected year 2024, got %d", report.Year)
	}
	if len(report.Months) != 12 {
		t.Fatalf("expected 12 month buckets, got %d", len(report.Months))
	}
	if report.Months[2].TotalRevenue.Cents != 120000 {
		t.Errorf("march revenue wrong: %d", report.Months[2].TotalRevenue.Cents)
	}
	if report.Fleet.TotalRevenue.Cents != 120000 {
		t.Errorf("fleet revenue wrong: %d", report.Fleet.TotalRevenue.Cents)
	}

	if len(report.Vehicles) != 1 {
		t.Fatalf("expected 1 vehicle report, got %d", len(report.Vehicles))
	}
	roi := report.Vehicles[0].ROI
	// Jun 2023 purchase to Jun 2024 snapshot is 12 months owned.
	if roi.MonthsOwned != 12 {
		t.Errorf("expected 12 months owned, got %d", roi.MonthsOwned)
	}
	if roi.RentalProfit.Cents != 120000 {
		t.Errorf("rental profit wrong: %d", roi.RentalProfit.Cents)
	}
}

func TestHandleChangeMessageTriggersExport(t *testing.T) {
	s := seedStore(t)
	sink := memory.New()
	w := NewReportWorker(s, sink, time.Hour)

	msg := amqp.NewLedgerChangedMessage(amqp.OriginEntries)
	if err := w.HandleChangeMessage(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	if sink.Count() != 1 {
		t.Fatalf("expected 1 export, got %d", sink.Count())
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s := seedStore(t)
	sink := memory.New()
	w := NewReportWorker(s, sink, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := w.Run(ctx, nil); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
	if sink.Count() == 0 {
		t.Error("expected at least one periodic export")
	}
}
