package services

import (
	"context"
	"errors"
	"testing"

	"github.com/yabdulhakim1/oakRentalsFin/internal/core"
	"github.com/yabdulhakim1/oakRentalsFin/internal/storage"
)

type fakePublisher struct {
	origins []string
	err     error
}

func (f *fakePublisher) PublishLedgerChanged(_ context.Context, origin string) error {
	f.origins = append(f.origins, origin)
	return f.err
}

func newService(t *testing.T) (*LedgerService, *fakePublisher) {
	t.Helper()
	store := storage.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	pub := &fakePublisher{}
	return NewLedgerService(store, pub), pub
}

func mustCreateVehicle(t *testing.T, s *LedgerService, name string) core.Vehicle {
	t.Helper()
	v, err := s.CreateVehicle(context.Background(), core.Vehicle{
		Name:          name,
		Make:          "Toyota",
		Model:         "Corolla",
		Year:          2020,
		PurchasePrice: core.Money{Cents: 1500000},
	})
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestCreateVehicleAssignsIDAndPublishes(t *testing.T) {
	s, pub := newService(t)

	v := mustCreateVehicle(t, s, "Corolla (ABC123)")
	if v.ID == "" {
		t.Error("expected generated vehicle id")
	}
	if len(pub.origins) != 1 || pub.origins[0] != "vehicles" {
		t.Errorf("expected one vehicles publish, got %v", pub.origins)
	}
}

func TestCreateManualEntry(t *testing.T) {
	s, pub := newService(t)
	ctx := context.Background()
	v := mustCreateVehicle(t, s, "Corolla (ABC123)")

	d, _ := core.ParseDate("2024-03-15")
	e, err := s.CreateManualEntry(ctx, core.LedgerEntry{
		VehicleID: v.ID,
		Kind:      core.Expense,
		Category:  core.Maintenance,
		Amount:    core.Money{Cents: 5000},
		Date:      d,
	})
	if err != nil {
		t.Fatal(err)
	}
	if e.ID == "" || !e.IsManual || e.Source != core.SourceManual {
		t.Errorf("manual entry not marked: %+v", e)
	}
	if pub.origins[len(pub.origins)-1] != "entries" {
		t.Errorf("expected entries publish, got %v", pub.origins)
	}
}

func TestCreateManualEntryUnknownVehicle(t *testing.T) {
	s, _ := newService(t)

	d, _ := core.ParseDate("2024-03-15")
	_, err := s.CreateManualEntry(context.Background(), core.LedgerEntry{
		VehicleID: "missing",
		Kind:      core.Expense,
		Category:  core.Maintenance,
		Amount:    core.Money{Cents: 5000},
		Date:      d,
	})
	if !errors.Is(err, core.ErrUnknownVehicle) {
		t.Fatalf("expected ErrUnknownVehicle, got %v", err)
	}
}

func TestCreateManualEntryWithParent(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	v := mustCreateVehicle(t, s, "Corolla (ABC123)")

	d, _ := core.ParseDate("2024-03-15")
	parent, err := s.CreateManualEntry(ctx, core.LedgerEntry{
		VehicleID: v.ID, Kind: core.Expense, Category: core.Maintenance,
		Amount: core.Money{Cents: 5000}, Date: d,
	})
	if err != nil {
		t.Fatal(err)
	}

	child, err := s.CreateManualEntry(ctx, core.LedgerEntry{
		VehicleID: v.ID, Kind: core.Expense, Category: core.Maintenance,
		Amount: core.Money{Cents: 2000}, Date: d,
		ParentID: parent.ID, Description: "Adjustment",
	})
	if err != nil {
		t.Fatal(err)
	}
	if child.ParentID != parent.ID {
		t.Errorf("parent link lost: %+v", child)
	}

	_, err = s.CreateManualEntry(ctx, core.LedgerEntry{
		VehicleID: v.ID, Kind: core.Expense, Category: core.Maintenance,
		Amount: core.Money{Cents: 2000}, Date: d,
		ParentID: "no-such-entry",
	})
	if !errors.Is(err, core.ErrUnknownEntry) {
		t.Fatalf("expected ErrUnknownEntry for missing parent, got %v", err)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	store := storage.NewMemoryStore()
	defer store.Close()
	pub := &fakePublisher{err: errors.New("broker down")}
	s := NewLedgerService(store, pub)

	if _, err := s.CreateVehicle(context.Background(), core.Vehicle{
		Name: "Corolla (ABC123)", Make: "Toyota", Model: "Corolla", Year: 2020,
	}); err != nil {
		t.Fatalf("write must survive a publish failure, got %v", err)
	}

	vehicles, _ := s.ListVehicles(context.Background())
	if len(vehicles) != 1 {
		t.Errorf("expected vehicle persisted, got %d", len(vehicles))
	}
}

func TestClearExpenses(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	v := mustCreateVehicle(t, s, "Corolla (ABC123)")

	d, _ := core.ParseDate("2024-03-15")
	if _, err := s.CreateManualEntry(ctx, core.LedgerEntry{
		VehicleID: v.ID, Kind: core.Expense, Category: core.Maintenance,
		Amount: core.Money{Cents: 5000}, Date: d,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateManualEntry(ctx, core.LedgerEntry{
		VehicleID: v.ID, Kind: core.Revenue, Category: core.TripEarnings,
		Amount: core.Money{Cents: 9000}, Date: d,
	}); err != nil {
		t.Fatal(err)
	}

	n, err := s.ClearExpenses(ctx, v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 cleared expense, got %d", n)
	}

	entries, _ := s.ListEntries(ctx)
	if len(entries) != 1 || entries[0].Kind != core.Revenue {
		t.Fatalf("revenue must survive clear, got %+v", entries)
	}
}

func TestFleetStatsThroughService(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	v := mustCreateVehicle(t, s, "Corolla (ABC123)")

	d, _ := core.ParseDate("2024-03-15")
	if _, err := s.CreateManualEntry(ctx, core.LedgerEntry{
		VehicleID: v.ID, Kind: core.Revenue, Category: core.TripEarnings,
		Amount: core.Money{Cents: 50000}, Date: d,
	}); err != nil {
		t.Fatal(err)
	}

	stats, err := s.FleetStats(ctx, nil, core.YearWindow(2024))
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRevenue.Cents != 50000 {
		t.Errorf("expected revenue 50000, got %d", stats.TotalRevenue.Cents)
	}
}

func TestVehicleROIUnknown(t *testing.T) {
	s, _ := newService(t)
	if _, err := s.VehicleROI(context.Background(), "missing"); !errors.Is(err, core.ErrUnknownVehicle) {
		t.Fatalf("expected ErrUnknownVehicle, got %v", err)
	}
}

func TestDeleteVehicleCascades(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	v := mustCreateVehicle(t, s, "Corolla (ABC123)")

	d, _ := core.ParseDate("2024-03-15")
	if _, err := s.CreateManualEntry(ctx, core.LedgerEntry{
		VehicleID: v.ID, Kind: core.Expense, Category: core.Other,
		Amount: core.Money{Cents: 100}, Date: d,
	}); err != nil {
		t.Fatal(err)
	}

	deleted, err := s.DeleteVehicle(ctx, v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 entry deleted with vehicle, got %d", deleted)
	}

	entries, _ := s.ListEntries(ctx)
	if len(entries) != 0 {
		t.Errorf("expected entries removed with vehicle, got %d", len(entries))
	}
}
