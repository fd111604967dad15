package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/yabdulhakim1/oakRentalsFin/internal/amqp"
	"github.com/yabdulhakim1/oakRentalsFin/internal/core"
	"github.com/yabdulhakim1/oakRentalsFin/internal/storage"
)

// ChangePublisher mirrors the AMQP client's publish surface so tests
// can substitute a fake.
type ChangePublisher interface {
	PublishLedgerChanged(ctx context.Context, origin string) error
}

// LedgerService orchestrates ledger operations across the store and
// the message broker. Writes land in storage first; the broker
// notification is best effort and never fails the request.
type LedgerService struct {
	store     storage.Store
	publisher ChangePublisher
}

func NewLedgerService(store storage.Store, publisher ChangePublisher) *LedgerService {
	return &LedgerService{store: store, publisher: publisher}
}

func (s *LedgerService) CreateVehicle(ctx context.Context, v core.Vehicle) (core.Vehicle, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if err := s.store.SaveVehicle(ctx, v); err != nil {
		return core.Vehicle{}, fmt.Errorf("create vehicle: %w", err)
	}
	s.publish(ctx, amqp.OriginVehicles)
	return v, nil
}

func (s *LedgerService) UpdateVehicle(ctx context.Context, v core.Vehicle) error {
	if err := s.store.UpdateVehicle(ctx, v); err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	s.publish(ctx, amqp.OriginVehicles)
	return nil
}

// DeleteVehicle removes the vehicle together with all of its entries
// and reports how many entries went with it.
func (s *LedgerService) DeleteVehicle(ctx context.Context, id string) (int64, error) {
	n, err := s.store.DeleteVehicleCascade(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("delete vehicle: %w", err)
	}
	s.publish(ctx, amqp.OriginVehicles)
	return n, nil
}

func (s *LedgerService) ListVehicles(ctx context.Context) ([]core.Vehicle, error) {
	return s.store.ListVehicles(ctx)
}

func (s *LedgerService) GetVehicle(ctx context.Context, id string) (core.Vehicle, error) {
	return s.store.GetVehicle(ctx, id)
}

// CreateManualEntry records a user-entered ledger entry, bypassing the
// trip allocator.
func (s *LedgerService) CreateManualEntry(ctx context.Context, e core.LedgerEntry) (core.LedgerEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.IsManual = true
	e.Source = core.SourceManual
	if _, err := s.store.GetVehicle(ctx, e.VehicleID); err != nil {
		return core.LedgerEntry{}, err
	}
	if e.ParentID != "" {
		if _, err := s.store.GetEntry(ctx, e.ParentID); err != nil {
			return core.LedgerEntry{}, fmt.Errorf("parent: %w", err)
		}
	}
	if err := s.store.SaveEntries(ctx, []core.LedgerEntry{e}); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("create entry: %w", err)
	}
	s.publish(ctx, amqp.OriginEntries)
	return e, nil
}

func (s *LedgerService) DeleteEntry(ctx context.Context, id string) error {
	if _, err := s.store.DeleteEntries(ctx, []string{id}); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	s.publish(ctx, amqp.OriginEntries)
	return nil
}

// DeleteEntries removes a batch of entries by id, reporting how many
// actually existed. Publishes only when something was deleted.
func (s *LedgerService) DeleteEntries(ctx context.Context, ids []string) (int64, error) {
	n, err := s.store.DeleteEntries(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete entries: %w", err)
	}
	if n > 0 {
		s.publish(ctx, amqp.OriginEntries)
	}
	return n, nil
}

func (s *LedgerService) ListEntries(ctx context.Context) ([]core.LedgerEntry, error) {
	return s.store.ListEntries(ctx)
}

// ClearExpenses bulk-deletes every expense entry of one vehicle.
func (s *LedgerService) ClearExpenses(ctx context.Context, vehicleID string) (int64, error) {
	if _, err := s.store.GetVehicle(ctx, vehicleID); err != nil {
		return 0, err
	}
	n, err := s.store.DeleteExpenseEntries(ctx, vehicleID)
	if err != nil {
		return 0, fmt.Errorf("clear expenses: %w", err)
	}
	if n > 0 {
		s.publish(ctx, amqp.OriginEntries)
	}
	return n, nil
}

// FleetStats computes windowed fleet totals over the current snapshot.
func (s *LedgerService) FleetStats(ctx context.Context, selected []string, w core.Window) (core.FleetStats, error) {
	vehicles, entries, err := s.snapshot(ctx)
	if err != nil {
		return core.FleetStats{}, err
	}
	return core.FleetTotals(entries, vehicles, selected, w), nil
}

// MonthlyStats computes the twelve per-month buckets.
func (s *LedgerService) MonthlyStats(ctx context.Context, selected []string, w core.Window) ([]core.MonthStats, error) {
	vehicles, entries, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return core.MonthlyTotals(entries, vehicles, selected, w), nil
}

// VehicleROI computes lifetime ownership economics for one vehicle.
func (s *LedgerService) VehicleROI(ctx context.Context, vehicleID string) (core.ROI, error) {
	vehicles, entries, err := s.snapshot(ctx)
	if err != nil {
		return core.ROI{}, err
	}
	return core.CarROI(vehicleID, vehicles, entries, core.Today())
}

func (s *LedgerService) snapshot(ctx context.Context) ([]core.Vehicle, []core.LedgerEntry, error) {
	vehicles, err := s.store.ListVehicles(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load vehicles: %w", err)
	}
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load entries: %w", err)
	}
	return vehicles, entries, nil
}

func (s *LedgerService) publish(ctx context.Context, origin string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerChanged(ctx, origin); err != nil {
		// The write already landed; a missed notification only delays
		// the exported report.
		slog.ErrorContext(ctx, "Failed to publish change message",
			"origin", origin, "error", err)
	}
}

func (s *LedgerService) Close() error {
	return s.store.Close()
}
