package storage

import (
	"context"

	"github.com/yabdulhakim1/oakRentalsFin/internal/core"
)

// Store is the persistence port the services and HTTP layer depend on.
type Store interface {
	SaveEntries(ctx context.Context, entries []core.LedgerEntry) error
	ListEntries(ctx context.Context) ([]core.LedgerEntry, error)
	GetEntry(ctx context.Context, id string) (core.LedgerEntry, error)
	FindTripEntries(ctx context.Context, tripID, vehicleID string) ([]core.LedgerEntry, error)
	FindEntriesByVehicleAndDate(ctx context.Context, vehicleID string, date core.Date) ([]core.LedgerEntry, error)
	DeleteEntries(ctx context.Context, ids []string) (int64, error)
	DeleteExpenseEntries(ctx context.Context, vehicleID string) (int64, error)

	ListVehicles(ctx context.Context) ([]core.Vehicle, error)
	GetVehicle(ctx context.Context, id string) (core.Vehicle, error)
	FindVehicleByName(ctx context.Context, name string) (core.Vehicle, error)
	SaveVehicle(ctx context.Context, v core.Vehicle) error
	UpdateVehicle(ctx context.Context, v core.Vehicle) error
	DeleteVehicleCascade(ctx context.Context, id string) (int64, error)

	Close() error
}

// Notifier lets in-process consumers observe ledger mutations. Each
// subscriber gets a buffered channel; slow subscribers drop signals
// rather than block writers.
type Notifier interface {
	Subscribe() <-chan struct{}
}
