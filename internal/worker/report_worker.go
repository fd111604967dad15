package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yabdulhakim1/oakRentalsFin/internal/amqp"
	"github.com/yabdulhakim1/oakRentalsFin/internal/core"
	"github.com/yabdulhakim1/oakRentalsFin/internal/export"
	"github.com/yabdulhakim1/oakRentalsFin/internal/storage"
)

// ChangeConsumer mirrors the AMQP client's consume surface.
type ChangeConsumer interface {
	ConsumeLedgerChanged(ctx context.Context, handler func(*amqp.LedgerChangedMessage) error) error
}

// ReportWorker regenerates the external dashboard report whenever the
// ledger changes, with a periodic full refresh as a safety net for
// missed messages.
type ReportWorker struct {
	store    storage.Store
	writer   export.ReportWriter
	interval time.Duration

	// now is swappable in tests.
	now func() time.Time
}

func NewReportWorker(store storage.Store, writer export.ReportWriter, interval time.Duration) *ReportWorker {
	return &ReportWorker{
		store:    store,
		writer:   writer,
		interval: interval,
		now:      time.Now,
	}
}

// Run consumes change messages and ticks until the context ends.
func (w *ReportWorker) Run(ctx context.Context, consumer ChangeConsumer) error {
	g, ctx := errgroup.WithContext(ctx)

	if consumer != nil {
		g.Go(func() error {
			err := consumer.ConsumeLedgerChanged(ctx, func(msg *amqp.LedgerChangedMessage) error {
				return w.HandleChangeMessage(ctx, msg)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := w.ExportOnce(ctx); err != nil {
					slog.ErrorContext(ctx, "Periodic report export failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}

// HandleChangeMessage processes one ledger change notification.
func (w *ReportWorker) HandleChangeMessage(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	slog.InfoContext(ctx, "Processing ledger change message",
		"origin", msg.Origin,
		"sent_at", msg.Timestamp)
	return w.ExportOnce(ctx)
}

// ExportOnce rebuilds the current-year report from a fresh snapshot
// and hands it to the report writer.
func (w *ReportWorker) ExportOnce(ctx context.Context) error {
	vehicles, err := w.store.ListVehicles(ctx)
	if err != nil {
		return fmt.Errorf("load vehicles: %w", err)
	}
	entries, err := w.store.ListEntries(ctx)
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}

	now := w.now().UTC()
	year := now.Year()
	window := core.YearWindow(year)
	today := core.NewDate(now.Year(), int(now.Month()), now.Day())

	report := export.Report{
		Year:        year,
		GeneratedAt: now,
		Fleet:       core.FleetTotals(entries, vehicles, nil, window),
		Months:      core.MonthlyTotals(entries, vehicles, nil, window),
	}

	for _, v := range vehicles {
		roi, err := core.CarROI(v.ID, vehicles, entries, today)
		if err != nil {
			return fmt.Errorf("roi for %s: %w", v.ID, err)
		}
		report.Vehicles = append(report.Vehicles, export.VehicleReport{Vehicle: v, ROI: roi})
	}

	if err := w.writer.WriteReport(ctx, report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	slog.InfoContext(ctx, "Report exported",
		"year", year,
		"vehicles", len(report.Vehicles),
		"entries", len(entries))
	return nil
}
