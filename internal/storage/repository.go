package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yabdulhakim1/oakRentalsFin/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB

	mu   sync.Mutex
	subs []chan struct{}
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	r.mu.Lock()
	for _, ch := range r.subs {
		close(ch)
	}
	r.subs = nil
	r.mu.Unlock()

	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Subscribe implements Notifier. The returned channel is closed when
// the repository shuts down.
func (r *SQLiteRepository) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	r.mu.Lock()
	r.subs = append(r.subs, ch)
	r.mu.Unlock()
	return ch
}

func (r *SQLiteRepository) notify() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

const entryColumns = `id, vehicle_id, kind, category, amount_cents, date, trip_end,
	trip_days, trip_id, split_index, split_total, description, parent_entry_id,
	is_manual, source, created_at, updated_at`

func (r *SQLiteRepository) SaveEntries(ctx context.Context, entries []core.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			vehicle_id = excluded.vehicle_id,
			kind = excluded.kind,
			category = excluded.category,
			amount_cents = excluded.amount_cents,
			date = excluded.date,
			trip_end = excluded.trip_end,
			trip_days = excluded.trip_days,
			trip_id = excluded.trip_id,
			split_index = excluded.split_index,
			split_total = excluded.split_total,
			description = excluded.description,
			parent_entry_id = excluded.parent_entry_id,
			is_manual = excluded.is_manual,
			source = excluded.source,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("entry %s: %w", e.ID, err)
		}
		_, err := stmt.ExecContext(ctx,
			e.ID, e.VehicleID, string(e.Kind), string(e.Category), e.Amount.Cents,
			e.Date.String(), nullDate(e.TripEnd), nullInt(e.TripDays),
			nullStr(e.TripID), nullInt(e.SplitIndex), nullInt(e.SplitTotal),
			e.Description, nullStr(e.ParentID), e.IsManual, e.Source, now, now)
		if err != nil {
			return fmt.Errorf("save entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entries: %w", err)
	}

	slog.InfoContext(ctx, "Entries saved", "count", len(entries))
	r.notify()
	return nil
}

func (r *SQLiteRepository) ListEntries(ctx context.Context) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *SQLiteRepository) GetEntry(ctx context.Context, id string) (core.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerEntry{}, fmt.Errorf("entry %q: %w", id, core.ErrUnknownEntry)
	}
	return e, err
}

func (r *SQLiteRepository) FindTripEntries(ctx context.Context, tripID, vehicleID string) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE trip_id = ? AND vehicle_id = ? ORDER BY date, id`,
		tripID, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("find trip entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *SQLiteRepository) FindEntriesByVehicleAndDate(ctx context.Context, vehicleID string, date core.Date) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE vehicle_id = ? AND date = ? ORDER BY id`,
		vehicleID, date.String())
	if err != nil {
		return nil, fmt.Errorf("find entries by vehicle and date: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *SQLiteRepository) DeleteEntries(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var deleted int64
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
		if err != nil {
			return 0, fmt.Errorf("delete entry %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			deleted += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete: %w", err)
	}

	r.notify()
	return deleted, nil
}

// DeleteExpenseEntries bulk-clears a vehicle's expense entries.
// Insurance-claim revenue goes with them: a claim only exists to
// offset the expense it reimburses.
func (r *SQLiteRepository) DeleteExpenseEntries(ctx context.Context, vehicleID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM entries WHERE vehicle_id = ? AND (kind = ? OR category = ?)`,
		vehicleID, string(core.Expense), string(core.InsuranceClaim))
	if err != nil {
		return 0, fmt.Errorf("delete expense entries: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		slog.InfoContext(ctx, "Expense entries cleared", "vehicle_id", vehicleID, "count", n)
		r.notify()
	}
	return n, nil
}

const vehicleColumns = `id, name, make, model, year, purchase_price_cents, purchase_date,
	sale_date, sale_price_cents, sale_disposition, excluded_from_aggregates, created_at`

func (r *SQLiteRepository) ListVehicles(ctx context.Context) ([]core.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []core.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (r *SQLiteRepository) GetVehicle(ctx context.Context, id string) (core.Vehicle, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = ?`, id)
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Vehicle{}, fmt.Errorf("vehicle %q: %w", id, core.ErrUnknownVehicle)
	}
	return v, err
}

func (r *SQLiteRepository) FindVehicleByName(ctx context.Context, name string) (core.Vehicle, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE name = ?`, name)
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Vehicle{}, fmt.Errorf("vehicle %q: %w", name, core.ErrUnknownVehicle)
	}
	return v, err
}

func (r *SQLiteRepository) SaveVehicle(ctx context.Context, v core.Vehicle) error {
	if err := v.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO vehicles (`+vehicleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Name, v.Make, v.Model, v.Year, v.PurchasePrice.Cents,
		nullDate(v.PurchaseDate), nullDate(v.SaleDate), nullMoney(v.SalePrice),
		nullStr(string(v.SaleDisposition)), v.ExcludedFromAggregates,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save vehicle %s: %w", v.ID, err)
	}

	slog.InfoContext(ctx, "Vehicle saved", "id", v.ID, "name", v.Name)
	r.notify()
	return nil
}

func (r *SQLiteRepository) UpdateVehicle(ctx context.Context, v core.Vehicle) error {
	if err := v.Validate(); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `UPDATE vehicles SET
		name = ?, make = ?, model = ?, year = ?, purchase_price_cents = ?,
		purchase_date = ?, sale_date = ?, sale_price_cents = ?,
		sale_disposition = ?, excluded_from_aggregates = ?
		WHERE id = ?`,
		v.Name, v.Make, v.Model, v.Year, v.PurchasePrice.Cents,
		nullDate(v.PurchaseDate), nullDate(v.SaleDate), nullMoney(v.SalePrice),
		nullStr(string(v.SaleDisposition)), v.ExcludedFromAggregates, v.ID)
	if err != nil {
		return fmt.Errorf("update vehicle %s: %w", v.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("vehicle %q: %w", v.ID, core.ErrUnknownVehicle)
	}

	r.notify()
	return nil
}

// DeleteVehicleCascade removes the vehicle and, through the foreign
// key, every ledger entry attached to it.
func (r *SQLiteRepository) DeleteVehicleCascade(ctx context.Context, id string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var entryCount int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE vehicle_id = ?`, id).Scan(&entryCount); err != nil {
		return 0, fmt.Errorf("count entries for vehicle %s: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM vehicles WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete vehicle %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("vehicle %q: %w", id, core.ErrUnknownVehicle)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Vehicle deleted with entries", "id", id, "entries", entryCount)
	r.notify()
	return entryCount, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntries(rows *sql.Rows) ([]core.LedgerEntry, error) {
	var entries []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(s rowScanner) (core.LedgerEntry, error) {
	var (
		e                      core.LedgerEntry
		kind, category         string
		date                   string
		tripEnd                sql.NullString
		tripDays, splitIdx     sql.NullInt64
		splitTotal             sql.NullInt64
		tripID, parentID       sql.NullString
		createdAt, updatedAt   string
	)
	err := s.Scan(&e.ID, &e.VehicleID, &kind, &category, &e.Amount.Cents,
		&date, &tripEnd, &tripDays, &tripID, &splitIdx, &splitTotal,
		&e.Description, &parentID, &e.IsManual, &e.Source, &createdAt, &updatedAt)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("scan entry: %w", err)
	}

	e.Kind = core.EntryKind(kind)
	e.Category = core.Category(category)
	if e.Date, err = core.ParseDate(date); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("entry %s date: %w", e.ID, err)
	}
	if tripEnd.Valid {
		if e.TripEnd, err = core.ParseDate(tripEnd.String); err != nil {
			return core.LedgerEntry{}, fmt.Errorf("entry %s trip end: %w", e.ID, err)
		}
	}
	e.TripDays = int(tripDays.Int64)
	e.TripID = tripID.String
	e.SplitIndex = int(splitIdx.Int64)
	e.SplitTotal = int(splitTotal.Int64)
	e.ParentID = parentID.String
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return e, nil
}

func scanVehicle(s rowScanner) (core.Vehicle, error) {
	var (
		v                      core.Vehicle
		purchaseDate, saleDate sql.NullString
		salePrice              sql.NullInt64
		disposition            sql.NullString
		createdAt              string
	)
	err := s.Scan(&v.ID, &v.Name, &v.Make, &v.Model, &v.Year,
		&v.PurchasePrice.Cents, &purchaseDate, &saleDate, &salePrice,
		&disposition, &v.ExcludedFromAggregates, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Vehicle{}, err
		}
		return core.Vehicle{}, fmt.Errorf("scan vehicle: %w", err)
	}

	if purchaseDate.Valid {
		if v.PurchaseDate, err = core.ParseDate(purchaseDate.String); err != nil {
			return core.Vehicle{}, fmt.Errorf("vehicle %s purchase date: %w", v.ID, err)
		}
	}
	if saleDate.Valid {
		if v.SaleDate, err = core.ParseDate(saleDate.String); err != nil {
			return core.Vehicle{}, fmt.Errorf("vehicle %s sale date: %w", v.ID, err)
		}
	}
	if salePrice.Valid {
		v.SalePrice = core.Money{Cents: salePrice.Int64}
	}
	v.SaleDisposition = core.SaleDisposition(disposition.String)
	v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return v, nil
}

func nullDate(d core.Date) any {
	if d.IsEmpty() {
		return nil
	}
	return d.String()
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullMoney(m core.Money) any {
	if m.Cents == 0 {
		return nil
	}
	return m.Cents
}
