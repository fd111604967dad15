package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	Revenue EntryKind = "revenue"
	Expense EntryKind = "expense"
)

const (
	TripEarnings   Category = "trip_earnings"
	Maintenance    Category = "maintenance"
	Insurance      Category = "insurance"
	InsuranceClaim Category = "insurance_claim"
	Other          Category = "other"
)

const (
	Sold    SaleDisposition = "sold"
	Totaled SaleDisposition = "totaled"
)

const (
	StatusActive  = "active"
	StatusSold    = "sold"
	StatusTotaled = "totaled"
)

const (
	SourceImport = "csv_import"
	SourceManual = "manual"
)

type (
	EntryKind       string
	Category        string
	SaleDisposition string

	// Date is a civil calendar date anchored at UTC midnight.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// LedgerEntry is one revenue or expense record tied to a vehicle
	// and a recognition date. For split trip entries the date is the
	// first day of the sub-period the entry covers; TripID, SplitIndex
	// and SplitTotal carry the split structure as first-class fields.
	LedgerEntry struct {
		ID          string
		VehicleID   string
		Kind        EntryKind
		Category    Category
		Amount      Money
		Date        Date
		TripEnd     Date // zero unless the entry originates from a trip
		TripDays    int
		TripID      string
		SplitIndex  int
		SplitTotal  int
		Description string
		ParentID    string
		IsManual    bool
		Source      string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Vehicle struct {
		ID            string
		Name          string // display name, may embed "(PLATE)" suffix
		Make          string
		Model         string
		Year          int
		PurchasePrice Money
		PurchaseDate  Date
		SaleDate      Date
		SalePrice     Money
		// Empty means still active.
		SaleDisposition SaleDisposition
		// Excludes the vehicle's entries from fleet and monthly
		// aggregates without deleting its history.
		ExcludedFromAggregates bool
		CreatedAt              time.Time
	}
)

var (
	ErrInvalidDate         = errors.New("invalid date")
	ErrEndBeforeStart      = errors.New("end date before start date")
	ErrInvalidTripDuration = errors.New("trip duration must be at least one day")
	ErrNegativeAmount      = errors.New("amount cannot be negative")
	ErrEmptyVehicleID      = errors.New("empty vehicle id")
	ErrEmptyVehicleName    = errors.New("empty vehicle name")
	ErrInvalidKind         = errors.New("invalid entry kind")
	ErrInvalidCategory     = errors.New("invalid entry category")
	ErrUnknownVehicle      = errors.New("unknown vehicle")
	ErrUnknownEntry        = errors.New("unknown entry")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a strict YYYY-MM-DD date string.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Today returns the current civil date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty reports whether the date is unset.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// SameMonth reports whether both dates fall in the same calendar month
// of the same year.
func (d Date) SameMonth(other Date) bool {
	return d.Year() == other.Year() && d.Month() == other.Month()
}

// EndOfMonth returns the last day of d's month.
func (d Date) EndOfMonth() Date {
	return NewDate(d.Year(), d.Month()+1, 0)
}

// FirstOfNextMonth returns the first day of the month after d's.
func (d Date) FirstOfNextMonth() Date {
	return NewDate(d.Year(), d.Month()+1, 1)
}

// DaysUntil returns the number of whole civil days from d to other.
// Negative when other is earlier than d.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

func (e LedgerEntry) Validate() error {
	if strings.TrimSpace(e.VehicleID) == "" {
		return ErrEmptyVehicleID
	}
	switch e.Kind {
	case Revenue, Expense:
	default:
		return ErrInvalidKind
	}
	switch e.Category {
	case TripEarnings, Maintenance, Insurance, InsuranceClaim, Other:
	default:
		return ErrInvalidCategory
	}
	if e.Amount.Cents < 0 {
		return ErrNegativeAmount
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if !e.TripEnd.IsZero() && e.TripEnd.Before(e.Date.Time) {
		return ErrEndBeforeStart
	}
	return nil
}

func (v Vehicle) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return ErrEmptyVehicleName
	}
	if v.PurchasePrice.Cents < 0 || v.SalePrice.Cents < 0 {
		return ErrNegativeAmount
	}
	switch v.SaleDisposition {
	case "", Sold, Totaled:
	default:
		return errors.New("invalid sale disposition")
	}
	if !v.SaleDate.IsZero() && !v.PurchaseDate.IsZero() && v.SaleDate.Before(v.PurchaseDate.Time) {
		return errors.New("sale date before purchase date")
	}
	return nil
}

// Status derives the vehicle lifecycle state from its sale disposition.
func (v Vehicle) Status() string {
	switch v.SaleDisposition {
	case Totaled:
		return StatusTotaled
	case Sold:
		return StatusSold
	default:
		return StatusActive
	}
}

var plateRe = regexp.MustCompile(`\(([^)]+)\)`)

// PlateOf extracts the parenthesised license-plate suffix from a
// vehicle display name ("Toyota Yaris (ABC123)" -> "ABC123"). Returns
// the empty string when the name carries no plate.
func PlateOf(name string) string {
	m := plateRe.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
