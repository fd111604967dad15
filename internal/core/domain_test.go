package core

import (
	"errors"
	"testing"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-28", true},
		{"2024-12-31", true},
		{" 2024-02-03 ", true},
		{"2024-1-3", false},
		{"01/28/2024", false},
		{"not a date", false},
		{"", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Errorf("ParseDate(%q) unexpected error: %v", tc.in, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", tc.in, err)
		}
		if tc.ok && d.Location() != nil && d.Location().String() != "UTC" {
			t.Errorf("ParseDate(%q) not anchored at UTC", tc.in)
		}
	}
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2024, 1, 28)
	if got := d.EndOfMonth(); got.String() != "2024-01-31" {
		t.Errorf("EndOfMonth = %s", got)
	}
	if got := d.FirstOfNextMonth(); got.String() != "2024-02-01" {
		t.Errorf("FirstOfNextMonth = %s", got)
	}
	if got := NewDate(2024, 2, 1).EndOfMonth(); got.String() != "2024-02-29" {
		t.Errorf("leap february EndOfMonth = %s", got)
	}
	if got := NewDate(2024, 12, 15).FirstOfNextMonth(); got.String() != "2025-01-01" {
		t.Errorf("year rollover = %s", got)
	}
	if got := d.DaysUntil(NewDate(2024, 2, 3)); got != 6 {
		t.Errorf("DaysUntil = %d, want 6", got)
	}
}

func TestLedgerEntryValidate(t *testing.T) {
	good := LedgerEntry{
		VehicleID: "v1",
		Kind:      Revenue,
		Category:  TripEarnings,
		Amount:    Money{Cents: 100},
		Date:      NewDate(2024, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name  string
		mut   func(*LedgerEntry)
		want  error
	}{
		{"empty vehicle", func(e *LedgerEntry) { e.VehicleID = " " }, ErrEmptyVehicleID},
		{"bad kind", func(e *LedgerEntry) { e.Kind = "refund" }, ErrInvalidKind},
		{"bad category", func(e *LedgerEntry) { e.Category = "fuel" }, ErrInvalidCategory},
		{"negative amount", func(e *LedgerEntry) { e.Amount.Cents = -1 }, ErrNegativeAmount},
		{"zero date", func(e *LedgerEntry) { e.Date = Date{} }, ErrInvalidDate},
		{"trip end before date", func(e *LedgerEntry) { e.TripEnd = NewDate(2023, 12, 1) }, ErrEndBeforeStart},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := good
			tc.mut(&e)
			if err := e.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestVehicleValidate(t *testing.T) {
	good := Vehicle{Name: "Toyota Yaris", PurchasePrice: Money{Cents: 800000}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Vehicle{
		{Name: ""},
		{Name: "V", PurchasePrice: Money{Cents: -1}},
		{Name: "V", SaleDisposition: "scrapped"},
		{Name: "V", PurchaseDate: NewDate(2024, 6, 1), SaleDate: NewDate(2024, 1, 1)},
	}
	for i, v := range bads {
		if err := v.Validate(); err == nil {
			t.Errorf("case %d expected error", i)
		}
	}
}

func TestVehicleStatus(t *testing.T) {
	cases := []struct {
		disp SaleDisposition
		want string
	}{
		{"", StatusActive},
		{Sold, StatusSold},
		{Totaled, StatusTotaled},
	}
	for _, tc := range cases {
		v := Vehicle{Name: "V", SaleDisposition: tc.disp}
		if got := v.Status(); got != tc.want {
			t.Errorf("Status(%q) = %s, want %s", tc.disp, got, tc.want)
		}
	}
}

func TestPlateOf(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Toyota Yaris (ABC123)", "ABC123"},
		{"Mitsubishi Mirage G4 (7XYZ99)", "7XYZ99"},
		{"FIAT 500", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := PlateOf(tc.name); got != tc.want {
			t.Errorf("PlateOf(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
