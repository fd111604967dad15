// Package export defines the outbound report port: a periodic fleet
// report pushed to an external dashboard.
package export

import (
	"context"
	"time"

	"github.com/yabdulhakim1/oakRentalsFin/internal/core"
)

// Report is one full regeneration of the dashboard for a year.
type Report struct {
	Year        int
	GeneratedAt time.Time
	Fleet       core.FleetStats
	Months      []core.MonthStats
	Vehicles    []VehicleReport
}

// VehicleReport pairs a vehicle with its lifetime economics.
type VehicleReport struct {
	Vehicle core.Vehicle
	ROI     core.ROI
}

// ReportWriter is the outbound adapter port.
type ReportWriter interface {
	WriteReport(ctx context.Context, r Report) error
}
