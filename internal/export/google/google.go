// Package google pushes fleet reports to a Google Sheets dashboard.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/yabdulhakim1/oakRentalsFin/internal/export"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year (e.g. "Dashboard"); the year is prefixed
	// per report.
	dashboardBase string
}

var _ export.ReportWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials in
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: DASHBOARD_SHEET_NAME (default "Dashboard").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	dashBase := strings.TrimSpace(os.Getenv("DASHBOARD_SHEET_NAME"))
	if dashBase == "" {
		dashBase = "Dashboard"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		dashboardBase: dashBase,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// WriteReport replaces the year's dashboard sheet contents with the
// report: monthly rows, a fleet totals row, then a per-vehicle ROI
// block.
func (c *Client) WriteReport(ctx context.Context, r export.Report) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	sheetName := fmt.Sprintf("%d %s", r.Year, c.dashboardBase)

	clearRange := fmt.Sprintf("%s!A:Z", sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheetName, err)
	}

	values := [][]any{
		{"Month", "Revenue", "Expenses", "Profit"},
	}
	for _, m := range r.Months {
		values = append(values, []any{
			monthNames[m.Month],
			m.TotalRevenue.Dollars(),
			m.TotalExpenses.Dollars(),
			m.Profit.Dollars(),
		})
	}
	values = append(values,
		[]any{"Total", r.Fleet.TotalRevenue.Dollars(), r.Fleet.TotalExpenses.Dollars(), r.Fleet.Profit.Dollars()},
		[]any{},
		[]any{"Vehicle", "Status", "Months Owned", "Rental Profit", "Total Profit", "Total ROI %", "Monthly ROI %"},
	)
	for _, vr := range r.Vehicles {
		values = append(values, []any{
			vr.Vehicle.Name,
			vr.ROI.Status,
			vr.ROI.MonthsOwned,
			vr.ROI.RentalProfit.Dollars(),
			vr.ROI.TotalProfit.Dollars(),
			vr.ROI.TotalROI,
			vr.ROI.MonthlyROI,
		})
	}
	values = append(values, []any{}, []any{"Generated", r.GeneratedAt.UTC().Format(time.RFC3339)})

	writeRange := fmt.Sprintf("%s!A1", sheetName)
	vr := &gsheet.ValueRange{Values: values}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", sheetName, err)
	}

	slog.InfoContext(ctx, "Report written to Google Sheets",
		"sheet", sheetName,
		"months", len(r.Months),
		"vehicles", len(r.Vehicles))
	return nil
}
