package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yabdulhakim1/oakRentalsFin/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// parseWindow reads the shared aggregate query parameters: vehicles
// (comma-separated ids, empty = all), year (0 = use explicit bounds),
// start and end (YYYY-MM-DD, inclusive). Defaults to the current year.
func parseWindow(r *http.Request) ([]string, core.Window, error) {
	q := r.URL.Query()

	var selected []string
	if v := strings.TrimSpace(q.Get("vehicles")); v != "" {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				selected = append(selected, id)
			}
		}
	}

	year := time.Now().UTC().Year()
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return nil, core.Window{}, fmt.Errorf("invalid year %q", v)
		}
		year = y
	}
	if year != 0 {
		return selected, core.YearWindow(year), nil
	}

	startStr := strings.TrimSpace(q.Get("start"))
	endStr := strings.TrimSpace(q.Get("end"))
	if startStr == "" || endStr == "" {
		return nil, core.Window{}, fmt.Errorf("year=0 requires explicit start and end")
	}
	start, err := core.ParseDate(startStr)
	if err != nil {
		return nil, core.Window{}, fmt.Errorf("invalid start date %q", startStr)
	}
	end, err := core.ParseDate(endStr)
	if err != nil {
		return nil, core.Window{}, fmt.Errorf("invalid end date %q", endStr)
	}
	if end.Before(start.Time) {
		return nil, core.Window{}, fmt.Errorf("end before start")
	}

	return selected, core.Window{Start: start, End: end}, nil
}

// windowKey builds a cache key from the aggregate query parameters.
func windowKey(prefix string, selected []string, w core.Window) string {
	return fmt.Sprintf("%s|%s|%d|%s|%s", prefix, strings.Join(selected, ","), w.SelectedYear, w.Start, w.End)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
