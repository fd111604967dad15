package http

import (
	"log/slog"
	"net/http"

	"github.com/yabdulhakim1/oakRentalsFin/internal/core"
)

type fleetStatsResponse struct {
	TotalRevenueCents  int64   `json:"totalRevenueCents"`
	TotalExpensesCents int64   `json:"totalExpensesCents"`
	ProfitCents        int64   `json:"profitCents"`
	TotalRevenue       float64 `json:"totalRevenue"`
	TotalExpenses      float64 `json:"totalExpenses"`
	Profit             float64 `json:"profit"`
}

type monthStatsResponse struct {
	Month              int     `json:"month"`
	TotalRevenueCents  int64   `json:"totalRevenueCents"`
	TotalExpensesCents int64   `json:"totalExpensesCents"`
	ProfitCents        int64   `json:"profitCents"`
	TotalRevenue       float64 `json:"totalRevenue"`
	TotalExpenses      float64 `json:"totalExpenses"`
	Profit             float64 `json:"profit"`
}

func toFleetStatsResponse(s core.FleetStats) fleetStatsResponse {
	return fleetStatsResponse{
		TotalRevenueCents:  s.TotalRevenue.Cents,
		TotalExpensesCents: s.TotalExpenses.Cents,
		ProfitCents:        s.Profit.Cents,
		TotalRevenue:       s.TotalRevenue.Dollars(),
		TotalExpenses:      s.TotalExpenses.Dollars(),
		Profit:             s.Profit.Dollars(),
	}
}

func (s *Server) handleFleetStats(w http.ResponseWriter, r *http.Request) {
	selected, window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	key := windowKey("stats", selected, window)
	if cached, ok := s.statsCache.Get(key); ok {
		writeJSON(w, http.StatusOK, toFleetStatsResponse(cached))
		return
	}

	stats, err := s.service.FleetStats(r.Context(), selected, window)
	if err != nil {
		slog.ErrorContext(r.Context(), "Fleet stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.statsCache.Set(key, stats)
	writeJSON(w, http.StatusOK, toFleetStatsResponse(stats))
}

func (s *Server) handleFleetMonthly(w http.ResponseWriter, r *http.Request) {
	selected, window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	key := windowKey("monthly", selected, window)
	months, ok := s.monthlyCache.Get(key)
	if !ok {
		months, err = s.service.MonthlyStats(r.Context(), selected, window)
		if err != nil {
			slog.ErrorContext(r.Context(), "Monthly stats failed", "error", err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		s.monthlyCache.Set(key, months)
	}

	resp := make([]monthStatsResponse, len(months))
	for i, m := range months {
		resp[i] = monthStatsResponse{
			Month:              m.Month,
			TotalRevenueCents:  m.TotalRevenue.Cents,
			TotalExpensesCents: m.TotalExpenses.Cents,
			ProfitCents:        m.Profit.Cents,
			TotalRevenue:       m.TotalRevenue.Dollars(),
			TotalExpenses:      m.TotalExpenses.Dollars(),
			Profit:             m.Profit.Dollars(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
