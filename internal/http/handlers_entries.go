package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/yabdulhakim1/oakRentalsFin/internal/core"
)

type entryRequest struct {
	VehicleID   string  `json:"vehicleId"`
	Kind        string  `json:"kind"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	ParentID    string  `json:"parentEntryId"`
}

type entryResponse struct {
	ID          string  `json:"id"`
	VehicleID   string  `json:"vehicleId"`
	Kind        string  `json:"kind"`
	Category    string  `json:"category"`
	AmountCents int64   `json:"amountCents"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	TripEnd     string  `json:"tripEnd,omitempty"`
	TripDays    int     `json:"tripDays,omitempty"`
	TripID      string  `json:"tripId,omitempty"`
	SplitIndex  int     `json:"splitIndex,omitempty"`
	SplitTotal  int     `json:"splitTotal,omitempty"`
	Description string  `json:"description,omitempty"`
	ParentID    string  `json:"parentEntryId,omitempty"`
	IsManual    bool    `json:"isManual"`
	Source      string  `json:"source"`
}

func toEntryResponse(e core.LedgerEntry) entryResponse {
	resp := entryResponse{
		ID:          e.ID,
		VehicleID:   e.VehicleID,
		Kind:        string(e.Kind),
		Category:    string(e.Category),
		AmountCents: e.Amount.Cents,
		Amount:      e.Amount.Dollars(),
		Date:        e.Date.String(),
		TripDays:    e.TripDays,
		TripID:      e.TripID,
		SplitIndex:  e.SplitIndex,
		SplitTotal:  e.SplitTotal,
		Description: e.Description,
		ParentID:    e.ParentID,
		IsManual:    e.IsManual,
		Source:      e.Source,
	}
	if !e.TripEnd.IsEmpty() {
		resp.TripEnd = e.TripEnd.String()
	}
	return resp
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.ListEntries(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List entries failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := make([]entryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toEntryResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if req.Amount < 0 {
		writeError(w, http.StatusUnprocessableEntity, core.ErrNegativeAmount)
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("date: %w", err))
		return
	}

	entry := core.LedgerEntry{
		VehicleID:   req.VehicleID,
		Kind:        core.EntryKind(req.Kind),
		Category:    core.Category(req.Category),
		Amount:      core.Money{Cents: int64(req.Amount*100 + 0.5)},
		Date:        date,
		Description: req.Description,
		ParentID:    req.ParentID,
	}

	created, err := s.service.CreateManualEntry(r.Context(), entry)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrUnknownVehicle):
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, core.ErrUnknownEntry):
			writeError(w, http.StatusUnprocessableEntity, err)
		case isValidationError(err):
			writeError(w, http.StatusUnprocessableEntity, err)
		default:
			slog.ErrorContext(r.Context(), "Create entry failed", "error", err)
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, toEntryResponse(created))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteEntry(r.Context(), r.PathValue("id")); err != nil {
		slog.ErrorContext(r.Context(), "Delete entry failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type deleteEntriesRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleDeleteEntries(w http.ResponseWriter, r *http.Request) {
	var req deleteEntriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("ids list cannot be empty"))
		return
	}

	n, err := s.service.DeleteEntries(r.Context(), req.IDs)
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete entries failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, clearExpensesResponse{Deleted: n})
}

type clearExpensesRequest struct {
	VehicleID string `json:"vehicleId"`
}

type clearExpensesResponse struct {
	Deleted int64 `json:"deleted"`
}

func (s *Server) handleClearExpenses(w http.ResponseWriter, r *http.Request) {
	var req clearExpensesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.VehicleID == "" {
		writeError(w, http.StatusUnprocessableEntity, core.ErrEmptyVehicleID)
		return
	}

	n, err := s.service.ClearExpenses(r.Context(), req.VehicleID)
	if err != nil {
		if errors.Is(err, core.ErrUnknownVehicle) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		slog.ErrorContext(r.Context(), "Clear expenses failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, clearExpensesResponse{Deleted: n})
}
