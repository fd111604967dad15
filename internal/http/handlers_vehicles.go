package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/yabdulhakim1/oakRentalsFin/internal/core"
)

type vehicleRequest struct {
	Name                   string  `json:"name"`
	Make                   string  `json:"make"`
	Model                  string  `json:"model"`
	Year                   int     `json:"year"`
	PurchasePrice          float64 `json:"purchasePrice"`
	PurchaseDate           string  `json:"purchaseDate"`
	SaleDate               string  `json:"saleDate"`
	SalePrice              float64 `json:"salePrice"`
	SaleDisposition        string  `json:"saleDisposition"`
	ExcludedFromAggregates bool    `json:"excludedFromAggregates"`
}

type vehicleResponse struct {
	ID                     string  `json:"id"`
	Name                   string  `json:"name"`
	Make                   string  `json:"make"`
	Model                  string  `json:"model"`
	Year                   int     `json:"year"`
	PurchasePrice          float64 `json:"purchasePrice"`
	PurchaseDate           string  `json:"purchaseDate,omitempty"`
	SaleDate               string  `json:"saleDate,omitempty"`
	SalePrice              float64 `json:"salePrice,omitempty"`
	SaleDisposition        string  `json:"saleDisposition,omitempty"`
	ExcludedFromAggregates bool    `json:"excludedFromAggregates"`
	Status                 string  `json:"status"`
}

type roiResponse struct {
	TotalRevenue  float64 `json:"totalRevenue"`
	TotalExpenses float64 `json:"totalExpenses"`
	RentalProfit  float64 `json:"rentalProfit"`
	PurchasePrice float64 `json:"purchasePrice"`
	SalePrice     float64 `json:"salePrice"`
	MonthsOwned   int     `json:"monthsOwned"`
	TotalProfit   float64 `json:"totalProfit"`
	TotalROI      float64 `json:"totalROI"`
	MonthlyROI    float64 `json:"monthlyROI"`
	Status        string  `json:"status"`
}

func (vr vehicleRequest) toVehicle(id string) (core.Vehicle, error) {
	v := core.Vehicle{
		ID:                     id,
		Name:                   vr.Name,
		Make:                   vr.Make,
		Model:                  vr.Model,
		Year:                   vr.Year,
		PurchasePrice:          core.Money{Cents: int64(vr.PurchasePrice*100 + 0.5)},
		SalePrice:              core.Money{Cents: int64(vr.SalePrice*100 + 0.5)},
		SaleDisposition:        core.SaleDisposition(vr.SaleDisposition),
		ExcludedFromAggregates: vr.ExcludedFromAggregates,
	}

	var err error
	if vr.PurchaseDate != "" {
		if v.PurchaseDate, err = core.ParseDate(vr.PurchaseDate); err != nil {
			return core.Vehicle{}, fmt.Errorf("purchaseDate: %w", err)
		}
	}
	if vr.SaleDate != "" {
		if v.SaleDate, err = core.ParseDate(vr.SaleDate); err != nil {
			return core.Vehicle{}, fmt.Errorf("saleDate: %w", err)
		}
	}
	return v, nil
}

func toVehicleResponse(v core.Vehicle) vehicleResponse {
	resp := vehicleResponse{
		ID:                     v.ID,
		Name:                   v.Name,
		Make:                   v.Make,
		Model:                  v.Model,
		Year:                   v.Year,
		PurchasePrice:          v.PurchasePrice.Dollars(),
		SalePrice:              v.SalePrice.Dollars(),
		SaleDisposition:        string(v.SaleDisposition),
		ExcludedFromAggregates: v.ExcludedFromAggregates,
		Status:                 v.Status(),
	}
	if !v.PurchaseDate.IsEmpty() {
		resp.PurchaseDate = v.PurchaseDate.String()
	}
	if !v.SaleDate.IsEmpty() {
		resp.SaleDate = v.SaleDate.String()
	}
	return resp
}

func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := s.service.ListVehicles(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List vehicles failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := make([]vehicleResponse, len(vehicles))
	for i, v := range vehicles {
		resp[i] = toVehicleResponse(v)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	v, err := req.toVehicle("")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	created, err := s.service.CreateVehicle(r.Context(), v)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		slog.ErrorContext(r.Context(), "Create vehicle failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusCreated, toVehicleResponse(created))
}

func (s *Server) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	v, err := s.service.GetVehicle(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, core.ErrUnknownVehicle) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, toVehicleResponse(v))
}

func (s *Server) handleUpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	v, err := req.toVehicle(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	if err := s.service.UpdateVehicle(r.Context(), v); err != nil {
		switch {
		case errors.Is(err, core.ErrUnknownVehicle):
			writeError(w, http.StatusNotFound, err)
		case isValidationError(err):
			writeError(w, http.StatusUnprocessableEntity, err)
		default:
			slog.ErrorContext(r.Context(), "Update vehicle failed", "error", err)
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, toVehicleResponse(v))
}

type deleteVehicleResponse struct {
	DeletedEntries int64 `json:"deletedEntries"`
}

func (s *Server) handleDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	n, err := s.service.DeleteVehicle(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, core.ErrUnknownVehicle) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		slog.ErrorContext(r.Context(), "Delete vehicle failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteVehicleResponse{DeletedEntries: n})
}

func (s *Server) handleVehicleROI(w http.ResponseWriter, r *http.Request) {
	roi, err := s.service.VehicleROI(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, core.ErrUnknownVehicle) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		slog.ErrorContext(r.Context(), "Vehicle ROI failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, roiResponse{
		TotalRevenue:  roi.TotalRevenue.Dollars(),
		TotalExpenses: roi.TotalExpenses.Dollars(),
		RentalProfit:  roi.RentalProfit.Dollars(),
		PurchasePrice: roi.PurchasePrice.Dollars(),
		SalePrice:     roi.SalePrice.Dollars(),
		MonthsOwned:   roi.MonthsOwned,
		TotalProfit:   roi.TotalProfit.Dollars(),
		TotalROI:      roi.TotalROI,
		MonthlyROI:    roi.MonthlyROI,
		Status:        roi.Status,
	})
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidDate,
		core.ErrEndBeforeStart,
		core.ErrInvalidTripDuration,
		core.ErrNegativeAmount,
		core.ErrEmptyVehicleID,
		core.ErrEmptyVehicleName,
		core.ErrInvalidKind,
		core.ErrInvalidCategory,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
