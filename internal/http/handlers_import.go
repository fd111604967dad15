package http

import (
	"log/slog"
	"net/http"
)

// Import endpoints take the raw CSV as the request body. A batch with
// bad rows still succeeds; the per-row errors come back in the report.

func (s *Server) handleImportTrips(w http.ResponseWriter, r *http.Request) {
	report, err := s.tripImporter.Import(r.Context(), r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	slog.InfoContext(r.Context(), "Trip import request finished",
		"added", report.Added,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"errors", len(report.Errors))
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleImportExpenses(w http.ResponseWriter, r *http.Request) {
	report, err := s.expenseImporter.Import(r.Context(), r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	slog.InfoContext(r.Context(), "Expense import request finished",
		"added", report.Added,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"errors", len(report.Errors))
	writeJSON(w, http.StatusOK, report)
}
