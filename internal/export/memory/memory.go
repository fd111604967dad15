// Package memory is an in-process report sink for tests and local
// runs without Google credentials.
package memory

import (
	"context"
	"sync"

	"github.com/yabdulhakim1/oakRentalsFin/internal/export"
)

type Writer struct {
	mu      sync.Mutex
	reports []export.Report
}

var _ export.ReportWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

func (w *Writer) WriteReport(_ context.Context, r export.Report) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reports = append(w.reports, r)
	return nil
}

// Last returns the most recently written report.
func (w *Writer) Last() (export.Report, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.reports) == 0 {
		return export.Report{}, false
	}
	return w.reports[len(w.reports)-1], true
}

// Count returns how many reports have been written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.reports)
}
