// Package http exposes the fleet ledger as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/yabdulhakim1/oakRentalsFin/internal/core"
	"github.com/yabdulhakim1/oakRentalsFin/internal/importer"
	"github.com/yabdulhakim1/oakRentalsFin/internal/services"
	"github.com/yabdulhakim1/oakRentalsFin/internal/storage"
)

type Server struct {
	http.Server
	service         *services.LedgerService
	tripImporter    *importer.TripImporter
	expenseImporter *importer.ExpenseImporter
	rateLimiter     *rateLimiter

	// LRU caches for the aggregate endpoints, purged on any ledger
	// change notification.
	statsCache   *lruCache[core.FleetStats]
	monthlyCache *lruCache[[]core.MonthStats]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run
// server. notifier may be nil; without it caches expire on TTL only.
func NewServer(addr string, svc *services.LedgerService, trips *importer.TripImporter, expenses *importer.ExpenseImporter, notifier storage.Notifier) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		service:          svc,
		tripImporter:     trips,
		expenseImporter:  expenses,
		rateLimiter:      newRateLimiter(),
		statsCache:       newLRUCache[core.FleetStats](100, 5*time.Minute),
		monthlyCache:     newLRUCache[[]core.MonthStats](100, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()
	if notifier != nil {
		go s.watchChanges(notifier.Subscribe())
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/fleet/stats", s.withMiddleware(s.handleFleetStats))
	mux.HandleFunc("GET /api/fleet/monthly", s.withMiddleware(s.handleFleetMonthly))

	mux.HandleFunc("GET /api/vehicles", s.withMiddleware(s.handleListVehicles))
	mux.HandleFunc("POST /api/vehicles", s.withMiddleware(s.handleCreateVehicle))
	mux.HandleFunc("GET /api/vehicles/{id}", s.withMiddleware(s.handleGetVehicle))
	mux.HandleFunc("PUT /api/vehicles/{id}", s.withMiddleware(s.handleUpdateVehicle))
	mux.HandleFunc("DELETE /api/vehicles/{id}", s.withMiddleware(s.handleDeleteVehicle))
	mux.HandleFunc("GET /api/vehicles/{id}/roi", s.withMiddleware(s.handleVehicleROI))

	mux.HandleFunc("GET /api/entries", s.withMiddleware(s.handleListEntries))
	mux.HandleFunc("POST /api/entries", s.withMiddleware(s.handleCreateEntry))
	mux.HandleFunc("DELETE /api/entries", s.withMiddleware(s.handleDeleteEntries))
	mux.HandleFunc("DELETE /api/entries/{id}", s.withMiddleware(s.handleDeleteEntry))
	mux.HandleFunc("POST /api/entries/clear-expenses", s.withMiddleware(s.handleClearExpenses))

	mux.HandleFunc("POST /api/import/trips", s.withMiddleware(s.handleImportTrips))
	mux.HandleFunc("POST /api/import/expenses", s.withMiddleware(s.handleImportExpenses))

	return s
}

// watchChanges purges the aggregate caches whenever the store reports
// a mutation. Exits when the subscription channel closes.
func (s *Server) watchChanges(ch <-chan struct{}) {
	for range ch {
		s.statsCache.Purge()
		s.monthlyCache.Purge()
	}
}

// startCacheCleanup runs periodic cleanup for both caches.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			statsCleaned := s.statsCache.CleanExpired()
			monthlyCleaned := s.monthlyCache.CleanExpired()
			if statsCleaned > 0 || monthlyCleaned > 0 {
				slog.Debug("Cache cleanup completed",
					"stats_entries_removed", statsCleaned,
					"monthly_entries_removed", monthlyCleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withMiddleware adds security headers, rate limiting on mutating
// methods, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
