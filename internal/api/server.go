package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bluegreen-ops/poolwatch/internal/storage"
	"github.com/bluegreen-ops/poolwatch/internal/watcher"
)

// Server is the HTTP API server
type Server struct {
	status  *watcher.StatusCache
	history storage.AlertLog
	server  *http.Server
}

// NewServer creates a new API server. history may be nil when alert
// persistence is disabled.
func NewServer(status *watcher.StatusCache, history storage.AlertLog, addr string) *Server {
	s := &Server{
		status:  status,
		history: history,
	}

	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	// Session state endpoint
	mux.HandleFunc("/v1/status", s.handleStatus)

	// Alert history endpoint
	mux.HandleFunc("/v1/alerts", s.handleAlerts)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      loggingMiddleware(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting API server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down API server")
	return s.server.Shutdown(ctx)
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleReady handles GET /readyz
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st := s.status.Get()

	// The session is ready once it has processed at least one line.
	ready := st.LinesSeen > 0
	reasons := []string{}
	if !ready {
		reasons = append(reasons, "no log lines processed yet")
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, ReadyResponse{
		Ready:   ready,
		Reasons: reasons,
	})
}

// handleStatus handles GET /v1/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st := s.status.Get()

	resp := StatusResponse{
		PrimaryPool:      st.PrimaryPool,
		LastSeenPool:     st.LastSeenPool,
		MaintenanceMode:  st.MaintenanceMode,
		LinesSeen:        st.LinesSeen,
		LinesSkipped:     st.LinesSkipped,
		WindowFill:       st.WindowFill,
		WindowSize:       st.WindowSize,
		AlertsDelivered:  st.AlertsDelivered,
		AlertsSuppressed: st.AlertsSuppressed,
		UpdatedAt:        st.UpdatedAt,
	}
	if st.ErrorRateValid {
		rate := st.ErrorRate
		resp.ErrorRate = &rate
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleAlerts handles GET /v1/alerts
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.history == nil {
		respondError(w, http.StatusServiceUnavailable, "alert history not configured")
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit: %s", limitStr))
			return
		}
		limit = parsed
	}

	records, err := s.history.Recent(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to query alert history: %v", err))
		return
	}

	responseRecords := make([]AlertRecordResponse, len(records))
	for i, record := range records {
		details := make([]AlertDetail, len(record.Details))
		for j, d := range record.Details {
			details[j] = AlertDetail{Label: d.Label, Value: d.Value}
		}

		responseRecords[i] = AlertRecordResponse{
			ID:        record.ID,
			Type:      record.Type,
			Message:   record.Message,
			Outcome:   record.Outcome,
			Details:   details,
			Timestamp: record.Timestamp,
			CreatedAt: record.CreatedAt,
		}
	}

	respondJSON(w, http.StatusOK, AlertsResponse{
		Alerts: responseRecords,
		Total:  len(responseRecords),
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}
