package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/waterguard/waterguard/internal/auth"
	"github.com/waterguard/waterguard/internal/logbuf"
	"github.com/waterguard/waterguard/internal/pipeline"
	"github.com/waterguard/waterguard/internal/store"
	"github.com/waterguard/waterguard/internal/types"
	"github.com/waterguard/waterguard/internal/version"
)

// Deps are the collaborators the API server exposes
type Deps struct {
	Thresholds   *store.ThresholdStore
	Stations     *store.StationStore
	Alerts       *store.AlertStore
	History      *store.HistoryStore
	Calibrations *store.CalibrationStore
	Engine       *pipeline.Engine
	Auth         *auth.Service
	LogBuffer    *logbuf.Buffer
}

// Server provides the HTTP API
type Server struct {
	deps      Deps
	logger    zerolog.Logger
	port      string
	startTime time.Time
}

// NewServer creates a new API server
func NewServer(deps Deps, logger zerolog.Logger, port string) *Server {
	return &Server{
		deps:      deps,
		logger:    logger.With().Str("component", "api").Logger(),
		port:      port,
		startTime: time.Now(),
	}
}

// Handler builds the route table. Exposed separately so tests can drive
// the mux through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/api/stations", s.handleStations)
	mux.HandleFunc("/api/stations/", s.handleStationSubtree)
	mux.HandleFunc("/api/alerts", s.handleAlerts)
	mux.HandleFunc("/api/alerts/", s.handleAlertSubtree)
	mux.HandleFunc("/api/thresholds", s.handleThresholds)
	mux.HandleFunc("/api/thresholds/reset", s.handleThresholdsReset)
	mux.HandleFunc("/api/calibrations", s.handleCalibrations)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/auth/logout", s.handleLogout)
	mux.HandleFunc("/api/logs", s.handleLogs)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := ":" + s.port
	s.logger.Info().Str("address", addr).Msg("starting API server")
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stations":              len(s.deps.Stations.List()),
		"unacknowledged_alerts": s.deps.Alerts.UnacknowledgedCount(),
		"uptime":                time.Since(s.startTime).String(),
		"version":               version.GetVersion(),
		"commit":                version.GetCommit(),
		"time":                  time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	stations := s.deps.Stations.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stations": stations,
		"count":    len(stations),
	})
}

// handleStationSubtree routes /api/stations/{id}[/history|/measurements|/reports]
func (s *Server) handleStationSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/stations/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		http.Error(w, "station id required", http.StatusBadRequest)
		return
	}

	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}

	switch sub {
	case "":
		s.handleStationDetail(w, r, id)
	case "history":
		s.handleStationHistory(w, r, id)
	case "measurements":
		s.handleStationMeasurement(w, r, id)
	case "reports":
		s.handleStationReports(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleStationDetail(w http.ResponseWriter, r *http.Request, id string) {
	station, err := s.deps.Stations.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "station not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, station)
}

func (s *Server) handleStationHistory(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := s.deps.Stations.Get(id); errors.Is(err, store.ErrNotFound) {
		http.Error(w, "station not found", http.StatusNotFound)
		return
	}

	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid hours parameter", http.StatusBadRequest)
			return
		}
		hours = parsed
	}

	points := s.deps.History.Range(r.Context(), id, hours)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"points":  points,
		"count":   len(points),
		"summary": store.Summarize(points),
	})
}

// handleStationMeasurement accepts a manual reading and runs it through
// the pipeline, the same path MQTT readings take
func (s *Server) handleStationMeasurement(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Measurement types.Measurement `json:"measurement"`
		Battery     *float64          `json:"battery,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	battery := -1.0
	if body.Battery != nil {
		battery = *body.Battery
	}

	result, err := s.deps.Engine.Process(r.Context(), id, body.Measurement, battery, time.Now())
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "station not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, store.ErrStaleMeasurement) {
		http.Error(w, "measurement older than last update", http.StatusConflict)
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("station", id).Msg("failed to process measurement")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStationReports(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := s.deps.Stations.Get(id); errors.Is(err, store.ErrNotFound) {
		http.Error(w, "station not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		reports := s.deps.Calibrations.Reports(id)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"reports": reports,
			"count":   len(reports),
		})
	case http.MethodPost:
		var rep types.FieldReport
		if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		rep.StationID = id
		if user, ok := s.deps.Auth.Current(); ok && rep.Technician == "" {
			rep.Technician = user.Name
		}
		created, err := s.deps.Calibrations.AddReport(r.Context(), rep)
		if errors.Is(err, store.ErrMissingFields) {
			http.Error(w, "title and description are required", http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := s.deps.Alerts.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts":         alerts,
		"count":          len(alerts),
		"unacknowledged": s.deps.Alerts.UnacknowledgedCount(),
	})
}

// handleAlertSubtree routes /api/alerts/{id} and /api/alerts/{id}/ack
func (s *Server) handleAlertSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/alerts/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		http.Error(w, "alert id required", http.StatusBadRequest)
		return
	}

	if len(parts) == 2 && parts[1] == "ack" {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		alert, err := s.deps.Engine.Acknowledge(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "alert not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, alert)
		return
	}

	if len(parts) == 1 && r.Method == http.MethodDelete {
		err := s.deps.Engine.DeleteAlert(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "alert not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func (s *Server) handleThresholds(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.deps.Thresholds.Get())
	case http.MethodPut:
		var partial types.ThresholdUpdate
		if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, s.deps.Thresholds.Update(r.Context(), partial))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleThresholdsReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Thresholds.ResetToDefault(r.Context()))
}

func (s *Server) handleCalibrations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		calibrations := s.deps.Calibrations.Calibrations()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"calibrations": calibrations,
			"count":        len(calibrations),
		})
	case http.MethodPost:
		var rec types.CalibrationRecord
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		if user, ok := s.deps.Auth.Current(); ok && rec.Technician == "" {
			rec.Technician = user.Name
		}
		created, err := s.deps.Calibrations.AddCalibration(r.Context(), rec)
		if errors.Is(err, store.ErrMissingFields) {
			http.Error(w, "station, sensor type and technician are required", http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	user, err := s.deps.Auth.Login(r.Context(), creds.Email, creds.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		http.Error(w, "invalid email or password", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.deps.Auth.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	var entries []logbuf.Entry
	if s.deps.LogBuffer != nil {
		entries = s.deps.LogBuffer.Recent(200)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
