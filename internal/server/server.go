// Package server exposes the controller HTTP API: relay configuration and
// heartbeats, analytics, incidents, the metrics exporter and the alert test
// endpoint.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"watchdog"
	"watchdog/internal/config"
	"watchdog/internal/store"
)

// handlerTimeout bounds every request; an expired handler answers 408.
const handlerTimeout = 10 * time.Second

// AlertBroadcaster sends the canned test message to every configured medium.
type AlertBroadcaster interface {
	TriggerAllTestAlerts(ctx context.Context) error
}

// Server is the controller HTTP API.
type Server struct {
	conf   *config.Config
	store  *store.Store
	alerts AlertBroadcaster
	token  string
}

func New(conf *config.Config, st *store.Store, alerts AlertBroadcaster, token string) *Server {
	return &Server{conf: conf, store: st, alerts: alerts, token: token}
}

// Handler builds the chi router. Everything under /api/v1 requires the
// bearer token; anything else is a 404 without authentication.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(timeout(handlerTimeout))
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found", nil)
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(s.authenticate)
		api.Get("/relay/{region}", s.handleRelayConf)
		api.Put("/relay/{region}", s.handleRelayUpdate)
		api.Get("/analytics", s.handleAnalytics)
		api.Get("/incidents", s.handleIncidents)
		api.Get("/incidents/{id}", s.handleIncident)
		api.Get("/exporter", s.handleExporter)
		api.Post("/alerting/test", s.handleAlertTest)
	})
	return r
}

func (s *Server) handleRelayConf(w http.ResponseWriter, r *http.Request) {
	region := chi.URLParam(r, "region")

	conf, ok := s.conf.ExportRegion(region)
	if !ok {
		writeError(w, http.StatusNotFound, "Region not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, conf)
}

// handleRelayUpdate ingests one heartbeat. Group incidents are sticky: a
// still-failing group stays in the Incident state until a heartbeat reports
// it working again.
func (s *Server) handleRelayUpdate(w http.ResponseWriter, r *http.Request) {
	region := chi.URLParam(r, "region")

	if _, ok := s.conf.FindRegion(region); !ok {
		writeError(w, http.StatusNotFound, "Region not found", nil)
		return
	}

	var results []watchdog.GroupResult
	if err := json.NewDecoder(r.Body).Decode(&results); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", []string{err.Error()})
		return
	}

	hasWarning := false
	for _, result := range results {
		if !result.Working || result.HasWarnings {
			hasWarning = true
		}
		s.refreshGroup(region, result)
	}

	if status, ok := s.store.GetRegionStatus(region); ok && status.State == store.RegionDown {
		slog.Info("INCIDENT RESOLVED ON REGION", "region", region)
	}
	if err := s.store.RefreshRegion(region, hasWarning); err != nil {
		slog.Error("Failed to refresh region.", "region", region, "error", err)
	}

	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "close")
	w.Header().Set(watchdog.VersionHeader, s.conf.Version)
	writeJSON(w, http.StatusOK, map[string]bool{"result": true})
}

func (s *Server) refreshGroup(region string, result watchdog.GroupResult) {
	current, ok := s.store.GetGroupStatus(region, result.Name)
	if ok && current.State == store.GroupIncident && !result.Working {
		// Still failing inside an open incident; the incident record
		// already covers it.
		return
	}

	state := store.GroupDown
	if result.Working {
		state = store.GroupUp
		if result.HasWarnings {
			state = store.GroupWarn
		}
	}

	err := s.store.RefreshGroup(region, result.Name, state,
		result.Metrics, result.ErrorMessage, result.ErrorDetail)
	if err != nil {
		slog.Error("Failed to refresh group.",
			"region", region, "group", result.Name, "error", err)
	}
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ComputeAnalytics())
}

func (s *Server) handleIncidents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.FindIncidents())
}

func (s *Server) handleIncident(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid incident id", []string{raw})
		return
	}

	incident, ok := s.store.GetIncident(uint32(id))
	if !ok {
		writeError(w, http.StatusNotFound, "Incident not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, incident)
}

func (s *Server) handleAlertTest(w http.ResponseWriter, r *http.Request) {
	resp := watchdog.AlertTestResponse{AlertsSent: true}
	if err := s.alerts.TriggerAllTestAlerts(r.Context()); err != nil {
		slog.Error("Alert test broadcast failed.", "error", err)
		resp = watchdog.AlertTestResponse{Error: err.Error()}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response.", "error", err)
	}
}
