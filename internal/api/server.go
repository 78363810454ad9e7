package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"biogasd/internal/alerts"
	"biogasd/internal/config"
	"biogasd/internal/engine"
	"biogasd/internal/live"
	"biogasd/internal/model"
	"biogasd/internal/status"
)

type Server struct {
	cfg     *config.Manager
	session *live.Session
	alerts  *alerts.Store
	status  *status.Store
	logger  *slog.Logger
	version string
	started time.Time
}

type statusResponse struct {
	Status     string                `json:"status"`
	Time       string                `json:"time"`
	Version    string                `json:"version"`
	Uptime     string                `json:"uptime"`
	Connection model.ConnectionState `json:"connection"`
	System     systemStatus          `json:"system"`
	LastUpdate string                `json:"last_update"`
	Ingest     ingestStatus          `json:"ingest"`
}

type systemStatus struct {
	Level   model.MetricStatus `json:"level"`
	Label   string             `json:"label"`
	Message string             `json:"message"`
}

type ingestStatus struct {
	MQTT  bool   `json:"mqtt"`
	Topic string `json:"topic"`
	Kafka bool   `json:"kafka"`
	REST  bool   `json:"rest"`
}

// Start serves the dashboard-facing read API. Everything it exposes is a
// snapshot of session state; nothing here mutates the buffer.
func Start(ctx context.Context, cfg *config.Manager, session *live.Session, alertsStore *alerts.Store, statusStore *status.Store, logger *slog.Logger, version string) *http.Server {
	if cfg == nil {
		return nil
	}
	current := cfg.Get().API
	if !current.Enabled {
		if logger != nil {
			logger.Info("api disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("api enabled", "addr", current.Addr)
	}
	server := &Server{
		cfg:     cfg,
		session: session,
		alerts:  alertsStore,
		status:  statusStore,
		logger:  logger,
		version: version,
		started: time.Now().UTC(),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/status", server.handleStatus)
	mux.HandleFunc("/readings/latest", server.handleLatest)
	mux.HandleFunc("/readings", server.handleReadings)
	mux.HandleFunc("/alerts", server.handleAlerts)
	mux.HandleFunc("/activity", server.handleActivity)
	mux.HandleFunc("/series", server.handleSeries)
	mux.HandleFunc("/devices", server.handleDevices)
	mux.HandleFunc("/admin/clear", server.handleClear)

	httpServer := &http.Server{Addr: current.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Error("api server error", "err", err)
			}
		}
	}()
	return httpServer
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cfg := s.cfg.Get()
	latest := s.session.Latest()
	level, label, message := engine.Overall(latest, s.session.Bands())
	lastUpdate := "–"
	if latest != nil {
		lastUpdate = latest.Timestamp.Format("15:04")
	}
	resp := statusResponse{
		Status:     "ok",
		Time:       time.Now().UTC().Format(time.RFC3339Nano),
		Version:    s.version,
		Uptime:     time.Since(s.started).Round(time.Second).String(),
		Connection: s.session.ConnectionState(),
		System:     systemStatus{Level: level, Label: label, Message: message},
		LastUpdate: lastUpdate,
		Ingest: ingestStatus{
			MQTT:  cfg.MQTT.Enabled,
			Topic: cfg.MQTT.Topic,
			Kafka: cfg.Ingest.Kafka.Enabled,
			REST:  cfg.Ingest.REST.Enabled,
		},
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reading": s.session.Latest(),
	})
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := queryInt(r, "limit", 0)
	readings := s.session.History()
	if limit > 0 && limit < len(readings) {
		readings = readings[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"readings": readings,
		"count":    len(readings),
	})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var list []model.Alert
	if r.URL.Query().Get("source") == "log" {
		list = s.alerts.List(0)
	} else {
		list = s.session.Feed()
	}

	severity := strings.ToLower(r.URL.Query().Get("severity"))
	if severity == string(model.SeverityWarning) || severity == string(model.SeverityCritical) {
		filtered := list[:0:0]
		for _, a := range list {
			if string(a.Severity) == severity {
				filtered = append(filtered, a)
			}
		}
		list = filtered
	}

	switch strings.ToLower(r.URL.Query().Get("range")) {
	case "today":
		list = filterSince(list, startOfDay(time.Now().UTC()))
	case "week":
		list = filterSince(list, time.Now().UTC().AddDate(0, 0, -7))
	}

	if limit := queryInt(r, "limit", 0); limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": list,
		"count":  len(list),
	})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	events := engine.Activity(s.session.Latest(), time.Now().UTC(), s.session.Bands())
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
	})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	metric := model.Metric(r.URL.Query().Get("metric"))
	if metric == "" {
		metric = model.MetricPressure
	}
	switch metric {
	case model.MetricTemperature, model.MetricPressure, model.MetricMethane, model.MetricGas:
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	limit := queryInt(r, "limit", 0)
	points := s.session.SeriesFor(metric, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"metric": metric,
		"points": points,
		"count":  len(points),
	})
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": s.status.GetAll(),
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, _ := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	var req struct {
		Target string `json:"target"`
	}
	_ = json.Unmarshal(body, &req)
	target := strings.ToLower(strings.TrimSpace(req.Target))
	if target == "" {
		target = "all"
	}
	switch target {
	case "all":
		s.session.ClearHistory()
		s.alerts.Clear()
		s.status.Clear()
	case "alerts":
		s.alerts.Clear()
	case "devices":
		s.status.Clear()
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func filterSince(list []model.Alert, cutoff time.Time) []model.Alert {
	out := list[:0:0]
	for _, a := range list {
		if !a.Timestamp.Before(cutoff) {
			out = append(out, a)
		}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
