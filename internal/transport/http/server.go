// Package http is the daemon's local REST surface: telemetry ingestion from
// the four source connectors, current-state and timeline queries, derived
// session/daily analytics, and settings read/write. Router wiring and the
// writeJSON/writeError/CORS conventions follow the teacher's api.Server.
package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"cogload/internal/aggregator"
	"cogload/internal/analytics"
	"cogload/internal/domain"
	"cogload/internal/listeners/taskqueue"
	"cogload/internal/policy"
	"cogload/internal/settings"
	"cogload/internal/sources"
	"cogload/internal/store"
	"cogload/internal/telemetrymetrics"
)

// Server wires the aggregator, timeline store, analytics, policy engine,
// settings store, and task queue into a single HTTP surface.
type Server struct {
	agg      *aggregator.Aggregator
	timeline *store.DB
	policy   *policy.Engine
	settings *settings.Store
	tasks    *taskqueue.Manager
	log      *zap.Logger
	now      func() time.Time

	metricsEnabled bool
}

// New constructs a Server. now defaults to time.Now when nil.
func New(agg *aggregator.Aggregator, timeline *store.DB, pol *policy.Engine, st *settings.Store, tasks *taskqueue.Manager, log *zap.Logger, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	return &Server{agg: agg, timeline: timeline, policy: pol, settings: st, tasks: tasks, log: log, now: now}
}

// EnableMetrics turns on the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/events", func(r chi.Router) {
		r.Post("/browser", s.handleIngestBrowser)
		r.Post("/ide", s.handleIngestIDE)
		r.Post("/desktop", s.handleIngestDesktop)
		r.Post("/lms", s.handleIngestLMS)
	})

	r.Get("/api/state", s.handleState)
	r.Get("/api/actions", s.handleActions)
	r.Get("/api/timeline", s.handleTimeline)
	r.Get("/api/sessions", s.handleSessions)
	r.Get("/api/daily", s.handleDaily)

	r.Route("/api/settings", func(r chi.Router) {
		r.Get("/", s.handleSettingsGet)
		r.Patch("/", s.handleSettingsPatch)
	})

	r.Route("/api/tasks", func(r chi.Router) {
		r.Get("/", s.handleTasksList)
		r.Post("/", s.handleTaskCreate)
		r.Delete("/{id}", s.handleTaskDelete)
		r.Post("/complete", s.handleTaskComplete)
	})

	return r
}

// ─── Telemetry ingestion ────────────────────────────────────────────────────

func (s *Server) handleIngestBrowser(w http.ResponseWriter, r *http.Request) {
	var p sources.BrowserPayload
	if !decodeJSON(w, r, &p) {
		return
	}
	e, ok := sources.ParseBrowserEvent(p, s.now)
	s.finishIngest(w, e, ok)
}

func (s *Server) handleIngestIDE(w http.ResponseWriter, r *http.Request) {
	var p sources.IDEPayload
	if !decodeJSON(w, r, &p) {
		return
	}
	e, ok := sources.ParseIDEEvent(p, s.now)
	s.finishIngest(w, e, ok)
}

func (s *Server) handleIngestDesktop(w http.ResponseWriter, r *http.Request) {
	var p sources.DesktopPayload
	if !decodeJSON(w, r, &p) {
		return
	}
	e, ok := sources.ParseDesktopEvent(p, s.now)
	s.finishIngest(w, e, ok)
}

func (s *Server) handleIngestLMS(w http.ResponseWriter, r *http.Request) {
	var p sources.LMSPayload
	if !decodeJSON(w, r, &p) {
		return
	}
	e, ok := sources.ParseLMSEvent(p, s.now)
	s.finishIngest(w, e, ok)
}

func (s *Server) finishIngest(w http.ResponseWriter, e domain.TelemetryEvent, ok bool) {
	if !ok {
		telemetrymetrics.EventsRejected.WithLabelValues("unknown_type").Inc()
		writeError(w, http.StatusUnprocessableEntity, "unrecognized event type")
		return
	}
	telemetrymetrics.EventsIngested.WithLabelValues(string(e.Source)).Inc()
	s.agg.PushEventAsync(e)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// ─── State & actions ────────────────────────────────────────────────────────

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agg.CurrentState())
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	state := s.agg.CurrentState()
	est := domain.LoadEstimate{Score: state.LoadScore, Confidence: state.Confidence}
	writeJSON(w, http.StatusOK, map[string]any{
		"directives":  s.policy.Evaluate(est, state.Context),
		"description": s.policy.Describe(est, state.Context),
	})
}

// ─── Timeline & analytics ───────────────────────────────────────────────────

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	q := store.Query{}
	if v := r.URL.Query().Get("since"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since")
			return
		}
		q.Since = &f
	}
	if v := r.URL.Query().Get("until"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid until")
			return
		}
		q.Until = &f
	}
	if v := r.URL.Query().Get("source"); v != "" {
		src := domain.Source(v)
		q.Source = &src
	}
	q.Limit = 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		q.Limit = n
	}

	entries, err := s.timeline.Query(q)
	if err != nil {
		if err == domain.ErrLimitExceeded {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	since, until, ok := parseRange(w, r)
	if !ok {
		return
	}
	gap := gapMinutesParam(r, s.settings.Current().SessionGapMinutes)
	sessions, err := analytics.Sessions(s.timeline, since, until, gap)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	since, until, ok := parseRange(w, r)
	if !ok {
		return
	}
	gap := gapMinutesParam(r, s.settings.Current().SessionGapMinutes)
	stats, err := analytics.DailyStats(s.timeline, since, until, gap, s.now())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func parseRange(w http.ResponseWriter, r *http.Request) (since, until *float64, ok bool) {
	if v := r.URL.Query().Get("since"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since")
			return nil, nil, false
		}
		since = &f
	}
	if v := r.URL.Query().Get("until"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid until")
			return nil, nil, false
		}
		until = &f
	}
	return since, until, true
}

func gapMinutesParam(r *http.Request, fallback int) float64 {
	if v := r.URL.Query().Get("gap_minutes"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return float64(fallback)
}

// ─── Settings ───────────────────────────────────────────────────────────────

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Current())
}

func (s *Server) handleSettingsPatch(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if !decodeJSON(w, r, &patch) {
		return
	}
	updated, err := s.settings.Update(patch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ─── Task queue ─────────────────────────────────────────────────────────────

type taskCreateRequest struct {
	Title            string   `json:"title"`
	Difficulty       string   `json:"difficulty"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	Tags             []string `json:"tags"`
}

func (s *Server) handleTasksList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tasks.All())
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var req taskCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	t := taskqueue.Task{
		ID:               uuid.NewString(),
		Title:            req.Title,
		Difficulty:       taskqueue.Difficulty(req.Difficulty),
		EstimatedMinutes: req.EstimatedMinutes,
		Tags:             req.Tags,
	}
	s.tasks.Add(t)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.tasks.Remove(id) {
		writeError(w, http.StatusNotFound, domain.ErrTaskNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleTaskComplete(w http.ResponseWriter, r *http.Request) {
	t, ok := s.tasks.CompleteCurrent()
	if !ok {
		writeError(w, http.StatusNotFound, "no task queued")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"message": msg},
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
