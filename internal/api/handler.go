// Package api serves the estimator, sessions, experiments and knowledge
// over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/verte-zerg/brainbuddy/internal/brainwave"
	"github.com/verte-zerg/brainbuddy/internal/store"
	"github.com/verte-zerg/brainbuddy/internal/training"
)

// Version is reported by the root endpoint.
const Version = "0.1.0"

const requestIDHeader = "X-Request-ID"

// Handler manages the HTTP interface.
type Handler struct {
	svc    *training.Service
	est    *brainwave.Estimator
	log    *zap.Logger
	router *mux.Router
}

// NewHandler wires the routes. A nil estimator gets a time-seeded one.
func NewHandler(svc *training.Service, est *brainwave.Estimator, log *zap.Logger) *Handler {
	if est == nil {
		est = brainwave.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		svc:    svc,
		est:    est,
		log:    log,
		router: mux.NewRouter(),
	}
	h.routes()
	return h
}

// ServeHTTP satisfies http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.router.Use(h.logRequests)
	h.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	h.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	h.router.HandleFunc("/", h.Root).Methods(http.MethodGet)
	h.router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	h.router.HandleFunc("/analyze", h.Analyze).Methods(http.MethodPost)
	h.router.HandleFunc("/audio-features", h.AudioFeatures).Methods(http.MethodGet)
	h.router.HandleFunc("/music/{state}", h.Music).Methods(http.MethodGet)
	h.router.HandleFunc("/bands", h.Bands).Methods(http.MethodGet)

	// /sessions/stats is registered before /sessions/{id} so it is not
	// parsed as an id.
	h.router.HandleFunc("/sessions", h.ListSessions).Methods(http.MethodGet)
	h.router.HandleFunc("/sessions", h.CreateSession).Methods(http.MethodPost)
	h.router.HandleFunc("/sessions/stats", h.SessionStats).Methods(http.MethodGet)
	h.router.HandleFunc("/sessions/{id:[0-9]+}", h.GetSession).Methods(http.MethodGet)
	h.router.HandleFunc("/sessions/{id:[0-9]+}/rating", h.RateSession).Methods(http.MethodPatch)
	h.router.HandleFunc("/sessions/{id:[0-9]+}/feedback", h.GetFeedback).Methods(http.MethodGet)
	h.router.HandleFunc("/sessions/{id:[0-9]+}/feedback", h.SubmitFeedback).Methods(http.MethodPost)

	h.router.HandleFunc("/experiments/types", h.ExperimentTypes).Methods(http.MethodGet)
	h.router.HandleFunc("/experiments", h.ListExperiments).Methods(http.MethodGet)
	h.router.HandleFunc("/experiments", h.StartExperiment).Methods(http.MethodPost)
	h.router.HandleFunc("/experiments/{id:[0-9]+}/complete", h.CompleteExperiment).Methods(http.MethodPost)

	h.router.HandleFunc("/knowledge", h.ListKnowledge).Methods(http.MethodGet)
	h.router.HandleFunc("/knowledge/recommendations/{module}", h.Recommendations).Methods(http.MethodGet)
	h.router.HandleFunc("/knowledge/{id}", h.GetKnowledge).Methods(http.MethodGet)
}

// Root reports that the API is up.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "online",
		"message": "Brain Buddy API is running",
		"version": Version,
	})
}

// HealthCheck verifies the database is reachable.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "healthy", "database": "connected"}
	status := http.StatusOK
	if err := h.svc.Ping(r.Context()); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		resp["status"] = "degraded"
		resp["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.Info("request",
			zap.String("id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Best-effort: the status line is already sent.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// fail maps service errors onto status codes.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *training.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, training.ErrExperimentCompleted):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
