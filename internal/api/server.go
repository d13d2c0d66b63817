// Package api exposes the HTTP interface for the resolver service.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/licitaware/edital-resolver/internal/extract/ocr"
	"github.com/licitaware/edital-resolver/internal/metrics"
	"github.com/licitaware/edital-resolver/internal/resolver"
)

// requestTimeout bounds one resolution end to end; OCR over a large
// scanned document is the slowest path.
const requestTimeout = 5 * time.Minute

// Server wires HTTP handlers to the resolution cascade.
type Server struct {
	router  chi.Router
	service *resolver.Service
	ocrCfg  ocr.Config
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(service *resolver.Service, ocrCfg ocr.Config, logger *zap.Logger) *Server {
	metrics.Init()
	s := &Server{
		service: service,
		ocrCfg:  ocrCfg,
		logger:  logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metricsMiddleware)
	r.Use(timeoutMiddleware(requestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Get("/diagnostics", s.diagnostics)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/resolve", s.resolve)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"}, s.logger)
}

// diagnostics reports the health of the OCR toolchain so operators can
// tell a missing binary from a broken document.
func (s *Server) diagnostics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ocr.Probe(s.ocrCfg), s.logger)
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	var req resolver.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", s.logger)
		return
	}
	if req.Link == "" {
		writeError(w, http.StatusBadRequest, "link is required", s.logger)
		return
	}
	resolution := s.service.Resolve(r.Context(), req)
	writeJSON(w, http.StatusOK, resolution, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, payload any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string, logger *zap.Logger) {
	writeJSON(w, status, map[string]string{"error": msg}, logger)
}
