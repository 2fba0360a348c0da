// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the research pipeline over HTTP: a synchronous
// JSON endpoint and a streaming SSE endpoint, both behind basic auth.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pdiddy/deepresearch/internal/pipeline"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// Runner executes one research run. *pipeline.Pipeline satisfies it; tests
// supply a stub.
type Runner interface {
	Run(ctx context.Context, query string, emit pipeline.EmitFunc) (*types.ResearchResult, error)
}

// Recorder persists completed runs. *history.Store satisfies it.
type Recorder interface {
	Save(ctx context.Context, result *types.ResearchResult) error
}

// Server routes research requests to the pipeline.
type Server struct {
	router   chi.Router
	runner   Runner
	recorder Recorder
	cfg      types.ServerConfig
	validate *validator.Validate
	logger   *zap.Logger
}

// New builds a Server. recorder may be nil; runs are recorded only when it
// is set and cfg.RecordRuns is true. A nil logger falls back to zap.NewNop().
func New(cfg types.ServerConfig, runner Runner, recorder Recorder, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		runner:   runner,
		recorder: recorder,
		cfg:      cfg,
		validate: validator.New(),
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(cors.AllowAll().Handler)
	r.Use(RequestLogger(logger))

	r.Get("/healthz", s.handleHealthz)

	r.Group(func(r chi.Router) {
		r.Use(BasicAuth(cfg.BasicAuthUsername, cfg.BasicAuthPassword))
		r.Post("/login", s.handleLogin)
		r.Post("/api/v1/research", s.handleResearch)
		r.Post("/api/v1/research/stream", s.handleResearchStream)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe blocks serving on the configured address.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", zap.String("addr", s.cfg.Addr))
	return http.ListenAndServe(s.cfg.Addr, s)
}

// researchRequest is the inbound body for both research endpoints.
type researchRequest struct {
	Query string `json:"query" validate:"required,max=1000"`
}

// errorBody is the structured error envelope for non-2xx responses.
type errorBody struct {
	Kind    types.ErrorKind `json:"kind"`
	Message string          `json:"message"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Login successful",
		"username": UsernameFromContext(r.Context()),
	})
}

// decodeRequest parses and validates the request body. A failure has
// already been written to w.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (researchRequest, bool) {
	var req researchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, types.KindValidation, "request body must be JSON with a query field")
		return req, false
	}
	if err := s.validate.Struct(req); err != nil || strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusUnprocessableEntity, types.KindValidation, "query must be a non-empty string of at most 1000 characters")
		return req, false
	}
	return req, true
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := s.runner.Run(r.Context(), req.Query, nil)
	if err != nil {
		writeError(w, statusFor(err), types.KindOf(err), err.Error())
		return
	}

	s.record(r.Context(), result)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleResearchStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	stream, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, types.KindValidation, "streaming unsupported by connection")
		return
	}

	result, err := s.runner.Run(r.Context(), req.Query, func(e types.Event) {
		if werr := stream.WriteEvent(e); werr != nil {
			s.logger.Debug("stream write failed, client likely gone", zap.Error(werr))
		}
	})
	if err != nil {
		// The terminal error frame is already on the wire.
		return
	}
	s.record(r.Context(), result)
}

// record persists a completed run when recording is enabled. Failures are
// logged, never surfaced: the research result already belongs to the client.
func (s *Server) record(ctx context.Context, result *types.ResearchResult) {
	if s.recorder == nil || !s.cfg.RecordRuns {
		return
	}
	if err := s.recorder.Save(context.WithoutCancel(ctx), result); err != nil {
		s.logger.Warn("recording run failed", zap.String("run_id", result.ID), zap.Error(err))
	}
}

// statusFor maps an error kind to an HTTP status: client mistakes are 422,
// everything else is a failed upstream dependency.
func statusFor(err error) int {
	if types.IsKind(err, types.KindValidation) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, context.Canceled) {
		return http.StatusRequestTimeout
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind types.ErrorKind, message string) {
	writeJSON(w, status, errorBody{Kind: kind, Message: message})
}
