// Package httpadapter exposes the dashboard data API over chi.
package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"footprint/internal/domain"
	"footprint/internal/identity"
	"footprint/internal/ports"
	"footprint/internal/report"
	runner "footprint/internal/workers/investigationrunner"
)

const (
	defaultWait = 30 * time.Second
	maxBody     = 1 << 16
)

type Server struct {
	investigations ports.Investigations
	profiles       ports.Profiles
	jobs           ports.JobRepository
	processor      runner.Processor
	renderer       report.Renderer
	logger         *zap.Logger
}

func New(investigations ports.Investigations, profiles ports.Profiles, jobs ports.JobRepository, processor runner.Processor, logger *zap.Logger) *Server {
	return &Server{
		investigations: investigations,
		profiles:       profiles,
		jobs:           jobs,
		processor:      processor,
		logger:         logger.Named("http"),
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Route("/investigations", func(r chi.Router) {
		r.Post("/", s.createInvestigation)
		r.Get("/{id}", s.getInvestigation)
		r.Get("/{id}/snapshot", s.getSnapshot)
		r.Get("/{id}/report", s.getReport)
	})
	r.Get("/profiles", s.getProfile)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type acceptedResponse struct {
	ID string `json:"id"`
}

// createInvestigation queues a run. With ?wait=true it is processed inline,
// bounded by ?timeout=<seconds>, and the finished status is returned.
func (s *Server) createInvestigation(w http.ResponseWriter, r *http.Request) {
	var in identity.Input
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	id, err := s.investigations.Enqueue(r.Context(), in)
	if err != nil {
		s.fail(w, err)
		return
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if !wait {
		writeJSON(w, http.StatusAccepted, acceptedResponse{ID: id})
		return
	}
	timeout := defaultWait
	if secs, err := strconv.Atoi(r.URL.Query().Get("timeout")); err == nil && secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	if err := runner.ProcessInline(ctx, s.jobs, s.processor, id); err != nil {
		s.fail(w, err)
		return
	}
	s.writeStatus(r.Context(), w, id)
}

func (s *Server) getInvestigation(w http.ResponseWriter, r *http.Request) {
	s.writeStatus(r.Context(), w, chi.URLParam(r, "id"))
}

func (s *Server) writeStatus(ctx context.Context, w http.ResponseWriter, id string) {
	inv, err := s.investigations.Status(ctx, id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.investigations.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	format := report.FormatHTML
	if raw := r.URL.Query().Get("format"); raw != "" {
		f, err := report.ParseFormat(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = f
	}
	snap, err := s.investigations.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	body, err := s.renderer.Render(snap, format)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	snap, err := s.profiles.GetLatest(r.Context(), identity.Input{Email: q.Get("email"), Phone: q.Get("phone")})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type errorResponse struct {
	Error  string                `json:"error"`
	Fields []identity.FieldError `json:"fields,omitempty"`
}

// fail maps service errors onto status codes. Validation errors carry the
// full list of rejected fields.
func (s *Server) fail(w http.ResponseWriter, err error) {
	var ve *identity.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: ve.Fields})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "investigation did not finish in time")
	default:
		s.logger.Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
