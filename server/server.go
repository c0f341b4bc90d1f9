// Package server exposes label validation and PDF export over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ByLCY/foodlabels/label"
	"github.com/ByLCY/foodlabels/layout"
	"github.com/ByLCY/foodlabels/renderer"
	"github.com/ByLCY/foodlabels/source"
)

// FileName is the attachment name of exported documents.
const FileName = "food-labels.pdf"

const maxBodyBytes = 1 << 20

// Server serves the label endpoints. One Engine is shared by all requests;
// layout and painting are serialized because font faces are shared.
type Server struct {
	engine renderer.Engine
	logger *log.Logger
	meta   layout.DocumentMeta

	mu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMeta sets PDF metadata defaults for every export.
func WithMeta(m layout.DocumentMeta) Option {
	return func(s *Server) { s.meta = m }
}

// New creates a Server around engine.
func New(engine renderer.Engine, opts ...Option) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("server: missing render engine")
	}
	s := &Server{engine: engine, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the chi router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	r.Route("/labels", func(r chi.Router) {
		r.Post("/validate", s.handleValidate)
		r.Post("/pdf", s.handlePDF)
	})
	return r
}

// FieldIssue is one entry of Report.Errors.
type FieldIssue struct {
	Field  label.Field `json:"field"`
	Reason string      `json:"reason"`
}

// Report is the validation response body.
type Report struct {
	Ready    bool         `json:"ready"`
	Complete bool         `json:"complete"`
	Errors   []FieldIssue `json:"errors"`
}

// NewReport summarizes the state of form.
func NewReport(form *label.Form) Report {
	rep := Report{Ready: form.Ready(), Complete: form.Complete(), Errors: []FieldIssue{}}
	for _, fe := range form.Errors() {
		rep.Errors = append(rep.Errors, FieldIssue{Field: fe.Field, Reason: fe.Reason()})
	}
	return rep
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	form, err := s.decodeForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, NewReport(form))
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	form, err := s.decodeForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	force := r.URL.Query().Get("force") == "1" || r.URL.Query().Get("force") == "true"
	if !form.Ready() && !force {
		writeJSON(w, http.StatusUnprocessableEntity, NewReport(form))
		return
	}

	rec := form.Snapshot()
	data, res, err := s.render(rec)
	if err != nil {
		if errors.Is(err, label.ErrMalformedDate) {
			writeJSON(w, http.StatusUnprocessableEntity, NewReport(form))
			return
		}
		s.logger.Error("render failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if overflowed(res) {
		s.logger.Warn("label content clipped; a denser setting may fit", "density", res.Density)
		w.Header().Set("X-Label-Overflow", "true")
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) render(rec label.Record) ([]byte, *layout.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := layout.Build(rec, rec.Density, layout.BuildOptions{Typesetter: s.engine, Meta: s.meta})
	if err != nil {
		return nil, nil, err
	}
	data, err := s.engine.Render(res)
	if err != nil {
		return nil, nil, err
	}
	return data, res, nil
}

// decodeForm 解析请求体中的字段并应用到新表单，density 查询参数优先于请求体。
func (s *Server) decodeForm(r *http.Request) (*label.Form, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("server: read body: %w", err)
	}
	form := label.NewForm()
	if len(bytes.TrimSpace(body)) > 0 {
		edits, err := source.JSONFile{}.Parse(body, "request")
		if err != nil {
			return nil, err
		}
		if err := form.ApplyAll(edits); err != nil {
			return nil, err
		}
	}
	if q := r.URL.Query().Get("density"); q != "" {
		d, err := label.ParseDensity(q)
		if err != nil {
			return nil, err
		}
		if err := form.SetDensity(d); err != nil {
			return nil, err
		}
	}
	return form, nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start).Round(time.Millisecond),
			"id", middleware.GetReqID(r.Context()),
		)
	})
}

func overflowed(res *layout.Result) bool {
	for _, c := range res.Cells {
		if c.Overflow {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
