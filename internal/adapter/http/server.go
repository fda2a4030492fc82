package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/radar-archive-locator/internal/convention"
	"github.com/couchcryptid/radar-archive-locator/internal/domain"
	"github.com/couchcryptid/radar-archive-locator/internal/locator"
)

// Server exposes health, readiness, metrics, and synchronous locate endpoints.
type Server struct {
	httpServer *http.Server
	locator    *locator.Locator
	cfg        locator.Config
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and the
// /v1 locate routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, loc *locator.Locator, cfg locator.Config, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		locator: loc,
		cfg:     cfg,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/files", s.handleFiles)
	mux.HandleFunc("GET /v1/forecast", s.handleForecast)
	mux.HandleFunc("GET /v1/trt", s.handleTRT)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type filesResponse struct {
	Files     []string      `json:"files"`
	Skipped   []domain.Skip `json:"skipped"`
	Cancelled bool          `json:"cancelled"`
	Error     string        `json:"error,omitempty"`
}

type forecastResponse struct {
	Path      string    `json:"path"`
	Run       time.Time `json:"run"`
	LeadHours int       `json:"lead_hours"`
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	descriptor := q.Get("descriptor")
	if descriptor == "" {
		writeError(w, http.StatusBadRequest, errors.New("descriptor is required"))
		return
	}
	window, err := parseWindow(q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	files, err := s.locator.FileList(r.Context(), s.cfg, descriptor, window, q.Get("scan"))
	s.writeFiles(w, r, files, err)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	valid, err := parseTime(q.Get("valid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	radar := 0
	if v := q.Get("radar"); v != "" {
		radar, err = strconv.Atoi(v)
		if err != nil || radar < 0 {
			writeError(w, http.StatusBadRequest, errors.New("radar must be a non-negative index"))
			return
		}
	}

	sel, err := s.locator.ForecastFile(r.Context(), s.cfg, locator.ForecastQuery{
		Kind:       convention.ModelKind(q.Get("kind")),
		ValidTime:  valid,
		DataType:   q.Get("type"),
		Scan:       q.Get("scan"),
		RadarIndex: radar,
	})
	if err != nil {
		s.writeLocateError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, forecastResponse{
		Path:      sel.Path,
		Run:       sel.Run.RunTime,
		LeadHours: sel.Run.LeadHours,
	})
}

func (s *Server) handleTRT(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	window, err := parseWindow(q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	files, err := s.locator.TRTFileList(r.Context(), s.cfg, window)
	s.writeFiles(w, r, files, err)
}

// writeFiles answers a file listing. A cancelled search still carries the
// files found before cancellation, with status 503.
func (s *Server) writeFiles(w http.ResponseWriter, r *http.Request, files locator.Files, err error) {
	resp := filesResponse{
		Files:     nonNil(files.Paths),
		Skipped:   nonNil(files.Skipped),
		Cancelled: files.Cancelled,
	}
	switch {
	case err == nil:
		sharedobs.WriteJSON(w, http.StatusOK, resp)
	case errors.Is(err, domain.ErrCancelled):
		resp.Cancelled = true
		resp.Error = err.Error()
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, resp)
	default:
		s.writeLocateError(w, r, err)
	}
}

func (s *Server) writeLocateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsCallerError(err):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrCancelled):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		s.logger.Error("locate failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

// timeLayouts are the accepted query time formats, tried in order.
var timeLayouts = []string{time.RFC3339, "20060102150405", "200601021504"}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("missing time parameter")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("invalid time " + strconv.Quote(s) + ": want RFC 3339 or YYYYMMDDhhmm[ss]")
}

func parseWindow(start, end string) (domain.Window, error) {
	s, err := parseTime(start)
	if err != nil {
		return domain.Window{}, err
	}
	e, err := parseTime(end)
	if err != nil {
		return domain.Window{}, err
	}
	return domain.Window{Start: s, End: e}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
