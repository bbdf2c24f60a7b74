package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	applog "fluxadmin/internal/log"
	"fluxadmin/internal/middleware/ratelimit"
	"fluxadmin/internal/middleware/security"
	"fluxadmin/internal/middleware/trace"
	"fluxadmin/internal/services"
	appweb "fluxadmin/web"
)

// Pinger probes the backend for readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the console server.
type Options struct {
	Logger *applog.Logger
	// SettleRatePerMinute bounds POST requests per client.
	SettleRatePerMinute int
}

// Server is the operator console.
type Server struct {
	http.Server

	settlements *services.Settlements
	probe       Pinger
	templates   *template.Template
	logger      *applog.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and mounts every console route.
func NewServer(addr string, svc *services.Settlements, probe Pinger, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}

	t, err := template.New("console").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	s := &Server{
		settlements: svc,
		probe:       probe,
		templates:   t,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		limiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.SettleRatePerMinute}),
		detector:    security.NewDetector(),
		started:     time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(static),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(static fs.FS) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)
	r.With(security.StaticAssetMiddleware(3600)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	limited := s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)
	r.Group(func(r chi.Router) {
		r.Use(security.NoStore)

		r.Get("/", s.handleOverview)
		r.Get("/settlements", s.handleSettlements)
		r.Get("/settlements/{merchantID}", s.handleSettleForm)
		r.With(limited).Post("/settlements/{merchantID}", s.handleSettle)
		r.Get("/merchants", s.handleMerchants)
		r.Get("/merchants/{merchantID}", s.handleMerchant)
		r.With(limited).Post("/refresh", s.handleRefresh)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound, "Page not found")
	})
	return r
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldComponent, applog.ComponentRateLimit,
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError("Too many requests. Please wait a minute and try again.").
		TriggerErrorNotification("Too many requests. Please wait a minute and try again.").
		Write(w)
}

// page carries the layout fields shared by every full page.
type page struct {
	Title     string
	Active    string
	RequestID string
}

func (s *Server) newPage(r *http.Request, title, active string) page {
	return page{Title: title, Active: active, RequestID: trace.GetRequestID(r.Context())}
}

// render executes name into a buffer first so a template failure never
// leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldComponent, applog.ComponentTemplate,
			applog.FieldOperation, applog.OpRender,
			"template", name,
			applog.FieldError, err.Error())
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorPage struct {
	page
	Status  int
	Message string
}

// renderError shows the error state: a fragment for HTMX requests, a full page otherwise.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if isHTMX(r) {
		ErrorResponse(status, message).Write(w)
		return
	}
	s.render(w, r, status, "error.html", errorPage{
		page:    s.newPage(r, "Error", ""),
		Status:  status,
		Message: message,
	})
}

// readFailed logs a failed read and renders its error state.
func (s *Server) readFailed(w http.ResponseWriter, r *http.Request, what string, err error) {
	status := statusFor(err)
	logger := applog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Backend read failed",
			applog.FieldOperation, applog.OpRead,
			"view", what,
			applog.FieldError, err.Error(),
			"error_type", applog.ErrorTypeUpstream)
	} else {
		logger.InfoContext(r.Context(), "Read rejected",
			"view", what,
			applog.FieldStatusCode, status,
			applog.FieldError, err.Error())
	}
	s.renderError(w, r, status, "Error: "+err.Error())
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
