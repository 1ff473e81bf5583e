package httpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appdiag "github.com/bryanwahyu/homefix-vision/internal/application/diagnosis"
	"github.com/bryanwahyu/homefix-vision/internal/domain/diagnosis"
	"github.com/bryanwahyu/homefix-vision/internal/domain/tutorials"
	"github.com/bryanwahyu/homefix-vision/internal/logger"
	"github.com/bryanwahyu/homefix-vision/internal/middleware"
)

const (
	defaultMaxBodyBytes = 20 << 20
	maxTutorialResults  = 25
)

// Options carries everything the router needs. Nil fields disable the matching feature.
type Options struct {
	Analyzer     *appdiag.Service
	Tutorials    tutorials.Finder
	TutorialsMax int

	Metrics      *middleware.Metrics
	RateLimiter  *middleware.RateLimiter
	APIKeys      map[string]string
	CORSOrigins  []string
	Checkers     map[string]middleware.HealthChecker
	MaxBodyBytes int64
	Logger       *slog.Logger
}

type Router struct {
	analyzer     *appdiag.Service
	tutorials    tutorials.Finder
	tutorialsMax int
	maxBody      int64
	log          *slog.Logger
}

func NewRouter(opts Options) http.Handler {
	r := &Router{
		analyzer:     opts.Analyzer,
		tutorials:    opts.Tutorials,
		tutorialsMax: opts.TutorialsMax,
		maxBody:      opts.MaxBodyBytes,
		log:          opts.Logger,
	}
	if r.maxBody <= 0 {
		r.maxBody = defaultMaxBodyBytes
	}
	if r.log == nil {
		r.log = slog.Default()
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	if opts.Metrics != nil {
		mux.Use(opts.Metrics.Middleware)
	}
	mux.Use(middleware.LoggingMiddleware(r.log))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrorBody{Error: "Not Found"})
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, middleware.ErrorBody{Error: "Method Not Allowed"})
	})

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/ready", middleware.HealthHandler(readinessChecks(opts)))
	if opts.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	protect := func(h http.Handler) http.Handler {
		if opts.RateLimiter != nil {
			h = opts.RateLimiter.Middleware(h)
		}
		return middleware.APIKeyAuth(opts.APIKeys)(h)
	}

	// every method reaches postOnly, ahead of auth, so a wrong one always gets the 405 body
	analyze := postOnly(protect(r.wrap(r.handleAnalyze)))
	mux.Handle("/api/analyze", analyze)
	mux.Handle("/.netlify/functions/analyze", analyze)
	mux.Method(http.MethodGet, "/api/tutorials", protect(r.wrap(r.handleTutorials)))

	return mux
}

func readinessChecks(opts Options) map[string]middleware.HealthChecker {
	checks := make(map[string]middleware.HealthChecker, len(opts.Checkers)+1)
	for name, c := range opts.Checkers {
		checks[name] = c
	}
	checks["model"] = middleware.CheckFunc(func(context.Context) error {
		if opts.Analyzer == nil || opts.Analyzer.Gateway == nil {
			return errors.New("model provider credential is not configured")
		}
		return nil
	})
	return checks
}

func postOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			status, body := errorResponse(diagnosis.MethodNotAllowed(req.Method))
			middleware.WriteError(w, status, body)
			return
		}
		next.ServeHTTP(w, req)
	})
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status, body := errorResponse(err)
			if status >= 500 {
				r.log.ErrorContext(req.Context(), "request failed", "path", req.URL.Path, logger.Err(err))
			}
			middleware.WriteError(w, status, body)
		}
	}
}

var titles = map[diagnosis.Kind]string{
	diagnosis.KindConfiguration:    "Configuration Error",
	diagnosis.KindMethodNotAllowed: "Method Not Allowed",
	diagnosis.KindInvalidRequest:   "Invalid Request",
	diagnosis.KindModel:            "Model Error",
	diagnosis.KindExtraction:       "Extraction Error",
	diagnosis.KindValidation:       "Validation Error",
}

// errorResponse maps an error to its status and body.
func errorResponse(err error) (int, middleware.ErrorBody) {
	var e *diagnosis.Error
	if !errors.As(err, &e) {
		var upstream *upstreamError
		if errors.As(err, &upstream) {
			return http.StatusBadGateway, middleware.ErrorBody{Error: "Bad Gateway", Details: upstream.Error()}
		}
		return http.StatusInternalServerError, middleware.ErrorBody{Error: "Internal Server Error"}
	}

	if e.Kind == diagnosis.KindMethodNotAllowed {
		// exact body kept for existing clients
		return http.StatusMethodNotAllowed, middleware.ErrorBody{Error: "Method Not Allowed"}
	}

	body := middleware.ErrorBody{Error: titles[e.Kind], Details: e.Details(), Type: string(e.Kind)}
	if body.Error == "" {
		body.Error = "Internal Server Error"
	}
	if e.Kind == diagnosis.KindInvalidRequest {
		return http.StatusBadRequest, body
	}
	if e.Kind == diagnosis.KindModel && e.ProviderType != "" {
		body.Type = e.ProviderType
	}
	return http.StatusInternalServerError, body
}

type upstreamError struct{ err error }

func (u *upstreamError) Error() string { return u.err.Error() }
func (u *upstreamError) Unwrap() error { return u.err }

// POST /api/analyze
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	if req.Method != http.MethodPost {
		return diagnosis.MethodNotAllowed(req.Method)
	}
	if r.analyzer == nil {
		return diagnosis.ConfigurationError("analysis service is not configured")
	}
	if err := r.analyzer.CheckConfigured(); err != nil {
		return err
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, r.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return diagnosis.InvalidRequest("body too large")
		}
		return diagnosis.InvalidRequest("body could not be read")
	}

	d, err := r.analyzer.Analyze(req.Context(), req.Method, body)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(d.Raw)
	return err
}

// GET /api/tutorials?q=&max=
func (r *Router) handleTutorials(w http.ResponseWriter, req *http.Request) error {
	q := middleware.SanitizeString(req.URL.Query().Get("q"))
	if q == "" {
		return diagnosis.InvalidRequest("missing q")
	}
	if r.tutorials == nil {
		return diagnosis.ConfigurationError("YouTube API key is not configured")
	}

	def := r.tutorialsMax
	if def <= 0 {
		def = 5
	}
	n, _ := strconv.Atoi(req.URL.Query().Get("max"))
	n = middleware.ValidateLimit(n, def, maxTutorialResults)

	videos, err := r.tutorials.Search(req.Context(), q, n)
	if err != nil {
		return &upstreamError{err: err}
	}
	if videos == nil {
		videos = []tutorials.Video{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"videos": videos})
	return nil
}
