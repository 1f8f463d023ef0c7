package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appqueries "github.com/bryanwahyu/scenario-search/internal/application/queries"
	"github.com/bryanwahyu/scenario-search/internal/domain/nlq"
	"github.com/bryanwahyu/scenario-search/internal/domain/scenarios"
	"github.com/bryanwahyu/scenario-search/internal/middleware"
)

const (
	defaultRateLimitCapacity = 60
	defaultRateLimitRefill   = 1 // token per detik per client

	// statusClientClosedRequest kode non-standar ala nginx untuk request
	// yang diputus client sebelum jawaban siap.
	statusClientClosedRequest = 499
)

var errNoQuery = errors.New("no query provided")

// Options knob router yang datang dari config. Zero value aman:
// CORS terbuka, rate limit default, tanpa API key.
type Options struct {
	APIKey            string
	CORSOrigins       []string
	RateLimitDisabled bool
	RateLimitCapacity int
	RateLimitRefill   int
}

type Router struct {
	queriesSvc *appqueries.Service
	log        *zap.Logger
}

func NewRouter(queriesSvc *appqueries.Service, db *sql.DB, opts Options, log *zap.Logger) http.Handler {
	r := &Router{queriesSvc: queriesSvc, log: log}
	mux := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		// default terbuka untuk semua origin, API ini dipanggil langsung dari UI eksternal
		origins = []string{"*"}
	}
	capacity := opts.RateLimitCapacity
	if capacity <= 0 {
		capacity = defaultRateLimitCapacity
	}
	refill := opts.RateLimitRefill
	if refill <= 0 {
		refill = defaultRateLimitRefill
	}

	mux.Use(middleware.LoggingMiddleware(log))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	if !opts.RateLimitDisabled {
		// limiter hidup seumur router, tidak pernah di-Stop di sini
		limiter := middleware.NewRateLimiter(capacity, refill)
		mux.Use(limiter.Middleware)
	}
	mux.Use(middleware.APIKeyAuth(opts.APIKey))

	checks := map[string]middleware.HealthChecker{}
	if db != nil {
		checks["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	mux.Get("/", r.wrap(r.handleIndex))
	mux.Post("/api/query", r.wrap(r.handleQuery))
	mux.Get("/api/health", middleware.HealthHandler(checks))
	mux.Get("/api/metrics", middleware.MetricsHandler(r.datasetInfo))

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			r.writeError(w, req, err)
		}
	}
}

// writeError menerjemahkan sentinel error jadi status + pesan yang aman
// dibaca client. Urutan penting: refresh yang gagal karena timeout tetap
// harus kebaca sebagai timeout, jadi cek timeout duluan.
func (r *Router) writeError(w http.ResponseWriter, req *http.Request, err error) {
	var status int
	var msg string
	switch {
	case errors.Is(err, errNoQuery),
		errors.Is(err, appqueries.ErrEmptyQuery),
		errors.Is(err, middleware.ErrQueryEmpty):
		status, msg = http.StatusBadRequest, "No query provided"
	case errors.Is(err, middleware.ErrQueryTooLong):
		status = http.StatusBadRequest
		msg = "Query too long. Please keep it under 1000 characters."
	case errors.Is(err, nlq.ErrUnintelligible):
		status = http.StatusUnprocessableEntity
		msg = "Could not understand the query. Try asking about scenario runs, statuses, or time ranges."
	case errors.Is(err, nlq.ErrQuotaExceeded):
		status = http.StatusTooManyRequests
		msg = "Query translation quota exceeded. Please try again later."
	case errors.Is(err, context.Canceled):
		// client putus duluan, jangan tercatat sebagai error server
		status, msg = statusClientClosedRequest, "Request canceled"
	case errors.Is(err, scenarios.ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		msg = "Data source timed out. Please try again later."
	case errors.Is(err, scenarios.ErrRefreshFailed), errors.Is(err, scenarios.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
		msg = "Failed to update data from source. Please try again later."
	default:
		status = http.StatusInternalServerError
		msg = "Error processing query. Please try again later."
	}

	if status >= http.StatusInternalServerError {
		r.log.Error("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	r.respond(w, status, map[string]interface{}{
		"success": false,
		"message": msg,
	})
}

func (r *Router) respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		r.log.Warn("encoding response", zap.Error(err))
	}
}

// GET /
func (r *Router) handleIndex(w http.ResponseWriter, req *http.Request) error {
	r.respond(w, http.StatusOK, map[string]interface{}{
		"status":    "online",
		"message":   "Scenario Search API is running",
		"endpoints": []string{"/api/query"},
	})
	return nil
}

// POST /api/query
// Body: {"query": "failed scenarios from last week"}
func (r *Router) handleQuery(w http.ResponseWriter, req *http.Request) error {
	middleware.IncrementQueries()

	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.IncrementQueriesFailed()
		return errNoQuery
	}

	query, err := middleware.ValidateQuery(body.Query)
	if err != nil {
		middleware.IncrementQueriesFailed()
		return err
	}

	resp, err := r.queriesSvc.HandleQuery(req.Context(), query)
	if err != nil {
		if errors.Is(err, nlq.ErrUnintelligible) {
			middleware.IncrementQueriesUnintelligible()
		}
		middleware.IncrementQueriesFailed()
		return err
	}

	r.respond(w, http.StatusOK, resp)
	return nil
}

// datasetInfo dilaporkan lewat /api/metrics supaya umur dataset bisa
// dipantau tanpa akses database.
func (r *Router) datasetInfo() map[string]interface{} {
	out := map[string]interface{}{}

	if last := r.queriesSvc.LastRefreshedAt(); !last.IsZero() {
		out["last_refreshed_at"] = last.UTC().Format(time.RFC3339)
		out["age_seconds"] = time.Since(last).Seconds()
		out["age"] = humanize.Time(last)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if count, err := r.queriesSvc.Repo.Count(ctx); err == nil {
		out["rows"] = count
	}

	return out
}
