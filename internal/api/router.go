package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/roach88/sluicewatch/internal/metrics"
)

// Route paths.
const (
	PathUpload       = "/api/sensor/upload"
	PathFetchLatest  = "/api/ml/fetch_latest"
	PathSubmitResult = "/api/ml/submit_result"
	PathDashboard    = "/api/dashboard/monitor"
	PathHealth       = "/health"
	PathMetrics      = "/metrics"
)

// RouterOptions configures NewRouter. Zero fields take defaults.
type RouterOptions struct {
	// AllowedOrigins for CORS. Default: ["*"].
	AllowedOrigins []string

	// AllowedHeaders for CORS preflights. Default: ["*"], so browser
	// dashboards may send arbitrary headers.
	AllowedHeaders []string

	// Metrics, when set, is served at /metrics.
	Metrics *metrics.Metrics

	// RequestIDs generates X-Request-ID values. Default: UUIDv7Generator.
	RequestIDs IDGenerator

	// Logger receives access logs. Default: slog.Default().
	Logger *slog.Logger
}

// NewRouter builds the full HTTP handler: routes, JSON 404/405 bodies,
// request ids, access logging and CORS.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	if opts.RequestIDs == nil {
		opts.RequestIDs = UUIDv7Generator{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if len(opts.AllowedHeaders) == 0 {
		opts.AllowedHeaders = []string{"*"}
	}

	router := mux.NewRouter()

	router.HandleFunc(PathUpload, h.HandleUpload).Methods(http.MethodPost)
	router.HandleFunc(PathFetchLatest, h.HandleFetchLatest).Methods(http.MethodGet)
	router.HandleFunc(PathSubmitResult, h.HandleSubmitResult).Methods(http.MethodPost)
	router.HandleFunc(PathDashboard, h.HandleDashboard).Methods(http.MethodGet)

	router.HandleFunc(PathHealth, h.HandleHealth).Methods(http.MethodGet)
	if opts.Metrics != nil {
		router.Handle(PathMetrics, opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RespondWithError(w, NewAPIError(ErrorCodeNotFound, "no route for "+r.URL.Path, nil, http.StatusNotFound))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RespondWithError(w, NewAPIError(ErrorCodeMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path, nil, http.StatusMethodNotAllowed))
	})

	c := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: opts.AllowedHeaders,
		ExposedHeaders: []string{RequestIDHeader},
	})

	return c.Handler(requestID(opts.RequestIDs, accessLog(opts.Logger, router)))
}
