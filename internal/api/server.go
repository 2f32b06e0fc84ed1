package api

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soaringjerry/stackit/internal/middleware"
	"github.com/soaringjerry/stackit/internal/services"
	"github.com/soaringjerry/stackit/internal/utils"
)

// HandlerConfig describes everything mounted next to the API routes.
type HandlerConfig struct {
	Board       *services.BoardService
	Blob        services.BlobStore
	Logger      *slog.Logger
	PageSize    int
	StaticDir   string
	CORSOrigins []string
	Commit      string
	BuildTime   string
}

// NewHandler builds the full HTTP handler: API routes, /health, /metrics
// and the optional static frontend, wrapped in the middleware chain.
func NewHandler(cfg HandlerConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	NewRouter(cfg.Board, cfg.Blob, WithPageSize(cfg.PageSize), WithRouterLogger(logger)).Register(mux)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		locale := middleware.LocaleFromContext(r.Context())
		body := map[string]any{
			"ok":         true,
			"name":       "StackIt API",
			"locale":     locale,
			"msg":        utils.T(locale, "health.ok"),
			"commit":     cfg.Commit,
			"build_time": cfg.BuildTime,
			"storage":    "ok",
		}
		if warn := cfg.Board.StorageStatus(); warn != nil {
			body["storage"] = "degraded"
			body["storage_msg"] = utils.T(locale, "storage.degraded")
			body["storage_error"] = warn.Error()
		}
		writeJSON(w, http.StatusOK, body)
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	var h http.Handler = mux
	h = middleware.WithAuth(h)
	h = middleware.LocaleMiddleware(h)
	h = middleware.NoStore(h)
	h = middleware.SecureHeaders(h)
	if len(cfg.CORSOrigins) > 0 {
		h = middleware.CORS(cfg.CORSOrigins)(h)
	}
	return middleware.RequestLog(logger)(h)
}
