package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/game-price-gateway/internal/adapters/http/handlers"
	"github.com/jsamuelsen/game-price-gateway/internal/adapters/http/middleware"
	"github.com/jsamuelsen/game-price-gateway/internal/platform/config"
	"github.com/jsamuelsen/game-price-gateway/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default deadline ceiling for API requests.
const DefaultRequestTimeout = 30 * time.Second

// corsMaxAge is how long browsers may cache a preflight answer.
const corsMaxAge = 12 * time.Hour

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger is the structured logger for request logging.
	Logger *slog.Logger

	// ServiceName names the service in traces.
	ServiceName string

	// CORS lists the allowed origins.
	CORS config.CORSConfig

	// HealthHandler handles health check endpoints.
	HealthHandler *handlers.HealthHandler

	// GamesHandler handles the search and prices endpoints.
	GamesHandler *handlers.GamesHandler

	// Timeout is the deadline ceiling for /api requests.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Request ID - generate/extract request ID
//  3. Correlation ID - handle distributed tracing correlation
//  4. OpenTelemetry - tracing and metrics
//  5. Response time - start time and the response time histogram
//  6. Logging - request logging (skips probe endpoints)
//  7. CORS - any origin by default, preflight answered with 204
//  8. Gzip - response compression
//  9. Timeout - request deadline, /api only
//
// Route groups:
//   - /health and /-/ (internal): health, probes and metrics
//   - /api/ (public API): game search and prices
//
// Anything else is answered with a 404 listing the available endpoints.
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
	)
	engine.Use(telemetry.Middleware(cfg.ServiceName)...)
	engine.Use(
		middleware.ResponseTime(),
		middleware.Logging(cfg.Logger, "/health"),
		newCORS(cfg.CORS),
		gzip.Gzip(gzip.DefaultCompression),
	)

	// Register health endpoints (no timeout for probes)
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	api := engine.Group("/api")
	if cfg.Timeout > 0 {
		api.Use(middleware.SimpleTimeout(cfg.Timeout))
	}

	if cfg.GamesHandler != nil {
		cfg.GamesHandler.RegisterGameRoutes(api)
	}

	engine.NoRoute(handlers.NoRoute)
}

// newCORS builds the CORS middleware. With no explicit origins every origin
// is allowed, and the response carries Access-Control-Allow-Origin: *.
func newCORS(cfg config.CORSConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			middleware.HeaderRequestID, middleware.HeaderCorrelationID,
		},
		ExposeHeaders: []string{
			handlers.HeaderRetryAfter, telemetry.HeaderTraceID,
			middleware.HeaderRequestID, middleware.HeaderCorrelationID,
		},
		MaxAge: corsMaxAge,
	}

	if cfg.AllowAll() {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	return cors.New(corsCfg)
}

// NewDefaultRouterConfig creates a RouterConfig with sensible defaults.
func NewDefaultRouterConfig(
	logger *slog.Logger,
	serviceName string,
	healthHandler *handlers.HealthHandler,
	gamesHandler *handlers.GamesHandler,
) RouterConfig {
	return RouterConfig{
		Logger:        logger,
		ServiceName:   serviceName,
		HealthHandler: healthHandler,
		GamesHandler:  gamesHandler,
		Timeout:       DefaultRequestTimeout,
	}
}
