package http

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/game-price-gateway/internal/adapters/http/dto"
	"github.com/jsamuelsen/game-price-gateway/internal/adapters/http/handlers"
	"github.com/jsamuelsen/game-price-gateway/internal/adapters/http/middleware"
	"github.com/jsamuelsen/game-price-gateway/internal/app"
	"github.com/jsamuelsen/game-price-gateway/internal/domain"
	"github.com/jsamuelsen/game-price-gateway/internal/mocks"
	"github.com/jsamuelsen/game-price-gateway/internal/platform/config"
	"github.com/jsamuelsen/game-price-gateway/internal/ports"
)

const testGameID = "3fa85f64-5717-4562-b3fc-2c963f66afa6"

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServerConfig(host string, port int) *config.ServerConfig {
	return &config.ServerConfig{
		Host:           host,
		Port:           port,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    30 * time.Second,
		MaxRequestSize: 1 << 20,
	}
}

// setupTestRouter builds the full middleware chain over a mocked catalog.
func setupTestRouter(t *testing.T, setupCatalog func(*mocks.MockGameCatalog), mutate func(*RouterConfig)) *gin.Engine {
	t.Helper()

	catalog := mocks.NewMockGameCatalog(t)
	if setupCatalog != nil {
		setupCatalog(catalog)
	}

	logger := discardLogger()
	service := app.NewGameService(app.GameServiceConfig{Catalog: catalog, Logger: logger})

	cfg := NewDefaultRouterConfig(
		logger,
		"api-gateway",
		handlers.NewHealthHandler(ports.NewHealthRegistry(), handlers.BuildInfo{Version: "1.0.0"}, handlers.WithServiceName("api-gateway")),
		handlers.NewGamesHandler(service),
	)
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"*"}}

	if mutate != nil {
		mutate(&cfg)
	}

	engine := gin.New()
	SetupRouter(engine, cfg)

	return engine
}

func doRequest(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	return w
}

func TestServerNew(t *testing.T) {
	cfg := testServerConfig("127.0.0.1", 8080)
	logger := discardLogger()

	srv := New(cfg, logger)

	require.NotNil(t, srv)
	assert.NotNil(t, srv.engine)
	assert.NotNil(t, srv.httpServer)
	assert.Equal(t, "api", srv.name)
	assert.Equal(t, cfg.ReadTimeout, srv.httpServer.ReadTimeout)
	assert.Equal(t, cfg.WriteTimeout, srv.httpServer.WriteTimeout)
	assert.Equal(t, cfg.IdleTimeout, srv.httpServer.IdleTimeout)
}

func TestServerEngine(t *testing.T) {
	srv := New(testServerConfig("localhost", 0), discardLogger())
	engine := srv.Engine()

	require.NotNil(t, engine)
	assert.IsType(t, &gin.Engine{}, engine)
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		name         string
		host         string
		port         int
		expectedAddr string
	}{
		{
			name:         "localhost with port 8080",
			host:         "localhost",
			port:         8080,
			expectedAddr: "localhost:8080",
		},
		{
			name:         "all interfaces",
			host:         "",
			port:         8000,
			expectedAddr: ":8000",
		},
		{
			name:         "ipv6 loopback",
			host:         "::1",
			port:         3000,
			expectedAddr: "[::1]:3000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(testServerConfig(tt.host, tt.port), discardLogger())

			assert.Equal(t, tt.expectedAddr, srv.Addr())
		})
	}
}

func TestServerStartShutdown(t *testing.T) {
	srv := New(testServerConfig("127.0.0.1", 0), discardLogger())

	srv.Engine().GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	errCh := srv.Start()

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("server start error: %v", err)
		}
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, srv.Shutdown(ctx))

	_, ok := <-errCh
	assert.False(t, ok, "error channel should be closed")
}

func TestServerStart_InvalidAddress(t *testing.T) {
	srv := New(testServerConfig("127.0.0.1", 0), discardLogger())
	srv.httpServer.Addr = "127.0.0.1:-1"

	errCh := srv.Start()

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api server error")
	case <-time.After(2 * time.Second):
		t.Fatal("expected a listen error")
	}
}

func TestNewMetricsServer(t *testing.T) {
	srv := NewMetricsServer("127.0.0.1", 9100, discardLogger())

	require.NotNil(t, srv)
	assert.Equal(t, "metrics", srv.name)
	assert.Equal(t, "127.0.0.1:9100", srv.Addr())
	assert.Equal(t, metricsReadHeaderTimeout, srv.httpServer.ReadHeaderTimeout)

	w := doRequest(srv.Engine(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")

	w = doRequest(srv.Engine(), httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewDefaultRouterConfig(t *testing.T) {
	logger := discardLogger()
	healthHandler := handlers.NewHealthHandler(nil, handlers.BuildInfo{})

	cfg := NewDefaultRouterConfig(logger, "api-gateway", healthHandler, nil)

	assert.Equal(t, logger, cfg.Logger)
	assert.Equal(t, "api-gateway", cfg.ServiceName)
	assert.Equal(t, healthHandler, cfg.HealthHandler)
	assert.Equal(t, DefaultRequestTimeout, cfg.Timeout)
	assert.Nil(t, cfg.GamesHandler)
}

func TestSetupRouter_HealthEndpoints(t *testing.T) {
	engine := setupTestRouter(t, nil, nil)

	for _, path := range []string{"/health", "/-/live", "/-/ready"} {
		t.Run(path, func(t *testing.T) {
			w := doRequest(engine, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestSetupRouter_NilHandlers(t *testing.T) {
	cfg := RouterConfig{
		Logger:  discardLogger(),
		Timeout: 0,
	}

	engine := gin.New()

	require.NotPanics(t, func() {
		SetupRouter(engine, cfg)
	})

	w := doRequest(engine, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetupRouter_SearchValidation(t *testing.T) {
	engine := setupTestRouter(t, nil, nil)

	w := doRequest(engine, httptest.NewRequest(http.MethodGet, "/api/games/search", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.FailureResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.CodeValidation, resp.Code)
	assert.Equal(t, "query", resp.Field)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, resp.RequestID, w.Header().Get(middleware.HeaderRequestID))
}

func TestSetupRouter_NoRoute(t *testing.T) {
	engine := setupTestRouter(t, nil, nil)

	w := doRequest(engine, httptest.NewRequest(http.MethodDelete, "/api/games/search", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp dto.NoRouteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "The requested endpoint DELETE /api/games/search was not found", resp.Details)
	assert.Equal(t, handlers.AvailableEndpoints, resp.AvailableEndpoints)
}

func TestSetupRouter_CORS(t *testing.T) {
	t.Run("any origin", func(t *testing.T) {
		engine := setupTestRouter(t, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://shop.example.com")

		w := doRequest(engine, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		engine := setupTestRouter(t, nil, nil)

		req := httptest.NewRequest(http.MethodOptions, "/api/games/search", nil)
		req.Header.Set("Origin", "https://shop.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)

		w := doRequest(engine, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodGet)
	})

	t.Run("explicit origins", func(t *testing.T) {
		engine := setupTestRouter(t, nil, func(cfg *RouterConfig) {
			cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"https://shop.example.com"}}
		})

		allowed := httptest.NewRequest(http.MethodGet, "/health", nil)
		allowed.Header.Set("Origin", "https://shop.example.com")

		w := doRequest(engine, allowed)
		assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))

		denied := httptest.NewRequest(http.MethodGet, "/health", nil)
		denied.Header.Set("Origin", "https://evil.example.com")

		w = doRequest(engine, denied)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestSetupRouter_Gzip(t *testing.T) {
	engine := setupTestRouter(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Accept-Encoding", "gzip")

	w := doRequest(engine, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	reader, err := gzip.NewReader(w.Body)
	require.NoError(t, err)

	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Contains(t, string(body), "api-gateway")
}

func TestSetupRouter_RequestIDEcho(t *testing.T) {
	engine := setupTestRouter(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/-/live", nil)
	req.Header.Set(middleware.HeaderRequestID, "req-123")

	w := doRequest(engine, req)

	assert.Equal(t, "req-123", w.Header().Get(middleware.HeaderRequestID))
}

func TestSetupRouter_RequestDeadline(t *testing.T) {
	var deadline time.Time

	engine := setupTestRouter(t,
		func(m *mocks.MockGameCatalog) {
			m.EXPECT().GetPrices(mock.Anything, domain.GameID(testGameID)).
				RunAndReturn(func(ctx context.Context, _ domain.GameID) (domain.GamePrices, error) {
					deadline, _ = ctx.Deadline()
					return domain.GamePrices{}, nil
				}).Once()
		},
		func(cfg *RouterConfig) { cfg.Timeout = time.Minute },
	)

	before := time.Now()
	w := doRequest(engine, httptest.NewRequest(http.MethodGet, "/api/games/prices?id="+testGameID, nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, deadline.IsZero(), "request context should carry a deadline")
	assert.WithinDuration(t, before.Add(time.Minute), deadline, 5*time.Second)
}

func TestSetupRouter_RecoversPanics(t *testing.T) {
	engine := setupTestRouter(t,
		func(m *mocks.MockGameCatalog) {
			m.EXPECT().GetPrices(mock.Anything, mock.Anything).
				RunAndReturn(func(context.Context, domain.GameID) (domain.GamePrices, error) {
					panic("boom: secret internals")
				}).Once()
		},
		nil,
	)

	w := doRequest(engine, httptest.NewRequest(http.MethodGet, "/api/games/prices?id="+testGameID, nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret internals")

	var resp dto.FailureResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.CodeInternal, resp.Code)
}

func TestMaxBodySizeMiddleware(t *testing.T) {
	cfg := testServerConfig("127.0.0.1", 0)
	cfg.MaxRequestSize = 100

	srv := New(cfg, discardLogger())

	srv.Engine().POST("/test", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": len(body)})
	})

	t.Run("body under limit", func(t *testing.T) {
		w := doRequest(srv.Engine(), httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(strings.Repeat("a", 50))))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("body over limit", func(t *testing.T) {
		w := doRequest(srv.Engine(), httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(strings.Repeat("a", 200))))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
