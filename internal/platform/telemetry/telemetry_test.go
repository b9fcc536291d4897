package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNew_Disabled(t *testing.T) {
	provider, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, provider)

	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestNew_DisabledStillPropagatesClientTrace(t *testing.T) {
	previous := otel.GetTextMapPropagator()
	t.Cleanup(func() { otel.SetTextMapPropagator(previous) })

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())

	_, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage"}, otel.GetTextMapPropagator().Fields())

	router := gin.New()
	router.Use(Middleware("api-gateway")...)
	router.GET("/api/games/prices", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/games/prices", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", w.Header().Get(HeaderTraceID))
}

func TestNewResource(t *testing.T) {
	res, err := newResource(&Config{
		ServiceName: "api-gateway",
		Version:     "1.4.0",
		Environment: "prod",
	})
	require.NoError(t, err)

	attrs := make(map[attribute.Key]string)
	for _, kv := range res.Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}

	assert.Equal(t, "api-gateway", attrs["service.name"])
	assert.Equal(t, "1.4.0", attrs["service.version"])
	assert.Equal(t, "prod", attrs["deployment.environment"])
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		rate     float64
		expected string
	}{
		{rate: 1, expected: "root:AlwaysOnSampler"},
		{rate: 0, expected: "root:AlwaysOffSampler"},
		{rate: 0.25, expected: "root:TraceIDRatioBased{0.25}"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			desc := newSampler(tt.rate).Description()

			assert.True(t, strings.HasPrefix(desc, "ParentBased{"), desc)
			assert.Contains(t, desc, tt.expected)
		})
	}
}

func TestMiddleware_TraceHeaderAndSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	router := gin.New()
	router.Use(Middleware("api-gateway")...)
	router.GET("/api/games/search", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/games/search?query=zelda", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Header().Get(HeaderTraceID), 32)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, w.Header().Get(HeaderTraceID), spans[0].SpanContext().TraceID().String())
}

func TestMiddleware_NoTraceWithoutProvider(t *testing.T) {
	router := gin.New()
	router.Use(metricsMiddleware())
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(HeaderTraceID))
}

func TestRouteOf(t *testing.T) {
	router := gin.New()

	var matched, unmatched string

	router.GET("/api/games/prices", func(c *gin.Context) { matched = routeOf(c) })
	router.NoRoute(func(c *gin.Context) { unmatched = routeOf(c) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/games/prices?id=x", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/path", nil))

	assert.Equal(t, "/api/games/prices", matched)
	assert.Equal(t, unmatchedRoute, unmatched)
}
