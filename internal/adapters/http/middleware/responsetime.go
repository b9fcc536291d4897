package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ContextKeyStartTime is the gin context key holding the request start time.
const ContextKeyStartTime = "start_time"

// unmatchedRoute labels requests that matched no route, keeping label cardinality bounded.
const unmatchedRoute = "unmatched"

// ResponseTimeSeconds observes server-side latency per route template.
var ResponseTimeSeconds = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "api_gateway_rest_response_time_duration_seconds",
		Help:    "REST API response time in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "route", "status_code"},
)

// ResponseTime returns middleware that records when the request started and
// observes its duration into ResponseTimeSeconds once the chain returns.
func ResponseTime() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(ContextKeyStartTime, start)

		c.Next()

		ResponseTimeSeconds.
			WithLabelValues(c.Request.Method, routeLabel(c), strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// StartTime returns the request start recorded by ResponseTime, or the zero
// time when the middleware is not installed.
func StartTime(c *gin.Context) time.Time {
	if v, ok := c.Get(ContextKeyStartTime); ok {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}

	return time.Time{}
}

// routeLabel returns the matched route template rather than the raw path.
func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}

	return unmatchedRoute
}
