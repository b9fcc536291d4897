// Package dto provides Data Transfer Objects for HTTP request/response handling.
package dto

import (
	"strconv"
	"time"
)

// Error summaries carried in the "error" field of a failure response.
const (
	SummaryValidation     = "Validation error"
	SummaryAuthentication = "Authentication failed"
	SummaryNotFound       = "Resource not found"
	SummaryRateLimit      = "Rate limit exceeded"
	SummaryBadGateway     = "Bad gateway"
	SummaryUnavailable    = "Service temporarily unavailable"
	SummaryInternal       = "Internal server error"
	SummaryNoRoute        = "Endpoint not found"
)

// Fixed details for kinds whose message is not shown to clients.
const (
	DetailsDataFormat = "External service returned invalid data format"
	DetailsNetwork    = "Unable to connect to external service"
	DetailsInternal   = "An unexpected error occurred while processing your request"
)

// UnavailableRetryAfter is the retry hint advertised for 503 responses, in seconds.
const UnavailableRetryAfter = 30

// FailureResponse is the error body for every failed request.
// Kind-specific fields are omitted when they do not apply.
type FailureResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
	Code    string `json:"code"`

	Field          string `json:"field,omitempty"`
	Resource       string `json:"resource,omitempty"`
	ResourceID     string `json:"resourceId,omitempty"`
	Service        string `json:"service,omitempty"`
	StatusCode     int    `json:"statusCode,omitempty"`
	ExpectedFormat string `json:"expectedFormat,omitempty"`
	ActualFormat   string `json:"actualFormat,omitempty"`
	RetryAfter     string `json:"retryAfter,omitempty"`

	Timestamp    string `json:"timestamp"`
	ResponseTime string `json:"responseTime,omitempty"`
	RequestID    string `json:"requestId,omitempty"`
	TraceID      string `json:"traceId,omitempty"`
}

// NewFailureResponse creates a failure body stamped with the current UTC time.
func NewFailureResponse(summary, details, code string) *FailureResponse {
	return &FailureResponse{
		Error:     summary,
		Details:   details,
		Code:      code,
		Timestamp: Timestamp(time.Now()),
	}
}

// WithResponseTime sets responseTime from the request start, if known.
func (r *FailureResponse) WithResponseTime(start time.Time) *FailureResponse {
	if !start.IsZero() {
		r.ResponseTime = FormatDuration(time.Since(start))
	}

	return r
}

// WithRetryAfter sets the retry hint in seconds.
func (r *FailureResponse) WithRetryAfter(seconds int) *FailureResponse {
	if seconds > 0 {
		r.RetryAfter = strconv.Itoa(seconds) + "s"
	}

	return r
}

// WithCorrelation sets the request and trace ids.
func (r *FailureResponse) WithCorrelation(requestID, traceID string) *FailureResponse {
	r.RequestID = requestID
	r.TraceID = traceID

	return r
}

// NoRouteResponse is returned for requests that match no route.
type NoRouteResponse struct {
	Error              string   `json:"error"`
	Details            string   `json:"details"`
	AvailableEndpoints []string `json:"availableEndpoints"`
	Timestamp          string   `json:"timestamp"`
}

// NewNoRouteResponse creates the 404 body for an unknown method and path.
func NewNoRouteResponse(method, path string, endpoints []string) *NoRouteResponse {
	return &NoRouteResponse{
		Error:              SummaryNoRoute,
		Details:            "The requested endpoint " + method + " " + path + " was not found",
		AvailableEndpoints: endpoints,
		Timestamp:          Timestamp(time.Now()),
	}
}

// Timestamp formats t as ISO-8601 in UTC with millisecond precision.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// FormatDuration renders d as whole milliseconds with an "ms" suffix.
func FormatDuration(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
}
