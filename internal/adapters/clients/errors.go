// Package clients provides the outbound HTTP client used to reach upstream services.
package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jsamuelsen/game-price-gateway/internal/domain"
)

// networkSignatures are substrings that mark a transport failure as network related
// when the error carries no typed cause.
var networkSignatures = []string{
	"timeout",
	"connection refused",
	"connection reset",
	"no such host",
	"ECONNREFUSED",
	"ENOTFOUND",
	"ETIMEDOUT",
	"fetch failed",
}

// isNetworkRelated reports whether err is a transport-level failure.
func isNetworkRelated(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	msg := err.Error()
	for _, sig := range networkSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}

	return false
}

// classifyTransportError converts a failed round trip into a network error,
// or returns it wrapped but unclassified if it is not transport related.
func classifyTransportError(err error, timedOut bool, timeout time.Duration) error {
	if timedOut {
		return domain.NewNetworkError(fmt.Sprintf("Request timeout after %dms", timeout.Milliseconds()), err)
	}

	if isNetworkRelated(err) {
		return domain.NewNetworkError("Network error: "+err.Error(), err)
	}

	return fmt.Errorf("performing request: %w", err)
}

// classifyStatus converts a non-2xx response into a classified error.
// service names the upstream for not found and unavailable errors.
func classifyStatus(resp *http.Response, service string) error {
	statusText := StatusText(resp)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.NewAuthenticationError("Authentication failed: " + statusText)
	case http.StatusNotFound:
		return domain.NewNotFoundError("Resource not found: "+statusText, service, "")
	case http.StatusTooManyRequests:
		return domain.NewRateLimitError(
			"Rate limit exceeded: "+statusText,
			ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return domain.NewServiceUnavailableError(
			"Service temporarily unavailable: "+statusText, resp.StatusCode, service)
	default:
		return domain.NewServiceUnavailableError("Service error: "+statusText, resp.StatusCode, service)
	}
}

// StatusText returns the reason phrase of resp, falling back to the standard text.
func StatusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); text != "" {
		return text
	}

	return http.StatusText(resp.StatusCode)
}

// ParseRetryAfter reads a Retry-After header value as delta seconds or an HTTP date.
// It returns 0 when the value is absent or unusable.
func ParseRetryAfter(value string, now time.Time) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}

		return seconds
	}

	when, err := http.ParseTime(value)
	if err != nil {
		return 0
	}

	delta := when.Sub(now)
	if delta <= 0 {
		return 0
	}

	return int((delta + time.Second - 1) / time.Second)
}
