package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/game-price-gateway/internal/adapters/http/dto"
	"github.com/jsamuelsen/game-price-gateway/internal/adapters/http/middleware"
	"github.com/jsamuelsen/game-price-gateway/internal/domain"
	"github.com/jsamuelsen/game-price-gateway/internal/platform/logging"
)

// HeaderRetryAfter is sent with 429 and 503 responses.
const HeaderRetryAfter = "Retry-After"

// HandleFailure writes the JSON failure response for err and aborts the chain.
// It is the only place that turns an error into an HTTP status.
//
// Classified errors map by kind; anything else becomes a 500 whose body never
// carries the underlying message. start is the request start for responseTime.
func HandleFailure(c *gin.Context, err error, start time.Time) {
	ctx := c.Request.Context()
	logger := logging.FromContext(ctx)

	status, resp, retryAfter := MapFailure(err)

	resp.WithResponseTime(start).
		WithRetryAfter(retryAfter).
		WithCorrelation(middleware.GetRequestID(c), middleware.TraceIDFromContext(ctx))

	attrs := []any{
		slog.Int("status", status),
		slog.String("code", resp.Code),
		slog.String("path", c.Request.URL.Path),
		slog.Any("error", err),
	}

	// The transport cause is logged, never returned to the client.
	var netErr *domain.NetworkError
	if errors.As(err, &netErr) && netErr.OriginalError != nil {
		attrs = append(attrs, slog.Any("original_error", netErr.OriginalError))
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.ErrorContext(ctx, "request failed", attrs...)
	default:
		logger.WarnContext(ctx, "request rejected", attrs...)
	}

	if retryAfter > 0 {
		c.Header(HeaderRetryAfter, strconv.Itoa(retryAfter))
	}

	c.AbortWithStatusJSON(status, resp)
}

// MapFailure builds the status, body and Retry-After seconds for err.
// retryAfter is 0 when no hint applies.
func MapFailure(err error) (status int, resp *dto.FailureResponse, retryAfter int) {
	ce, ok := domain.AsClassified(err)
	if !ok {
		return http.StatusInternalServerError, internalFailure(), 0
	}

	status = ce.Kind().HTTPStatus()

	switch e := ce.(type) {
	case *domain.ValidationError:
		resp = dto.NewFailureResponse(dto.SummaryValidation, e.Message, e.Code())
		resp.Field = e.Field

	case *domain.AuthenticationError:
		resp = dto.NewFailureResponse(dto.SummaryAuthentication, e.Message, e.Code())

	case *domain.NotFoundError:
		resp = dto.NewFailureResponse(dto.SummaryNotFound, e.Message, e.Code())
		resp.Resource = e.Resource
		resp.ResourceID = e.ResourceID

	case *domain.RateLimitError:
		resp = dto.NewFailureResponse(dto.SummaryRateLimit, e.Message, e.Code())
		retryAfter = e.RetryAfter

	case *domain.DataFormatError:
		resp = dto.NewFailureResponse(dto.SummaryBadGateway, dto.DetailsDataFormat, e.Code())
		resp.ExpectedFormat = e.ExpectedFormat
		resp.ActualFormat = e.ActualFormat

	case *domain.ServiceUnavailableError:
		resp = dto.NewFailureResponse(dto.SummaryUnavailable, e.Message, e.Code())
		resp.Service = e.Service
		resp.StatusCode = e.StatusCode
		retryAfter = dto.UnavailableRetryAfter

	case *domain.NetworkError:
		resp = dto.NewFailureResponse(dto.SummaryUnavailable, dto.DetailsNetwork, e.Code())
		retryAfter = dto.UnavailableRetryAfter

	default:
		return http.StatusInternalServerError, internalFailure(), 0
	}

	return status, resp, retryAfter
}

func internalFailure() *dto.FailureResponse {
	return dto.NewFailureResponse(dto.SummaryInternal, dto.DetailsInternal, domain.CodeInternal)
}

// requestStart returns when the request began, falling back to now when the
// response-time middleware is not installed.
func requestStart(c *gin.Context) time.Time {
	if start := middleware.StartTime(c); !start.IsZero() {
		return start
	}

	return time.Now()
}
