package acl

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/jsamuelsen/game-price-gateway/internal/domain"
	"github.com/jsamuelsen/game-price-gateway/internal/platform/logging"
)

// maxBodyBytes caps how much of an upstream body is read.
const maxBodyBytes = 8 << 20

// ExpectedFormatJSON is the expected format reported by data format errors.
const ExpectedFormatJSON = "JSON"

// InvalidJSONMessage is the message of every data format error raised here.
const InvalidJSONMessage = "Invalid JSON response from price fetcher service"

// errNotObject is the cause logged when the body is valid JSON but not an object.
var errNotObject = errors.New("expected a JSON object")

// DecodeObject reads body fully and decodes it as a single JSON object.
// Closes the body after reading.
//
// A body that is not JSON, has trailing data, or is a JSON value other than
// an object yields a domain.DataFormatError. A failed read yields a network error.
func DecodeObject(ctx context.Context, body io.ReadCloser) (map[string]json.RawMessage, error) {
	if body == nil {
		return nil, dataFormatError(ctx, "empty", errors.New("response body is nil"))
	}
	defer func() { _ = body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return nil, domain.NewNetworkError("Network error: "+err.Error(), err)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, dataFormatError(ctx, actualFormat(raw), err)
	}

	// "null" decodes into a nil map without error.
	if obj == nil {
		return nil, dataFormatError(ctx, "null", errNotObject)
	}

	return obj, nil
}

// dataFormatError logs the decoding cause and returns the classified error.
func dataFormatError(ctx context.Context, actual string, cause error) error {
	logging.FromContext(ctx).ErrorContext(ctx, "failed to parse JSON response from price fetcher",
		slog.String("actual_format", actual),
		slog.Any("error", cause),
	)

	return &domain.DataFormatError{
		Message:        InvalidJSONMessage,
		ExpectedFormat: ExpectedFormatJSON,
		ActualFormat:   actual,
	}
}

// actualFormat names the JSON kind of raw, or "non-JSON".
func actualFormat(raw []byte) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "non-JSON"
	}

	switch v.(type) {
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return "unknown"
	}
}
