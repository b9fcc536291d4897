package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/game-price-gateway/internal/domain"
)

// requireValidationField asserts err is a domain validation error on field.
func requireValidationField(t *testing.T, err error, field string) *domain.ValidationError {
	t.Helper()

	require.Error(t, err)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, field, ve.Field)

	return ve
}

func TestValidateSearchQuery(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		present bool
		want    string
		wantMsg string
	}{
		{name: "plain text", raw: "portal", present: true, want: "portal"},
		{name: "trims surrounding whitespace", raw: "  half life  ", present: true, want: "half life"},
		{name: "exactly max length", raw: strings.Repeat("a", MaxQueryLength), present: true, want: strings.Repeat("a", MaxQueryLength)},
		{name: "multibyte counted as characters", raw: strings.Repeat("é", MaxQueryLength), present: true, want: strings.Repeat("é", MaxQueryLength)},
		{name: "absent", raw: "", present: false, wantMsg: "Query parameter is required"},
		{name: "present but empty", raw: "", present: true, wantMsg: "Query parameter is required"},
		{name: "whitespace only", raw: "   \t ", present: true, wantMsg: "Query parameter cannot be empty"},
		{name: "too long", raw: strings.Repeat("a", MaxQueryLength+1), present: true, wantMsg: "Query parameter too long (max 100 characters)"},
		{name: "too long after trim check", raw: " " + strings.Repeat("b", MaxQueryLength+5) + " ", present: true, wantMsg: "Query parameter too long (max 100 characters)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateSearchQuery(tt.raw, tt.present)

			if tt.wantMsg != "" {
				ve := requireValidationField(t, err, "query")
				assert.Equal(t, tt.wantMsg, ve.Message)
				assert.Empty(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateGameID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		present bool
		want    domain.GameID
		wantMsg string
	}{
		{name: "lowercase uuid", raw: "3f2504e0-4f89-11d3-9a0c-0305e82c3301", present: true, want: "3f2504e0-4f89-11d3-9a0c-0305e82c3301"},
		{name: "uppercase uuid", raw: "3F2504E0-4F89-11D3-9A0C-0305E82C3301", present: true, want: "3F2504E0-4F89-11D3-9A0C-0305E82C3301"},
		{name: "trimmed", raw: " 3f2504e0-4f89-11d3-9a0c-0305e82c3301 ", present: true, want: "3f2504e0-4f89-11d3-9a0c-0305e82c3301"},
		{name: "absent", present: false, wantMsg: "Game ID parameter is required"},
		{name: "whitespace only", raw: "  ", present: true, wantMsg: "Game ID parameter cannot be empty"},
		{name: "not a uuid", raw: "not-a-uuid", present: true, wantMsg: "Game ID must be a valid UUID format"},
		{name: "right length non-hex", raw: "3g2504e0-4f89-11d3-9a0c-0305e82c3301", present: true, wantMsg: "Game ID must be a valid UUID format"},
		{name: "braced", raw: "{3f2504e0-4f89-11d3-9a0c-0305e82c3301}", present: true, wantMsg: "Game ID must be a valid UUID format"},
		{name: "urn prefix", raw: "urn:uuid:3f2504e0-4f89-11d3-9a0c-0305e82c3301", present: true, wantMsg: "Game ID must be a valid UUID format"},
		{name: "undashed", raw: "3f2504e04f8911d39a0c0305e82c3301", present: true, wantMsg: "Game ID must be a valid UUID format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateGameID(tt.raw, tt.present)

			if tt.wantMsg != "" {
				ve := requireValidationField(t, err, "id")
				assert.Equal(t, tt.wantMsg, ve.Message)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidatePageParams(t *testing.T) {
	tests := []struct {
		name         string
		page         string
		pageSize     string
		wantPage     int
		wantPageSize int
		wantErr      bool
	}{
		{name: "defaults", wantPage: 1, wantPageSize: 20},
		{name: "explicit values", page: "3", pageSize: "50", wantPage: 3, wantPageSize: 50},
		{name: "page size lower bound", page: "1", pageSize: "1", wantPage: 1, wantPageSize: 1},
		{name: "page size upper bound", page: "1", pageSize: "100", wantPage: 1, wantPageSize: 100},
		{name: "non numeric page clamps", page: "abc", pageSize: "10", wantPage: 1, wantPageSize: 10},
		{name: "zero page clamps", page: "0", wantPage: 1, wantPageSize: 20},
		{name: "negative page clamps", page: "-4", wantPage: 1, wantPageSize: 20},
		{name: "page size zero rejected", pageSize: "0", wantErr: true},
		{name: "page size too large rejected", pageSize: "101", wantErr: true},
		{name: "page size non numeric rejected", pageSize: "ten", wantErr: true},
		{name: "page size fractional rejected", pageSize: "2.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, pageSize, err := ValidatePageParams(tt.page, tt.pageSize)

			if tt.wantErr {
				ve := requireValidationField(t, err, "page_size")
				assert.Equal(t, PageSizeMessage, ve.Message)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantPageSize, pageSize)
		})
	}
}

func TestFailureResponse_JSON(t *testing.T) {
	start := time.Now().Add(-25 * time.Millisecond)

	resp := NewFailureResponse(SummaryRateLimit, "Rate limit exceeded", domain.CodeRateLimit).
		WithRetryAfter(60).
		WithResponseTime(start).
		WithCorrelation("req-1", "")

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))

	assert.Equal(t, "Rate limit exceeded", body["error"])
	assert.Equal(t, "RATE_LIMIT_ERROR", body["code"])
	assert.Equal(t, "60s", body["retryAfter"])
	assert.Equal(t, "req-1", body["requestId"])
	assert.NotContains(t, body, "traceId")
	assert.NotContains(t, body, "field")
	assert.Regexp(t, `^\d+ms$`, body["responseTime"])

	_, err = time.Parse(time.RFC3339, body["timestamp"].(string))
	assert.NoError(t, err)
}

func TestFailureResponse_NoRetryHintWhenZero(t *testing.T) {
	resp := NewFailureResponse(SummaryRateLimit, "x", domain.CodeRateLimit).WithRetryAfter(0)
	assert.Empty(t, resp.RetryAfter)

	resp.WithResponseTime(time.Time{})
	assert.Empty(t, resp.ResponseTime)
}

func TestNewNoRouteResponse(t *testing.T) {
	resp := NewNoRouteResponse("GET", "/nope", []string{"GET /health"})

	assert.Equal(t, SummaryNoRoute, resp.Error)
	assert.Equal(t, "The requested endpoint GET /nope was not found", resp.Details)
	assert.Equal(t, []string{"GET /health"}, resp.AvailableEndpoints)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1500ms", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2024-01-02T03:04:05.006Z",
		Timestamp(time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)))
}
