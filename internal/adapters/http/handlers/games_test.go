package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/game-price-gateway/internal/adapters/cache"
	"github.com/jsamuelsen/game-price-gateway/internal/adapters/http/dto"
	"github.com/jsamuelsen/game-price-gateway/internal/app"
	"github.com/jsamuelsen/game-price-gateway/internal/domain"
	"github.com/jsamuelsen/game-price-gateway/internal/mocks"
)

const testGameID = "3fa85f64-5717-4562-b3fc-2c963f66afa6"

// setupGamesRouter wires a GamesHandler backed by a real GameService over mocks.
// A nil setupCache runs the service without a cache.
func setupGamesRouter(
	t *testing.T,
	setupCatalog func(*mocks.MockGameCatalog),
	setupCache func(*mocks.MockCache),
) *gin.Engine {
	t.Helper()

	catalog := mocks.NewMockGameCatalog(t)
	if setupCatalog != nil {
		setupCatalog(catalog)
	}

	cfg := app.GameServiceConfig{
		Catalog: catalog,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if setupCache != nil {
		store := mocks.NewMockCache(t)
		setupCache(store)

		cfg.Cache = store
		cfg.Key = cache.SearchKey
	}

	handler := NewGamesHandler(app.NewGameService(cfg))

	router := gin.New()
	handler.RegisterGameRoutes(router.Group("/api"))
	router.NoRoute(NoRoute)

	return router
}

func serve(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

	return w
}

func decodeFailure(t *testing.T, w *httptest.ResponseRecorder) dto.FailureResponse {
	t.Helper()

	var resp dto.FailureResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	return resp
}

func games(n int) []json.RawMessage {
	out := make([]json.RawMessage, n)
	for i := range out {
		out[i] = json.RawMessage(fmt.Sprintf(`{"id":%d}`, i+1))
	}

	return out
}

func TestNewGamesHandler(t *testing.T) {
	catalog := mocks.NewMockGameCatalog(t)
	service := app.NewGameService(app.GameServiceConfig{Catalog: catalog})

	handler := NewGamesHandler(service)

	require.NotNil(t, handler)
}

func TestGamesHandler_SearchValidation(t *testing.T) {
	tests := []struct {
		name          string
		target        string
		expectedField string
		expectedMsg   string
	}{
		{
			name:          "missing query",
			target:        "/api/games/search",
			expectedField: "query",
			expectedMsg:   "Query parameter is required",
		},
		{
			name:          "empty query",
			target:        "/api/games/search?query=",
			expectedField: "query",
			expectedMsg:   "Query parameter is required",
		},
		{
			name:          "whitespace query",
			target:        "/api/games/search?query=%20%20",
			expectedField: "query",
			expectedMsg:   "Query parameter cannot be empty",
		},
		{
			name:          "page size above maximum",
			target:        "/api/games/search?query=zelda&page_size=101",
			expectedField: "page_size",
			expectedMsg:   dto.PageSizeMessage,
		},
		{
			name:          "page size not a number",
			target:        "/api/games/search?query=zelda&page_size=ten",
			expectedField: "page_size",
			expectedMsg:   dto.PageSizeMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No expectations: validation failures never reach the catalog or cache.
			router := setupGamesRouter(t, nil, func(*mocks.MockCache) {})

			w := serve(router, tt.target)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			resp := decodeFailure(t, w)
			assert.Equal(t, dto.SummaryValidation, resp.Error)
			assert.Equal(t, domain.CodeValidation, resp.Code)
			assert.Equal(t, tt.expectedField, resp.Field)
			assert.Equal(t, tt.expectedMsg, resp.Details)
		})
	}
}

func TestGamesHandler_SearchMiss(t *testing.T) {
	var stored string

	router := setupGamesRouter(t,
		func(m *mocks.MockGameCatalog) {
			m.EXPECT().SearchGames(mock.Anything, "zelda", app.SearchFetchLimit).
				Return(&domain.GameSearchResult{Games: games(23), Count: -1}, nil).Once()
		},
		func(m *mocks.MockCache) {
			m.EXPECT().Get(mock.Anything, "gamesearch:zelda:2:10").Return("", false, nil).Once()
			m.EXPECT().SetWithTTL(mock.Anything, "gamesearch:zelda:2:10", mock.Anything, app.DefaultSearchTTL).
				Run(func(_ context.Context, _, value string, _ time.Duration) { stored = value }).
				Return(nil).Once()
		},
	)

	w := serve(router, "/api/games/search?query=%20zelda%20&page=2&page_size=10")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var page domain.SearchPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, "zelda", page.Query)
	assert.Equal(t, 23, page.Count)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Results, 10)
	assert.JSONEq(t, `{"id":11}`, string(page.Results[0]))
	assert.False(t, page.Cached)
	assert.NotEmpty(t, page.ResponseTime)

	assert.NotContains(t, stored, `"cached"`)
}

func TestGamesHandler_SearchPageBeyondEnd(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"one past the last page", "3"},
		{"max int page", strconv.Itoa(math.MaxInt)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupGamesRouter(t,
				func(m *mocks.MockGameCatalog) {
					m.EXPECT().SearchGames(mock.Anything, "portal", app.SearchFetchLimit).
						Return(&domain.GameSearchResult{Games: games(150), Count: 150}, nil).Once()
				},
				nil,
			)

			w := serve(router, "/api/games/search?query=portal&page="+tt.page+"&page_size=100")

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var page domain.SearchPage
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
			assert.NotNil(t, page.Results)
			assert.Empty(t, page.Results)
			assert.Equal(t, 150, page.Count)
			assert.Equal(t, 2, page.TotalPages)
		})
	}
}

func TestGamesHandler_SearchHit(t *testing.T) {
	cached := `{"query":"zelda","results":[{"id":1}],"count":1,"page":1,"page_size":20,` +
		`"total_pages":1,"timestamp":"2026-01-02T03:04:05Z","responseTime":"12ms"}`

	router := setupGamesRouter(t,
		nil,
		func(m *mocks.MockCache) {
			m.EXPECT().Get(mock.Anything, "gamesearch:zelda:1:20").Return(cached, true, nil).Once()
		},
	)

	w := serve(router, "/api/games/search?query=zelda")

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["cached"])
	assert.Equal(t, "12ms", body["responseTime"])
	assert.EqualValues(t, 1, body["count"])
}

func TestGamesHandler_SearchUpstreamFailures(t *testing.T) {
	tests := []struct {
		name               string
		upstreamErr        error
		expectedStatus     int
		expectedCode       string
		expectedRetryAfter string
	}{
		{
			name:               "rate limited",
			upstreamErr:        domain.NewRateLimitError("Rate limit exceeded", 60),
			expectedStatus:     http.StatusTooManyRequests,
			expectedCode:       domain.CodeRateLimit,
			expectedRetryAfter: "60",
		},
		{
			name:               "upstream 503",
			upstreamErr:        domain.NewServiceUnavailableError("Service temporarily unavailable: Service Unavailable", 503, "price-fetcher"),
			expectedStatus:     http.StatusServiceUnavailable,
			expectedCode:       domain.CodeServiceUnavailable,
			expectedRetryAfter: "30",
		},
		{
			name:               "timeout",
			upstreamErr:        domain.NewNetworkError("Request timeout after 15000ms", nil),
			expectedStatus:     http.StatusServiceUnavailable,
			expectedCode:       domain.CodeNetwork,
			expectedRetryAfter: "30",
		},
		{
			name:           "invalid upstream body",
			upstreamErr:    domain.NewDataFormatError("Invalid JSON response from price fetcher service", "JSON"),
			expectedStatus: http.StatusBadGateway,
			expectedCode:   domain.CodeDataFormat,
		},
		{
			name:           "upstream 404",
			upstreamErr:    domain.NewNotFoundError("Resource not found", "price-fetcher", ""),
			expectedStatus: http.StatusNotFound,
			expectedCode:   domain.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupGamesRouter(t,
				func(m *mocks.MockGameCatalog) {
					m.EXPECT().SearchGames(mock.Anything, "halo", app.SearchFetchLimit).Return(nil, tt.upstreamErr).Once()
				},
				func(m *mocks.MockCache) {
					m.EXPECT().Get(mock.Anything, mock.Anything).Return("", false, nil).Once()
				},
			)

			w := serve(router, "/api/games/search?query=halo")

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedRetryAfter, w.Header().Get(HeaderRetryAfter))

			resp := decodeFailure(t, w)
			assert.Equal(t, tt.expectedCode, resp.Code)
			assert.NotEmpty(t, resp.Timestamp)
		})
	}
}

func TestGamesHandler_Prices(t *testing.T) {
	router := setupGamesRouter(t,
		func(m *mocks.MockGameCatalog) {
			m.EXPECT().GetPrices(mock.Anything, domain.GameID(testGameID)).
				Return(domain.GamePrices{"steam": json.RawMessage(`19.99`)}, nil).Once()
		},
		nil,
	)

	w := serve(router, "/api/games/prices?id="+testGameID)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, testGameID, body["id"])
	assert.Equal(t, map[string]any{"steam": 19.99}, body["prices"])
	assert.Contains(t, body, "timestamp")
	assert.Contains(t, body, "responseTime")
}

func TestGamesHandler_PricesValidation(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		expectedMsg string
	}{
		{name: "missing id", target: "/api/games/prices", expectedMsg: "Game ID parameter is required"},
		{name: "not a uuid", target: "/api/games/prices?id=abc", expectedMsg: "Game ID must be a valid UUID format"},
		{name: "braced uuid", target: "/api/games/prices?id=%7B" + testGameID + "%7D", expectedMsg: "Game ID must be a valid UUID format"},
		{name: "whitespace id", target: "/api/games/prices?id=%20", expectedMsg: "Game ID parameter cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupGamesRouter(t, nil, nil)

			w := serve(router, tt.target)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			resp := decodeFailure(t, w)
			assert.Equal(t, "id", resp.Field)
			assert.Equal(t, tt.expectedMsg, resp.Details)
		})
	}
}

func TestGamesHandler_PricesUnclassifiedError(t *testing.T) {
	router := setupGamesRouter(t,
		func(m *mocks.MockGameCatalog) {
			m.EXPECT().GetPrices(mock.Anything, mock.Anything).
				Return(nil, fmt.Errorf("decoder exploded: secret internals")).Once()
		},
		nil,
	)

	w := serve(router, "/api/games/prices?id="+testGameID)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret internals")

	resp := decodeFailure(t, w)
	assert.Equal(t, domain.CodeInternal, resp.Code)
	assert.Equal(t, dto.DetailsInternal, resp.Details)
}

func TestNoRoute(t *testing.T) {
	router := setupGamesRouter(t, nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/unknown", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp dto.NoRouteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.SummaryNoRoute, resp.Error)
	assert.Equal(t, "The requested endpoint POST /api/unknown was not found", resp.Details)
	assert.Equal(t, AvailableEndpoints, resp.AvailableEndpoints)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestGamesHandler_RegisterGameRoutes(t *testing.T) {
	router := setupGamesRouter(t, nil, nil)

	routeMap := make(map[string]bool)
	for _, r := range router.Routes() {
		routeMap[r.Method+" "+r.Path] = true
	}

	assert.True(t, routeMap["GET /api/games/search"])
	assert.True(t, routeMap["GET /api/games/prices"])
}
