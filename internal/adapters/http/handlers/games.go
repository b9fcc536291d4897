package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/game-price-gateway/internal/adapters/http/dto"
	"github.com/jsamuelsen/game-price-gateway/internal/adapters/http/middleware"
	"github.com/jsamuelsen/game-price-gateway/internal/app"
	"github.com/jsamuelsen/game-price-gateway/internal/domain"
	"github.com/jsamuelsen/game-price-gateway/internal/platform/logging"
)

// AvailableEndpoints is listed in the body of every 404 for an unknown route.
var AvailableEndpoints = []string{
	"GET /api/games/search?query=<game>",
	"GET /api/games/prices?id=<game-id>",
	"GET /health - Health check",
}

// GamesHandler handles the game search and prices endpoints.
type GamesHandler struct {
	service *app.GameService
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(service *app.GameService) *GamesHandler {
	return &GamesHandler{
		service: service,
	}
}

// Search handles GET /api/games/search?query=&page=&page_size=
//
// Input is validated before any cache or upstream access. Once validation
// passes, a client disconnect no longer cancels the work.
func (h *GamesHandler) Search(c *gin.Context) {
	start := requestStart(c)

	text, err := dto.ValidateSearchQuery(c.GetQuery("query"))
	if err != nil {
		HandleFailure(c, err, start)
		return
	}

	page, pageSize, err := dto.ValidatePageParams(c.Query("page"), c.Query("page_size"))
	if err != nil {
		HandleFailure(c, err, start)
		return
	}

	ctx, cancel := middleware.Detach(c.Request.Context())
	defer cancel()

	result, err := h.service.Search(ctx, domain.SearchQuery{
		Text:     text,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		HandleFailure(c, err, start)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Prices handles GET /api/games/prices?id=<uuid>
func (h *GamesHandler) Prices(c *gin.Context) {
	start := requestStart(c)

	id, err := dto.ValidateGameID(c.GetQuery("id"))
	if err != nil {
		HandleFailure(c, err, start)
		return
	}

	ctx, cancel := middleware.Detach(c.Request.Context())
	defer cancel()

	quote, err := h.service.Prices(ctx, id)
	if err != nil {
		HandleFailure(c, err, start)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// RegisterGameRoutes registers the game routes on the given router group:
//   - GET /games/search
//   - GET /games/prices
func (h *GamesHandler) RegisterGameRoutes(rg *gin.RouterGroup) {
	games := rg.Group("/games")
	games.GET("/search", h.Search)
	games.GET("/prices", h.Prices)
}

// NoRoute answers requests that match no registered route.
func NoRoute(c *gin.Context) {
	ctx := c.Request.Context()

	logging.FromContext(ctx).WarnContext(ctx, "endpoint not found",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusNotFound, dto.NewNoRouteResponse(c.Request.Method, c.Request.URL.Path, AvailableEndpoints))
}
