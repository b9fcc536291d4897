package acl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/jsamuelsen/game-price-gateway/internal/adapters/clients"
	"github.com/jsamuelsen/game-price-gateway/internal/domain"
	"github.com/jsamuelsen/game-price-gateway/internal/platform/logging"
)

// Defaults for PriceFetcherConfig.
const (
	DefaultServiceName   = "price-fetcher"
	DefaultSearchTimeout = 15 * time.Second
	DefaultPricesTimeout = 20 * time.Second
	DefaultHealthTimeout = 2 * time.Second
)

// PriceFetcherConfig contains configuration for the price-fetcher client.
type PriceFetcherConfig struct {
	// Client is the HTTP client to use for requests.
	Client *clients.Client

	// BaseURL is the price-fetcher root, e.g. "http://price-fetcher:8000".
	BaseURL string

	// ServiceName identifies the upstream in errors and health output.
	ServiceName string

	SearchTimeout time.Duration
	PricesTimeout time.Duration
	HealthTimeout time.Duration

	// Logger is the structured logger.
	Logger *slog.Logger
}

// PriceFetcherClient implements ports.GameCatalog against the price-fetcher API.
type PriceFetcherClient struct {
	BaseAdapter

	searchTimeout time.Duration
	pricesTimeout time.Duration
	healthTimeout time.Duration
	logger        *slog.Logger
}

// NewPriceFetcherClient creates a new price-fetcher adapter.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
func NewPriceFetcherClient(cfg PriceFetcherConfig) *PriceFetcherClient {
	if cfg.Client == nil {
		panic("PriceFetcherClient: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	name := cfg.ServiceName
	if name == "" {
		name = DefaultServiceName
	}

	return &PriceFetcherClient{
		BaseAdapter:   NewBaseAdapter(cfg.Client, cfg.BaseURL, name),
		searchTimeout: orDefault(cfg.SearchTimeout, DefaultSearchTimeout),
		pricesTimeout: orDefault(cfg.PricesTimeout, DefaultPricesTimeout),
		healthTimeout: orDefault(cfg.HealthTimeout, DefaultHealthTimeout),
		logger:        logger,
	}
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}

	return d
}

// SearchGames asks the upstream for up to limit games matching title.
// Implements ports.GameCatalog.
func (c *PriceFetcherClient) SearchGames(ctx context.Context, title string, limit int) (*domain.GameSearchResult, error) {
	query := url.Values{
		"title":      []string{title},
		"result_num": []string{strconv.Itoa(limit)},
	}

	c.logger.Log(ctx, logging.LevelTrace, "starting request",
		slog.String("path", "/game-ids"),
		slog.String("title", title),
		slog.Int("limit", limit))

	body, err := c.Get(ctx, "/game-ids", query, c.searchTimeout)
	if err != nil {
		return nil, err
	}

	obj, err := DecodeObject(ctx, body)
	if err != nil {
		return nil, err
	}

	result, err := translateSearch(ctx, obj)
	if err != nil {
		return nil, err
	}

	c.logger.Log(ctx, logging.LevelTrace, "translated search response",
		slog.Int("games", len(result.Games)),
		slog.Int("count", result.Count))

	return result, nil
}

// GetPrices fetches the price object for one game.
// Implements ports.GameCatalog.
func (c *PriceFetcherClient) GetPrices(ctx context.Context, id domain.GameID) (domain.GamePrices, error) {
	c.logger.Log(ctx, logging.LevelTrace, "starting request",
		slog.String("path", "/prices"),
		slog.String("game_id", id.String()))

	body, err := c.Get(ctx, "/prices", url.Values{"id": []string{id.String()}}, c.pricesTimeout)
	if err != nil {
		return nil, err
	}

	obj, err := DecodeObject(ctx, body)
	if err != nil {
		return nil, err
	}

	return domain.GamePrices(obj), nil
}

// translateSearch converts the upstream search object into the domain result.
// A missing or null "games" is an empty result; a "games" that is not an array
// is a data format error. An unusable "count" is treated as absent.
func translateSearch(ctx context.Context, obj map[string]json.RawMessage) (*domain.GameSearchResult, error) {
	result := &domain.GameSearchResult{Games: []json.RawMessage{}, Count: -1}

	if raw, ok := obj["games"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &result.Games); err != nil {
			return nil, dataFormatError(ctx, "object", fmt.Errorf("decoding games: %w", err))
		}
	}

	if raw, ok := obj["count"]; ok {
		var count int
		if err := json.Unmarshal(raw, &count); err == nil && count >= 0 {
			result.Count = count
		}
	}

	return result, nil
}

// Name returns the health check name for this client.
// Implements ports.HealthChecker.
func (c *PriceFetcherClient) Name() string {
	return c.ServiceName()
}

// Check calls the upstream health endpoint.
// Implements ports.HealthChecker.
func (c *PriceFetcherClient) Check(ctx context.Context) error {
	body, err := c.Get(ctx, "/health", nil, c.healthTimeout)
	if err != nil {
		return fmt.Errorf("%s health: %w", c.ServiceName(), err)
	}

	return body.Close()
}
