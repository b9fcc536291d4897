// Package app contains application services that orchestrate use cases.
// This is the application layer in Clean Architecture - it coordinates
// domain logic and infrastructure through ports.
//
// What does NOT belong here:
//   - HTTP specifics such as status codes and query parsing (that's adapters)
//   - Redis commands or upstream URLs (that's adapters)
//   - The error taxonomy itself (that's the domain layer)
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jsamuelsen/game-price-gateway/internal/domain"
	"github.com/jsamuelsen/game-price-gateway/internal/platform/logging"
	"github.com/jsamuelsen/game-price-gateway/internal/ports"
)

const (
	// SearchFetchLimit is how many games one upstream search asks for.
	// Pagination happens locally within this window.
	SearchFetchLimit = 100

	// DefaultSearchTTL is how long a search page stays cached.
	DefaultSearchTTL = 300 * time.Second
)

// KeyFunc composes the cache key for a search page.
type KeyFunc func(text string, page, pageSize int) string

// GameService orchestrates the search and prices use cases.
// It depends on port interfaces, not concrete implementations.
type GameService struct {
	catalog    ports.GameCatalog
	cache      ports.Cache
	key        KeyFunc
	ttl        time.Duration
	fetchLimit int
	logger     *slog.Logger
	now        func() time.Time

	flight singleflight.Group
}

// GameServiceConfig contains the dependencies of a GameService.
type GameServiceConfig struct {
	// Catalog is the upstream game source. Required.
	Catalog ports.GameCatalog

	// Cache stores search pages. Nil disables caching.
	Cache ports.Cache

	// Key composes cache keys. Required when Cache is set.
	Key KeyFunc

	// TTL is the search page lifetime. Defaults to DefaultSearchTTL.
	TTL time.Duration

	// FetchLimit overrides SearchFetchLimit.
	FetchLimit int

	Logger *slog.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewGameService creates a game service with the provided dependencies.
// Panics if Catalog is nil, or if Cache is set without Key.
func NewGameService(cfg GameServiceConfig) *GameService {
	if cfg.Catalog == nil {
		panic("game catalog cannot be nil")
	}

	if cfg.Cache != nil && cfg.Key == nil {
		panic("cache key func cannot be nil when a cache is configured")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSearchTTL
	}

	limit := cfg.FetchLimit
	if limit <= 0 {
		limit = SearchFetchLimit
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &GameService{
		catalog:    cfg.Catalog,
		cache:      cfg.Cache,
		key:        cfg.Key,
		ttl:        ttl,
		fetchLimit: limit,
		logger:     logger.With(slog.String("component", "app.GameService")),
		now:        now,
	}
}

// Search returns one page of games matching q.
//
// A cached page is returned as stored, with Cached set; its Timestamp and
// ResponseTime are those of the miss that populated it. On a miss the
// upstream is asked once for SearchFetchLimit games, the page is cut locally
// and the result is cached. Concurrent misses for the same key share a single
// upstream call. Cache failures never fail the search.
func (s *GameService) Search(ctx context.Context, q domain.SearchQuery) (*domain.SearchPage, error) {
	start := s.now()
	logger := s.loggerFrom(ctx).With(
		slog.String("method", "Search"),
		slog.String("query", q.Text),
		slog.Int("page", q.Page),
		slog.Int("page_size", q.PageSize),
	)

	if s.cache == nil {
		return s.fetchPage(ctx, logger, q, start, "")
	}

	key := s.key(q.Text, q.Page, q.PageSize)

	if page, ok := s.lookup(ctx, logger, key); ok {
		logger.InfoContext(ctx, "search served from cache", slog.String("key", key))
		return page, nil
	}

	v, err, shared := s.flight.Do(key, func() (any, error) {
		return s.fetchPage(ctx, logger, q, start, key)
	})
	if err != nil {
		return nil, err
	}

	if shared {
		logger.DebugContext(ctx, "search shared an in-flight upstream call", slog.String("key", key))
	}

	page := *v.(*domain.SearchPage)

	return &page, nil
}

// lookup reads a cached page. Store errors and corrupt entries count as misses.
func (s *GameService) lookup(ctx context.Context, logger *slog.Logger, key string) (*domain.SearchPage, bool) {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.WarnContext(ctx, "cache lookup failed, treating as miss",
			slog.String("key", key),
			slog.Any("error", err),
		)

		return nil, false
	}

	if !ok {
		return nil, false
	}

	var page domain.SearchPage
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		logger.WarnContext(ctx, "corrupt cache entry, treating as miss",
			slog.String("key", key),
			slog.Any("error", err),
		)

		return nil, false
	}

	if page.Results == nil {
		page.Results = []json.RawMessage{}
	}

	page.Cached = true

	return &page, true
}

// fetchPage asks the upstream, cuts the requested page and caches it under key.
func (s *GameService) fetchPage(
	ctx context.Context,
	logger *slog.Logger,
	q domain.SearchQuery,
	start time.Time,
	key string,
) (*domain.SearchPage, error) {
	logger.InfoContext(ctx, "searching upstream", slog.Int("limit", s.fetchLimit))

	result, err := s.catalog.SearchGames(ctx, q.Text, s.fetchLimit)
	if err != nil {
		logger.ErrorContext(ctx, "upstream search failed", slog.Any("error", err))
		return nil, fmt.Errorf("searching games: %w", err)
	}

	if result == nil {
		result = &domain.GameSearchResult{Count: -1}
	}

	count := result.Count
	if count < 0 {
		count = len(result.Games)
	}

	now := s.now()
	page := &domain.SearchPage{
		Query:        q.Text,
		Results:      domain.Paginate(result.Games, q.Page, q.PageSize),
		Count:        count,
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   domain.TotalPages(count, q.PageSize),
		Timestamp:    now.UTC(),
		ResponseTime: formatElapsed(now.Sub(start)),
	}

	logger.InfoContext(ctx, "upstream search completed",
		slog.Int("fetched", len(result.Games)),
		slog.Int("count", count),
		slog.Int("returned", len(page.Results)),
	)

	if key != "" {
		s.store(ctx, logger, key, page)
	}

	return page, nil
}

// store writes page to the cache. Failures are logged and otherwise ignored.
func (s *GameService) store(ctx context.Context, logger *slog.Logger, key string, page *domain.SearchPage) {
	data, err := json.Marshal(page)
	if err != nil {
		logger.WarnContext(ctx, "failed to encode search page for cache", slog.Any("error", err))
		return
	}

	if err := s.cache.SetWithTTL(ctx, key, string(data), s.ttl); err != nil {
		logger.WarnContext(ctx, "failed to cache search page",
			slog.String("key", key),
			slog.Any("error", err),
		)

		return
	}

	logger.DebugContext(ctx, "search page cached", slog.String("key", key), slog.Duration("ttl", s.ttl))
}

// Prices returns the current prices for one game. Prices are never cached.
func (s *GameService) Prices(ctx context.Context, id domain.GameID) (*domain.PriceQuote, error) {
	start := s.now()
	logger := s.loggerFrom(ctx).With(slog.String("method", "Prices"), slog.String("game_id", id.String()))

	logger.InfoContext(ctx, "fetching prices")

	prices, err := s.catalog.GetPrices(ctx, id)
	if err != nil {
		logger.ErrorContext(ctx, "failed to fetch prices", slog.Any("error", err))
		return nil, fmt.Errorf("fetching prices: %w", err)
	}

	if prices == nil {
		return nil, domain.NewDataFormatError("Invalid JSON response from price fetcher service", "JSON")
	}

	now := s.now()

	return &domain.PriceQuote{
		ID:           id,
		Prices:       prices,
		Timestamp:    now.UTC(),
		ResponseTime: formatElapsed(now.Sub(start)),
	}, nil
}

func (s *GameService) loggerFrom(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, s.logger)
}

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}
