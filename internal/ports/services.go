// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use the domain error taxonomy
//   - Keep interfaces small and focused (Interface Segregation Principle)
package ports

import (
	"context"
	"time"

	"github.com/jsamuelsen/game-price-gateway/internal/domain"
)

// GameCatalog is the upstream source of truth for game search and prices.
//
// Implementations make exactly one upstream call per method invocation and
// return classified domain errors for every upstream failure.
type GameCatalog interface {
	// SearchGames returns up to limit games matching title.
	SearchGames(ctx context.Context, title string, limit int) (*domain.GameSearchResult, error)

	// GetPrices returns the raw price object for a game.
	// Returns a domain.DataFormatError if the upstream body is not a JSON object.
	GetPrices(ctx context.Context, id domain.GameID) (domain.GamePrices, error)
}

// Cache is a string key/value store with per-entry expiry.
//
// A miss is not an error: Get returns ("", false, nil). Errors report store-level
// failures only, and callers treat them as a miss.
type Cache interface {
	// Get retrieves the value stored under key.
	Get(ctx context.Context, key string) (string, bool, error)

	// SetWithTTL stores value under key for ttl.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
}
