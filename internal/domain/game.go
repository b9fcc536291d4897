package domain

import (
	"encoding/json"
	"time"
)

// GameID is a canonical UUID string identifying a game upstream.
type GameID string

// String returns the id as a plain string.
func (id GameID) String() string { return string(id) }

// SearchQuery is a validated search request.
type SearchQuery struct {
	// Text is the trimmed, non-empty search text (at most 100 characters).
	Text string

	// Page is the 1-based page number.
	Page int

	// PageSize is the number of results per page (1..100).
	PageSize int
}

// GameSearchResult is the upstream search payload.
// Games are kept opaque; the gateway never inspects their shape.
type GameSearchResult struct {
	Games []json.RawMessage

	// Count is the total reported by the upstream, or -1 if it reported none.
	Count int
}

// GamePrices is the upstream price payload for one game.
type GamePrices map[string]json.RawMessage

// SearchPage is a paginated search answer, as returned to clients and cached.
type SearchPage struct {
	Query        string            `json:"query"`
	Results      []json.RawMessage `json:"results"`
	Count        int               `json:"count"`
	Page         int               `json:"page"`
	PageSize     int               `json:"page_size"`
	TotalPages   int               `json:"total_pages"`
	Timestamp    time.Time         `json:"timestamp"`
	ResponseTime string            `json:"responseTime"`
	Cached       bool              `json:"cached,omitempty"`
}

// PriceQuote is a prices answer for one game.
type PriceQuote struct {
	ID           GameID     `json:"id"`
	Prices       GamePrices `json:"prices"`
	Timestamp    time.Time  `json:"timestamp"`
	ResponseTime string     `json:"responseTime"`
}
