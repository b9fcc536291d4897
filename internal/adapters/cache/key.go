package cache

import (
	"strconv"
	"strings"
)

// searchKeyPrefix namespaces search envelopes in the store.
const searchKeyPrefix = "gamesearch"

// SearchKey composes the deterministic key for a search page.
// Format: gamesearch:<text>:<page>:<pageSize>
//
// Example:
//
//	gamesearch:portal:1:20
//
// The key carries no locale or region, so identical queries served for
// different regions share an entry.
func SearchKey(text string, page, pageSize int) string {
	return strings.Join([]string{
		searchKeyPrefix,
		text,
		strconv.Itoa(page),
		strconv.Itoa(pageSize),
	}, ":")
}
