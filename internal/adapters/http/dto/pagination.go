package dto

import (
	"strconv"
	"strings"

	"github.com/jsamuelsen/game-price-gateway/internal/domain"
)

// DefaultPage is the page served when none is requested.
const DefaultPage = 1

// DefaultPageSize is the default number of results per page.
const DefaultPageSize = 20

// MaxPageSize is the maximum allowed results per page.
const MaxPageSize = 100

// PageSizeMessage is returned for any unacceptable page_size.
const PageSizeMessage = "page_size must be an integer between 1 and 100"

// PageRequest holds the parsed page_size so the validator can range-check it.
type PageRequest struct {
	PageSize int `json:"page_size" validate:"gte=1,lte=100"`
}

// ValidatePageParams parses the page and page_size query values.
//
// An unparsable or non-positive page falls back to 1. A page_size that is
// present must be an integer in [1, MaxPageSize]; anything else is rejected.
func ValidatePageParams(page, pageSize string) (int, int, error) {
	p := DefaultPage

	if n, err := strconv.Atoi(strings.TrimSpace(page)); err == nil && n >= 1 {
		p = n
	}

	raw := strings.TrimSpace(pageSize)
	if raw == "" {
		return p, DefaultPageSize, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, 0, domain.NewValidationErrorWithValue("page_size", PageSizeMessage, pageSize)
	}

	if err := Validator().Struct(PageRequest{PageSize: n}); err != nil {
		return 0, 0, domain.NewValidationErrorWithValue("page_size", PageSizeMessage, pageSize)
	}

	return p, n, nil
}
