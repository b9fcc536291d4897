package dto

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jsamuelsen/game-price-gateway/internal/domain"
)

// jsonTagParts is the number of parts when splitting a JSON tag by comma.
// The first part is the field name, subsequent parts are options like "omitempty".
const jsonTagParts = 2

// MaxQueryLength is the longest accepted search text, in characters.
const MaxQueryLength = 100

var gameIDPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

var (
	// validate is the singleton validator instance.
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the singleton validator instance.
// It initializes the validator with custom validations on first call.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()

		// Use JSON tag names in error messages
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", jsonTagParts)[0]
			if name == "-" {
				return ""
			}

			return name
		})

		_ = validate.RegisterValidation("gameid", validateGameID)
		_ = validate.RegisterValidation("notempty", validateNotEmpty)
	})

	return validate
}

// SearchParams is the validated form of the search query parameter.
type SearchParams struct {
	Query string `json:"query" validate:"notempty,max=100"`
}

// PricesParams is the validated form of the prices id parameter.
type PricesParams struct {
	ID string `json:"id" validate:"notempty,gameid"`
}

// fieldMessages maps field and failed tag to the client-facing message.
var fieldMessages = map[string]map[string]string{
	"query": {
		"notempty": "Query parameter cannot be empty",
		"max":      "Query parameter too long (max 100 characters)",
	},
	"id": {
		"notempty": "Game ID parameter cannot be empty",
		"gameid":   "Game ID must be a valid UUID format",
	},
}

// ValidateSearchQuery checks the raw query parameter and returns the trimmed text.
// present reports whether the parameter was supplied at all.
func ValidateSearchQuery(raw string, present bool) (string, error) {
	if !present || raw == "" {
		return "", domain.NewValidationError("query", "Query parameter is required")
	}

	params := SearchParams{Query: strings.TrimSpace(raw)}
	if err := structToDomain(&params, raw); err != nil {
		return "", err
	}

	return params.Query, nil
}

// ValidateGameID checks the raw id parameter and returns the trimmed id.
func ValidateGameID(raw string, present bool) (domain.GameID, error) {
	if !present || raw == "" {
		return "", domain.NewValidationError("id", "Game ID parameter is required")
	}

	params := PricesParams{ID: strings.TrimSpace(raw)}
	if err := structToDomain(&params, raw); err != nil {
		return "", err
	}

	return domain.GameID(params.ID), nil
}

// structToDomain validates v and converts the first field failure into a
// domain validation error.
func structToDomain(v any, raw string) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return domain.NewValidationError("", err.Error())
	}

	fe := validationErrs[0]

	return domain.NewValidationErrorWithValue(fe.Field(), fieldMessage(fe), raw)
}

// validationMessages maps generic validation tags to message templates.
// Use {param} as placeholder for the validation parameter.
var validationMessages = map[string]string{
	"required": "this field is required",
	"notempty": "must not be empty",
	"gameid":   "must be a valid UUID",
	"gte":      "must be greater than or equal to {param}",
	"lte":      "must be less than or equal to {param}",
	"max":      "must be at most {param} characters",
}

// fieldMessage returns a human-readable message for a validation error.
func fieldMessage(fe validator.FieldError) string {
	if byTag, ok := fieldMessages[fe.Field()]; ok {
		if msg, ok := byTag[fe.Tag()]; ok {
			return msg
		}
	}

	if msg, ok := validationMessages[fe.Tag()]; ok {
		return strings.ReplaceAll(msg, "{param}", fe.Param())
	}

	return "failed validation: " + fe.Tag()
}

// validateGameID accepts only the canonical dashed UUID form.
func validateGameID(fl validator.FieldLevel) bool {
	return gameIDPattern.MatchString(fl.Field().String())
}

// validateNotEmpty validates that a string is not empty after trimming whitespace.
func validateNotEmpty(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
