package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xavierca1/products-cms/internal/entity"
)

const maxProductNameLength = 255

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ValidateDraft(d entity.ProductDraft) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(d.Name) == "" {
		errors = append(errors, ValidationError{"product_name", "is required"})
	} else if utf8.RuneCountInString(d.Name) > maxProductNameLength {
		errors = append(errors, ValidationError{"product_name", fmt.Sprintf("must not exceed %d characters", maxProductNameLength)})
	}

	if !d.Status.IsValid() {
		errors = append(errors, ValidationError{"status", "must be Draft, Published or Archived"})
	}

	return errors
}

func joinValidationErrors(errs []ValidationError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}
