package nfo

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"metascraper/internal/services"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// DescriptorValidationError names the first descriptor field that broke a
// schema rule.
type DescriptorValidationError struct {
	// Document is "movie", "tvshow" or the episode descriptor path.
	Document string
	// Field is the XML path of the field, e.g. "actor[0].name".
	Field string
	// Rule is the failed validator tag, with its parameter when present.
	Rule string
}

func (e *DescriptorValidationError) Error() string {
	return fmt.Sprintf("descriptor %s: field %s violates %s", e.Document, e.Field, e.Rule)
}

// Unwrap ties the error to services.ErrDescriptorInvalid for classification.
func (e *DescriptorValidationError) Unwrap() error { return services.ErrDescriptorInvalid }

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("xml"), ",")
			switch name {
			case "-":
				return ""
			case "":
				return strings.ToLower(fld.Name)
			}
			return name
		})
	})
	return validate
}

// Validate checks the main descriptor and every episode descriptor. It
// returns a *DescriptorValidationError for the first violation.
func Validate(doc *Document) error {
	if doc == nil {
		return &DescriptorValidationError{Document: "document", Field: "root", Rule: "required"}
	}
	switch {
	case doc.Movie != nil:
		if err := validateOne("movie", doc.Movie); err != nil {
			return err
		}
	case doc.Show != nil:
		if err := validateOne("tvshow", doc.Show); err != nil {
			return err
		}
	default:
		return &DescriptorValidationError{Document: "document", Field: "root", Rule: "required"}
	}
	for _, ep := range doc.Episodes {
		if err := validateOne(ep.Path, ep.Details); err != nil {
			return err
		}
	}
	return nil
}

func validateOne(name string, v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate %s: %w", name, err)
	}
	fe := fieldErrs[0]
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += "=" + fe.Param()
	}
	return &DescriptorValidationError{Document: name, Field: field, Rule: rule}
}
