package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external service error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")

	ErrInput             = errors.New("input error")
	ErrSearchExhausted   = errors.New("search exhausted")
	ErrNoCandidate       = errors.New("no candidate")
	ErrDescriptorInvalid = errors.New("descriptor validation error")
	ErrWrite             = errors.New("write error")
)

// Failure kinds reported in run summaries.
const (
	KindInput                = "input_error"
	KindSearchExhausted      = "search_exhausted"
	KindNoCandidate          = "no_candidate"
	KindDescriptorValidation = "descriptor_validation"
	KindWrite                = "write_error"
	KindNotFound             = "not_found"
	KindConfiguration        = "configuration"
	KindCanceled             = "canceled"
	KindInternal             = "internal"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps a pipeline error to the failure kind recorded in run reports.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, ErrInput):
		return KindInput
	case errors.Is(err, ErrSearchExhausted):
		return KindSearchExhausted
	case errors.Is(err, ErrNoCandidate):
		return KindNoCandidate
	case errors.Is(err, ErrDescriptorInvalid):
		return KindDescriptorValidation
	case errors.Is(err, ErrWrite):
		return KindWrite
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	default:
		return KindInternal
	}
}

// Retryable reports whether a failure could succeed on a later attempt.
// Search exhaustion and invalid input are terminal.
func Retryable(err error) bool {
	switch Classify(err) {
	case KindInput, KindSearchExhausted, KindNoCandidate, KindDescriptorValidation, KindConfiguration, KindNotFound:
		return false
	case "":
		return false
	default:
		return true
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
