package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"metascraper/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "fetch", "tmdb detail", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"fetch", "tmdb detail", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"input", services.Wrap(services.ErrInput, "resolve", "", "empty request", nil), services.KindInput},
		{"search", services.Wrap(services.ErrSearchExhausted, "search", "", "no results", nil), services.KindSearchExhausted},
		{"candidate", services.Wrap(services.ErrNoCandidate, "select", "", "", nil), services.KindNoCandidate},
		{"descriptor", services.Wrap(services.ErrDescriptorInvalid, "validate", "", "title", nil), services.KindDescriptorValidation},
		{"write", services.Wrap(services.ErrWrite, "write", "", "", errors.New("disk full")), services.KindWrite},
		{"canceled", fmt.Errorf("artwork: %w", context.Canceled), services.KindCanceled},
		{"deadline", context.DeadlineExceeded, services.KindCanceled},
		{"other", errors.New("boom"), services.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.Classify(tt.err); got != tt.want {
				t.Fatalf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	if services.Retryable(services.Wrap(services.ErrSearchExhausted, "search", "", "", nil)) {
		t.Fatal("search exhaustion must not be retryable")
	}
	if !services.Retryable(services.Wrap(services.ErrTransient, "fetch", "", "", errors.New("reset"))) {
		t.Fatal("transient failures should be retryable")
	}
}
