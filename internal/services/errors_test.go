package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"filmatlas/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrServiceUnavailable, "tmdb", "search", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrServiceUnavailable) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"tmdb", "search", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutMarkerDefaultsToServiceUnavailable(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrServiceUnavailable) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err)
	}
}

func TestIsCancelled(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"marker", services.Wrap(services.ErrCancelled, "tmdb", "search", "", nil), true},
		{"context", fmt.Errorf("do request: %w", context.Canceled), true},
		{"deadline", context.DeadlineExceeded, false},
		{"unavailable", services.ErrServiceUnavailable, false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		if got := services.IsCancelled(tc.err); got != tc.want {
			t.Fatalf("%s: IsCancelled = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsFatalAndUserMessage(t *testing.T) {
	parseErr := services.Wrap(services.ErrParse, "watchlist", "read header", "missing column Name", nil)
	if !services.IsFatal(parseErr) {
		t.Fatal("expected parse error to be fatal")
	}
	if msg := services.UserMessage(parseErr); !strings.HasPrefix(msg, "file invalid") {
		t.Fatalf("unexpected user message %q", msg)
	}

	lookupErr := services.Wrap(services.ErrServiceUnavailable, "tmdb", "search", "status 503", nil)
	if services.IsFatal(lookupErr) {
		t.Fatal("expected lookup failure to be recoverable")
	}
	if msg := services.UserMessage(lookupErr); msg != "cannot reach metadata service" {
		t.Fatalf("unexpected user message %q", msg)
	}

	cfgErr := services.Wrap(services.ErrConfiguration, "tmdb", "new client", "api token required", nil)
	if msg := services.UserMessage(cfgErr); !strings.Contains(msg, "api token required") {
		t.Fatalf("expected cause in message, got %q", msg)
	}
}
