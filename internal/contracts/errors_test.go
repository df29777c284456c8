package contracts

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := fmt.Errorf("calculate: %w", &NotFoundError{Identifiers: []string{"a", "b"}})

	if !errors.Is(err, ErrNotFound) {
		t.Fatal("expected errors.Is(err, ErrNotFound)")
	}

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatal("expected *NotFoundError in chain")
	}
	if len(notFound.Identifiers) != 2 {
		t.Errorf("expected 2 identifiers, got %v", notFound.Identifiers)
	}
}

func TestUnavailable(t *testing.T) {
	if Unavailable("load", nil) != nil {
		t.Error("nil error should stay nil")
	}

	err := Unavailable("load product masks", context.DeadlineExceeded)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Error("expected ErrUpstreamUnavailable")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("cause should stay reachable")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("should not be ErrNotFound")
	}
}

func TestMalformedMaskError(t *testing.T) {
	var err error = &MalformedMaskError{Code: "x", Reason: "bad"}
	if !errors.Is(err, ErrMalformedMask) {
		t.Error("expected ErrMalformedMask")
	}
	if errors.Is(err, ErrInvalidArgument) {
		t.Error("should not be ErrInvalidArgument")
	}
}
