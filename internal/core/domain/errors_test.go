package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapErrorPreservesKindAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapError(ErrCollaborator, "internal risk enrichment", cause)

	if !IsKind(err, ErrCollaborator) {
		t.Fatalf("kind lost: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost: %v", err)
	}
	if !strings.Contains(err.Error(), "internal risk enrichment") {
		t.Fatalf("operation lost: %v", err)
	}
}

func TestWrapErrorNilPassthrough(t *testing.T) {
	if err := WrapError(ErrSchema, "validate", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestIsKindDistinguishesKinds(t *testing.T) {
	err := WrapError(ErrSchema, "validate merchant_id", errors.New("duplicate"))

	if !IsKind(err, ErrSchema) {
		t.Fatalf("expected ErrSchema")
	}
	if IsKind(err, ErrScoring) {
		t.Fatalf("ErrScoring should not match")
	}
}
