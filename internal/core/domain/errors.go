package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema aborts a run before any enrichment happens.
	ErrSchema = errors.New("schema validation failed")
	// ErrCollaborator marks an external enrichment dependency failure.
	ErrCollaborator = errors.New("collaborator failure")
	// ErrScoring marks a missing feature or unusable model; fatal for the run.
	ErrScoring = errors.New("scoring failure")
	// ErrAggregation marks misuse of the portfolio aggregator.
	ErrAggregation = errors.New("aggregation failure")

	ErrMerchantNotFound = errors.New("merchant not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
