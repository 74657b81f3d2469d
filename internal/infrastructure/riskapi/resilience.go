package riskapi

import (
	"context"
	"errors"
	"net"

	"github.com/claritypay/merchant-underwriter/internal/infrastructure/resilience"
)

// ClassifyError decides retry/breaker behavior for risk API failures.
// Context cancellation is neither retried nor counted against the breaker;
// transport errors and 5xx/429 statuses are both.
func ClassifyError(err error) resilience.Classification {
	if err == nil {
		return resilience.Classification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Classification{}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.Classification{Retryable: true, RecordFailure: true}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		retryable := statusErr.StatusCode == 429 || statusErr.StatusCode >= 500
		return resilience.Classification{Retryable: retryable, RecordFailure: retryable}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.Classification{Retryable: true, RecordFailure: true}
	}

	// Decode and client-side errors: not retryable, but still a failure.
	return resilience.Classification{RecordFailure: true}
}
