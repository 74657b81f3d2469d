package ports

import (
	"context"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
)

// Underwriter is the inbound contract for one full batch run over a loaded
// merchant table: validation, enrichment, training, scoring, aggregation.
type Underwriter interface {
	Run(ctx context.Context, table *domain.MerchantTable) (*RunResult, error)
}

// RunResult is everything a caller needs after a completed run.
type RunResult struct {
	RunID      string
	Table      *domain.MerchantTable
	Portfolio  domain.PortfolioMetrics
	Importance []domain.FeatureWeight
}

// ReportService renders underwriting reports for scored merchants.
type ReportService interface {
	Assemble(rec domain.MerchantRecord, importance []domain.FeatureWeight) string
	Narrate(ctx context.Context, rec domain.MerchantRecord, importance []domain.FeatureWeight, portfolio domain.PortfolioMetrics) (string, error)
}
