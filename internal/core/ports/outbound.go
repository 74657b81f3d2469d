package ports

import (
	"context"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
)

// InternalRiskAPI fetches the internal risk assessment for one merchant.
// There is no documented fallback for this collaborator: a failure that
// survives the adapter's retry policy is fatal for the run.
type InternalRiskAPI interface {
	FetchRisk(ctx context.Context, merchantID string) (domain.InternalRiskReport, error)
}

// CountryMetadata resolves region/subregion for a country name. Callers
// substitute domain.UnknownCountryMeta on any error.
type CountryMetadata interface {
	FetchCountryMeta(ctx context.Context, country string) (domain.CountryMeta, error)
}

// DocumentExtractor extracts concatenated page text from a merchant summary
// document. Empty text is a valid zero-signal result.
type DocumentExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// WebScraper collects public web-presence signals for the merchant site.
type WebScraper interface {
	Scrape(ctx context.Context) (domain.WebPresence, error)
}

// RiskClassifier is the trained-model collaborator: a probability in [0,1]
// per feature row. FeatureNames reports the order rows must follow.
type RiskClassifier interface {
	FeatureNames() []string
	PredictProbability(row []float64) (float64, error)
}

// ModelTrainer fits the risk classifier on an enriched table and returns it
// with its coefficient-based feature importance, descending.
type ModelTrainer interface {
	Train(ctx context.Context, table *domain.MerchantTable) (RiskClassifier, []domain.FeatureWeight, error)
}

// ClassifierLoader hands back a previously persisted classifier together
// with its feature importance, for runs that score without retraining.
type ClassifierLoader interface {
	LoadClassifier(ctx context.Context) (RiskClassifier, []domain.FeatureWeight, error)
}

// RunRepository persists the scored table of one pipeline run.
type RunRepository interface {
	SaveRun(ctx context.Context, runID string, records []domain.MerchantRecord, metrics domain.PortfolioMetrics) error
}

// ReviewQueue hands High-tier merchants to the manual-review workflow.
type ReviewQueue interface {
	PublishReviewRequested(ctx context.Context, runID string, rec domain.MerchantRecord) error
	Close()
}

// NarrativeGenerator turns an underwriting prompt into narrative text.
type NarrativeGenerator interface {
	GenerateFromPrompt(ctx context.Context, prompt string) (string, error)
}

// ReportStore persists rendered underwriting reports.
type ReportStore interface {
	SaveReport(ctx context.Context, merchantID string, report string) (string, error)
}
