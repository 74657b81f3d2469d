package usecase

import (
	"fmt"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
)

// PortfolioAggregator reduces a scored table into portfolio-level metrics.
// Pure, no side effects; an empty table yields zero values, never a numeric
// error.
type PortfolioAggregator struct{}

func NewPortfolioAggregator() *PortfolioAggregator {
	return &PortfolioAggregator{}
}

func (a *PortfolioAggregator) Aggregate(table *domain.MerchantTable) (domain.PortfolioMetrics, error) {
	if table == nil {
		return domain.PortfolioMetrics{},
			domain.WrapError(domain.ErrAggregation, "aggregate portfolio", fmt.Errorf("nil table"))
	}

	metrics := domain.PortfolioMetrics{TotalMerchants: len(table.Records)}
	var sum float64
	for i := range table.Records {
		rec := &table.Records[i]
		switch rec.Scoring.Tier {
		case domain.TierHigh:
			metrics.NumHighRisk++
		case domain.TierMedium:
			metrics.NumMediumRisk++
		default:
			metrics.NumLowRisk++
		}
		sum += rec.Scoring.Probability
	}

	metrics.ExpectedHighRisk = sum
	if len(table.Records) > 0 {
		metrics.AverageRiskProbability = sum / float64(len(table.Records))
	}
	return metrics, nil
}
