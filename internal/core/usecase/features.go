package usecase

import (
	"log/slog"
	"sort"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
)

// riskFlagOrdinals maps the internal-risk enum onto its ordinal encoding.
// Unknown categories default to medium and are surfaced as one warning per
// run listing the unexpected values.
var riskFlagOrdinals = map[domain.RiskFlag]float64{
	domain.FlagLow:    0,
	domain.FlagMedium: 1,
	domain.FlagHigh:   2,
}

const unknownFlagOrdinal = 1

// compositeWeights are the fixed composite risk score weights.
type compositeWeights struct {
	Chargeback  float64
	Fraud       float64
	Internal    float64
	CountryRisk float64
}

var defaultCompositeWeights = compositeWeights{
	Chargeback:  0.4,
	Fraud:       0.3,
	Internal:    0.2,
	CountryRisk: 0.1,
}

// FeatureBuilder computes the derived metrics over an enriched table:
// behavioral rates, region risk membership, per-country risk, and the
// composite risk score. All arithmetic is deterministic.
type FeatureBuilder struct {
	highRiskRegions map[string]struct{}
	logger          *slog.Logger
}

func NewFeatureBuilder(highRiskRegions []string, logger *slog.Logger) *FeatureBuilder {
	regions := make(map[string]struct{}, len(highRiskRegions))
	for _, r := range highRiskRegions {
		regions[r] = struct{}{}
	}
	return &FeatureBuilder{highRiskRegions: regions, logger: logger}
}

// Build runs every derived-metric step in order. The transaction-count floor
// is applied once, before any rate computation.
func (b *FeatureBuilder) Build(table *domain.MerchantTable) {
	b.mapRiskFlags(table)
	b.computeBehavioralRates(table)
	b.markHighRiskRegions(table)
	b.ComputeCountryRisk(table)
	b.computeCompositeScore(table)
}

func (b *FeatureBuilder) mapRiskFlags(table *domain.MerchantTable) {
	unknown := make(map[domain.RiskFlag]struct{})
	for i := range table.Records {
		rec := &table.Records[i]
		ordinal, ok := riskFlagOrdinals[rec.Internal.RiskFlag]
		if !ok {
			if rec.Internal.RiskFlag != "" {
				unknown[rec.Internal.RiskFlag] = struct{}{}
			}
			ordinal = unknownFlagOrdinal
		}
		rec.Derived.FlagNumeric = ordinal
	}
	if len(unknown) > 0 {
		flags := make([]string, 0, len(unknown))
		for f := range unknown {
			flags = append(flags, string(f))
		}
		sort.Strings(flags)
		b.logger.Warn("unknown internal risk flags found", "flags", flags)
	}
}

func (b *FeatureBuilder) computeBehavioralRates(table *domain.MerchantTable) {
	for i := range table.Records {
		rec := &table.Records[i]

		txn := rec.TransactionCount
		if txn == 0 {
			txn = 1
		}

		rec.Derived.DisputeRate = float64(rec.DisputeCount) / float64(txn)
		rec.Derived.AvgTicketSize = rec.MonthlyVolume / float64(txn)
		rec.Derived.ChargebackRate = rec.Derived.DisputeRate
		rec.Derived.FraudRate = 0.6 * rec.Derived.ChargebackRate
	}
	table.RatesComputed = true
}

func (b *FeatureBuilder) markHighRiskRegions(table *domain.MerchantTable) {
	for i := range table.Records {
		rec := &table.Records[i]
		_, risky := b.highRiskRegions[rec.Geo.Region]
		rec.Derived.HighRiskRegion = risky
	}
}

// ComputeCountryRisk assigns each record the mean of mean(chargeback_rate,
// fraud_rate) over its country group. If behavioral rates have not been
// computed yet, every record defaults to 0.0 rather than failing the run.
func (b *FeatureBuilder) ComputeCountryRisk(table *domain.MerchantTable) {
	if !table.RatesComputed {
		for i := range table.Records {
			table.Records[i].Derived.CountryRiskScore = 0.0
		}
		return
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i := range table.Records {
		rec := &table.Records[i]
		sums[rec.Country] += (rec.Derived.ChargebackRate + rec.Derived.FraudRate) / 2
		counts[rec.Country]++
	}

	for i := range table.Records {
		rec := &table.Records[i]
		rec.Derived.CountryRiskScore = sums[rec.Country] / float64(counts[rec.Country])
	}
}

func (b *FeatureBuilder) computeCompositeScore(table *domain.MerchantTable) {
	w := defaultCompositeWeights
	for i := range table.Records {
		rec := &table.Records[i]
		rec.Derived.RiskScore = w.Chargeback*rec.Derived.ChargebackRate +
			w.Fraud*rec.Derived.FraudRate +
			w.Internal*rec.Derived.FlagNumeric +
			w.CountryRisk*rec.Derived.CountryRiskScore
	}
}
