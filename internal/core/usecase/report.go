package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
	"github.com/claritypay/merchant-underwriter/internal/core/ports"
)

const importancePlaceholder = "Feature importance data not available."

// ReportAssembler renders a single scored record plus the top feature
// drivers into the fixed-structure underwriting report, and optionally into
// a narrative via the injected generator. The generator handle is built once
// and reused; a generation failure falls back to the structured report.
type ReportAssembler struct {
	generator ports.NarrativeGenerator
	logger    *slog.Logger
	topN      int
}

func NewReportAssembler(generator ports.NarrativeGenerator, logger *slog.Logger) *ReportAssembler {
	return &ReportAssembler{generator: generator, logger: logger, topN: 3}
}

// Assemble renders the structured report. A nil importance slice still
// yields a complete report with an explanatory placeholder line.
func (r *ReportAssembler) Assemble(rec domain.MerchantRecord, importance []domain.FeatureWeight) string {
	var b strings.Builder

	b.WriteString("==============================\n")
	b.WriteString("MERCHANT RISK ASSESSMENT\n")
	b.WriteString("==============================\n\n")

	fmt.Fprintf(&b, "Merchant ID: %s\n", rec.MerchantID)
	fmt.Fprintf(&b, "Country: %s\n\n", rec.Country)

	b.WriteString("--- Behavioral Model ---\n")
	fmt.Fprintf(&b, "Risk Probability: %.3f\n", rec.Scoring.Probability)
	fmt.Fprintf(&b, "Risk Tier: %s\n\n", rec.Scoring.Tier)

	b.WriteString("--- Top Risk Drivers ---\n")
	b.WriteString(r.formatDrivers(importance))

	b.WriteString("\n--- Transaction Metrics ---\n")
	fmt.Fprintf(&b, "Monthly Volume: %.2f\n", rec.MonthlyVolume)
	fmt.Fprintf(&b, "Transaction Count: %d\n", rec.TransactionCount)
	fmt.Fprintf(&b, "Dispute Count: %d\n\n", rec.DisputeCount)

	b.WriteString("--- Final Recommendation ---\n")
	b.WriteString(recommendationFor(rec.Scoring.Tier))
	b.WriteString("\n==============================\n")

	return b.String()
}

// Narrate builds the underwriting prompt and asks the narrative generator
// for prose. On failure it returns the structured report instead.
func (r *ReportAssembler) Narrate(
	ctx context.Context,
	rec domain.MerchantRecord,
	importance []domain.FeatureWeight,
	portfolio domain.PortfolioMetrics,
) (string, error) {
	if r.generator == nil {
		return r.Assemble(rec, importance), nil
	}

	prompt := r.buildPrompt(rec, importance, portfolio)
	narrative, err := r.generator.GenerateFromPrompt(ctx, prompt)
	if err != nil {
		r.logger.Warn("narrative generation failed, falling back to structured report",
			"merchant_id", rec.MerchantID, "error", err)
		return r.Assemble(rec, importance), nil
	}
	return narrative, nil
}

func (r *ReportAssembler) buildPrompt(
	rec domain.MerchantRecord,
	importance []domain.FeatureWeight,
	portfolio domain.PortfolioMetrics,
) string {
	var b strings.Builder

	b.WriteString("Generate a professional BNPL underwriting report.\n\n")
	fmt.Fprintf(&b, "Merchant ID: %s\n", rec.MerchantID)
	fmt.Fprintf(&b, "Country: %s\n", rec.Country)
	fmt.Fprintf(&b, "Risk Tier: %s\n", rec.Scoring.Tier)
	fmt.Fprintf(&b, "Risk Probability: %.2f\n\n", rec.Scoring.Probability)

	b.WriteString("Top Risk Drivers:\n")
	b.WriteString(r.formatDrivers(importance))

	fmt.Fprintf(&b, "\nMonthly Volume: %.2f\n", rec.MonthlyVolume)
	fmt.Fprintf(&b, "Transactions: %d\n", rec.TransactionCount)
	fmt.Fprintf(&b, "Dispute Count: %d\n", rec.DisputeCount)
	fmt.Fprintf(&b, "\nPortfolio Average Risk: %.2f\n\n", portfolio.AverageRiskProbability)

	b.WriteString("Provide:\n- Risk summary\n- Key red flags\n- Recommendation\n")
	return b.String()
}

func (r *ReportAssembler) formatDrivers(importance []domain.FeatureWeight) string {
	if len(importance) == 0 {
		return importancePlaceholder + "\n"
	}
	n := r.topN
	if n > len(importance) {
		n = len(importance)
	}
	var b strings.Builder
	for _, w := range importance[:n] {
		fmt.Fprintf(&b, "- %s (coef: %.4f)\n", w.Feature, w.Coefficient)
	}
	return b.String()
}

func recommendationFor(tier domain.RiskTier) string {
	switch tier {
	case domain.TierHigh:
		return "Enhanced due diligence required.\n"
	case domain.TierMedium:
		return "Manual review recommended.\n"
	default:
		return "Standard onboarding.\n"
	}
}
