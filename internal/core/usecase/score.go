package usecase

import (
	"fmt"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
	"github.com/claritypay/merchant-underwriter/internal/core/ports"
)

// ScoringPolicy carries the probability thresholds used by the classifier
// path. The source system disagreed with itself about the tier cut-points,
// so they are configuration rather than constants; the defaults pin the
// values the batch prediction path used.
type ScoringPolicy struct {
	FlagThreshold float64 `yaml:"flag_threshold"`
	TierMedium    float64 `yaml:"tier_medium"`
	TierHigh      float64 `yaml:"tier_high"`
}

func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		FlagThreshold: 0.25,
		TierMedium:    0.3,
		TierHigh:      0.6,
	}
}

// TierFor maps a probability onto a discrete tier.
func (p ScoringPolicy) TierFor(probability float64) domain.RiskTier {
	switch {
	case probability > p.TierHigh:
		return domain.TierHigh
	case probability > p.TierMedium:
		return domain.TierMedium
	default:
		return domain.TierLow
	}
}

// Scorer produces a risk probability in [0,1] for one enriched record.
type Scorer interface {
	Score(rec *domain.MerchantRecord) (float64, error)
}

// ScoringEngine applies a Scorer plus the scoring policy to the whole table.
// A scoring failure aborts the run without touching already-written fields.
type ScoringEngine struct {
	scorer Scorer
	policy ScoringPolicy
}

func NewScoringEngine(scorer Scorer, policy ScoringPolicy) *ScoringEngine {
	return &ScoringEngine{scorer: scorer, policy: policy}
}

func (e *ScoringEngine) ScoreTable(table *domain.MerchantTable) error {
	results := make([]domain.ScoringResult, len(table.Records))
	for i := range table.Records {
		rec := &table.Records[i]
		probability, err := e.scorer.Score(rec)
		if err != nil {
			return domain.WrapError(domain.ErrScoring, "score table",
				fmt.Errorf("merchant %s: %w", rec.MerchantID, err))
		}
		results[i] = domain.ScoringResult{
			Probability: probability,
			HighRisk:    probability > e.policy.FlagThreshold,
			Tier:        e.policy.TierFor(probability),
		}
	}
	// Apply only after every record scored cleanly.
	for i := range table.Records {
		table.Records[i].Scoring = results[i]
	}
	return nil
}

// ClassifierScorer delegates to the trained classifier collaborator.
type ClassifierScorer struct {
	classifier ports.RiskClassifier
}

func NewClassifierScorer(classifier ports.RiskClassifier) *ClassifierScorer {
	return &ClassifierScorer{classifier: classifier}
}

func (s *ClassifierScorer) Score(rec *domain.MerchantRecord) (float64, error) {
	row, err := rec.FeatureVector(s.classifier.FeatureNames())
	if err != nil {
		return 0, err
	}
	probability, err := s.classifier.PredictProbability(row)
	if err != nil {
		return 0, fmt.Errorf("predict probability: %w", err)
	}
	return probability, nil
}

// Heuristic scoring constants: a 0-100 scale where lower means lower risk.
const (
	heuristicBaseScore    = 50.0
	heuristicStatsWeight  = 3.0
	heuristicPropsWeight  = 1.0
	heuristicPartnerBonus = 5.0

	heuristicTierMedium = 30.0
	heuristicTierHigh   = 60.0
)

// HeuristicScorer is the deterministic fallback used when no trained model
// is available. Public web-presence signals reduce risk from the baseline.
type HeuristicScorer struct{}

func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

// ComputeScore returns the raw heuristic score on the 0-100 scale, clamped.
func (s *HeuristicScorer) ComputeScore(numPublicStats, numValueProps int, hasPartners bool) float64 {
	score := heuristicBaseScore
	score -= float64(numPublicStats) * heuristicStatsWeight
	score -= float64(numValueProps) * heuristicPropsWeight
	if hasPartners {
		score -= heuristicPartnerBonus
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Tier maps a raw heuristic score onto the fixed 30/60 cut-points. The
// boundary convention matches ScoringPolicy.TierFor, so the raw-scale tier
// and the tier of the normalized score always agree.
func (s *HeuristicScorer) Tier(score float64) domain.RiskTier {
	switch {
	case score > heuristicTierHigh:
		return domain.TierHigh
	case score > heuristicTierMedium:
		return domain.TierMedium
	default:
		return domain.TierLow
	}
}

// Score normalizes the raw score onto [0,1] so the heuristic satisfies the
// same contract as the classifier.
func (s *HeuristicScorer) Score(rec *domain.MerchantRecord) (float64, error) {
	raw := s.ComputeScore(rec.Web.NumPublicStats, rec.Web.NumValueProps, rec.Web.NumPartners > 0)
	return raw / 100, nil
}
