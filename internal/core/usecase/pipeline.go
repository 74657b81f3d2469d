package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
	"github.com/claritypay/merchant-underwriter/internal/core/ports"
)

// Stage names reported to the observer.
const (
	StageValidate     = "validate"
	StageInternalRisk = "internal_risk"
	StageCountry      = "country"
	StageDocument     = "document"
	StageWeb          = "web"
	StageFeatures     = "features"
	StageTrain        = "train"
	StageScore        = "score"
	StageAggregate    = "aggregate"
)

// StageObserver is invoked after each pipeline stage, fatal or not.
type StageObserver func(stage string, duration time.Duration, err error)

// UnderwritingPipeline orchestrates one batch run: schema validation gates
// entry, the four enrichment stages run sequentially over the full table,
// then derived metrics, training, scoring, and aggregation. Stages are never
// rolled back; a fatal error leaves earlier stages' fields intact.
type UnderwritingPipeline struct {
	validator  *SchemaValidator
	enricher   *Enricher
	features   *FeatureBuilder
	trainer    ports.ModelTrainer
	policy     ScoringPolicy
	aggregator *PortfolioAggregator
	repo       ports.RunRepository
	reviews    ports.ReviewQueue
	logger     *slog.Logger

	// DocumentPath is the merchant summary PDF for the run; empty means no
	// document signal.
	DocumentPath string

	// Pretrained, when set, supplies a previously persisted classifier: the
	// run scores with it and skips training. A load failure falls back to
	// the trainer.
	Pretrained ports.ClassifierLoader

	// Observer receives stage timings; nil disables observation.
	Observer StageObserver
}

func NewUnderwritingPipeline(
	validator *SchemaValidator,
	enricher *Enricher,
	features *FeatureBuilder,
	trainer ports.ModelTrainer,
	policy ScoringPolicy,
	aggregator *PortfolioAggregator,
	repo ports.RunRepository,
	reviews ports.ReviewQueue,
	logger *slog.Logger,
) *UnderwritingPipeline {
	return &UnderwritingPipeline{
		validator:  validator,
		enricher:   enricher,
		features:   features,
		trainer:    trainer,
		policy:     policy,
		aggregator: aggregator,
		repo:       repo,
		reviews:    reviews,
		logger:     logger,
	}
}

func (p *UnderwritingPipeline) Run(ctx context.Context, table *domain.MerchantTable) (*ports.RunResult, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)

	if err := p.stage(StageValidate, func() error {
		return p.validator.Validate(table)
	}); err != nil {
		return nil, err
	}
	logger.Info("schema validated", "merchants", len(table.Records))

	if err := p.stage(StageInternalRisk, func() error {
		return p.enricher.EnrichInternalRisk(ctx, table)
	}); err != nil {
		return nil, err
	}
	_ = p.stage(StageCountry, func() error {
		p.enricher.EnrichCountry(ctx, table)
		return nil
	})
	_ = p.stage(StageDocument, func() error {
		p.enricher.EnrichDocument(ctx, table, p.DocumentPath)
		return nil
	})
	_ = p.stage(StageWeb, func() error {
		p.enricher.EnrichWeb(ctx, table)
		return nil
	})
	logger.Info("enrichment complete")

	_ = p.stage(StageFeatures, func() error {
		p.features.Build(table)
		return nil
	})

	scorer, importance := p.trainScorer(ctx, table, logger)

	engine := NewScoringEngine(scorer, p.policy)
	if err := p.stage(StageScore, func() error {
		return engine.ScoreTable(table)
	}); err != nil {
		return nil, err
	}

	var portfolio domain.PortfolioMetrics
	if err := p.stage(StageAggregate, func() error {
		var aggErr error
		portfolio, aggErr = p.aggregator.Aggregate(table)
		return aggErr
	}); err != nil {
		return nil, err
	}
	logger.Info("scoring complete",
		"high", portfolio.NumHighRisk,
		"medium", portfolio.NumMediumRisk,
		"low", portfolio.NumLowRisk,
		"avg_probability", portfolio.AverageRiskProbability,
	)

	if p.repo != nil {
		if err := p.repo.SaveRun(ctx, runID, table.Records, portfolio); err != nil {
			return nil, fmt.Errorf("persist run: %w", err)
		}
	}
	p.publishReviews(ctx, runID, table, logger)

	return &ports.RunResult{
		RunID:      runID,
		Table:      table,
		Portfolio:  portfolio,
		Importance: importance,
	}, nil
}

// trainScorer fits the classifier when a trainer is wired; otherwise, or on
// a training failure, it falls back to the deterministic heuristic.
func (p *UnderwritingPipeline) trainScorer(
	ctx context.Context,
	table *domain.MerchantTable,
	logger *slog.Logger,
) (Scorer, []domain.FeatureWeight) {
	if p.Pretrained != nil {
		classifier, importance, err := p.Pretrained.LoadClassifier(ctx)
		if err == nil {
			logger.Info("scoring with persisted classifier")
			return NewClassifierScorer(classifier), importance
		}
		logger.Warn("persisted classifier unavailable, training instead", "error", err)
	}

	if p.trainer == nil {
		logger.Info("no trainer wired, using heuristic scorer")
		return NewHeuristicScorer(), nil
	}

	var classifier ports.RiskClassifier
	var importance []domain.FeatureWeight
	err := p.stage(StageTrain, func() error {
		var trainErr error
		classifier, importance, trainErr = p.trainer.Train(ctx, table)
		return trainErr
	})
	if err != nil {
		logger.Warn("training failed, falling back to heuristic scorer", "error", err)
		return NewHeuristicScorer(), nil
	}
	return NewClassifierScorer(classifier), importance
}

func (p *UnderwritingPipeline) publishReviews(ctx context.Context, runID string, table *domain.MerchantTable, logger *slog.Logger) {
	if p.reviews == nil {
		return
	}
	for i := range table.Records {
		rec := &table.Records[i]
		if rec.Scoring.Tier != domain.TierHigh {
			continue
		}
		if err := p.reviews.PublishReviewRequested(ctx, runID, *rec); err != nil {
			logger.Warn("review publish failed", "merchant_id", rec.MerchantID, "error", err)
		}
	}
}

func (p *UnderwritingPipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	if p.Observer != nil {
		p.Observer(name, time.Since(start), err)
	}
	return err
}
