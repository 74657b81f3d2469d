package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
	"github.com/claritypay/merchant-underwriter/internal/core/ports"
)

type fakeTrainer struct {
	classifier ports.RiskClassifier
	importance []domain.FeatureWeight
	err        error
	calls      int
}

func (f *fakeTrainer) Train(context.Context, *domain.MerchantTable) (ports.RiskClassifier, []domain.FeatureWeight, error) {
	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.classifier, f.importance, nil
}

type fakeLoader struct {
	classifier ports.RiskClassifier
	importance []domain.FeatureWeight
	err        error
}

func (f *fakeLoader) LoadClassifier(context.Context) (ports.RiskClassifier, []domain.FeatureWeight, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.classifier, f.importance, nil
}

type fakeRepo struct {
	runID   string
	records []domain.MerchantRecord
	err     error
}

func (f *fakeRepo) SaveRun(_ context.Context, runID string, records []domain.MerchantRecord, _ domain.PortfolioMetrics) error {
	f.runID = runID
	f.records = records
	return f.err
}

type fakeQueue struct {
	published []string
	err       error
}

func (f *fakeQueue) PublishReviewRequested(_ context.Context, _ string, rec domain.MerchantRecord) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, rec.MerchantID)
	return nil
}

func (f *fakeQueue) Close() {}

type constantClassifier struct{ p float64 }

func (c *constantClassifier) FeatureNames() []string { return domain.FeatureNames }

func (c *constantClassifier) PredictProbability([]float64) (float64, error) { return c.p, nil }

func pipelineFixture(trainer ports.ModelTrainer, repo ports.RunRepository, queue ports.ReviewQueue) *UnderwritingPipeline {
	risk := &fakeRiskAPI{reports: map[string]domain.InternalRiskReport{
		"M001": {RiskFlag: domain.FlagLow},
		"M002": {RiskFlag: domain.FlagHigh},
	}}
	countries := &fakeCountries{meta: map[string]domain.CountryMeta{
		"Germany": {Region: "Europe", Subregion: "Western Europe"},
		"Brazil":  {Region: "Americas", Subregion: "South America"},
	}}
	enricher := enricherWith(risk, countries, &fakeExtractor{}, &fakeScraper{})
	return NewUnderwritingPipeline(
		NewSchemaValidator(),
		enricher,
		NewFeatureBuilder([]string{"Africa", "South America"}, testLogger()),
		trainer,
		DefaultScoringPolicy(),
		NewPortfolioAggregator(),
		repo,
		queue,
		testLogger(),
	)
}

func TestRunHappyPathWithTrainedClassifier(t *testing.T) {
	trainer := &fakeTrainer{
		classifier: &constantClassifier{p: 0.7},
		importance: []domain.FeatureWeight{{Feature: "dispute_rate", Coefficient: 2.1}},
	}
	repo := &fakeRepo{}
	queue := &fakeQueue{}
	p := pipelineFixture(trainer, repo, queue)

	result, err := p.Run(context.Background(), validTable())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.RunID == "" {
		t.Fatalf("empty run id")
	}
	if len(result.Importance) != 1 {
		t.Fatalf("importance = %v", result.Importance)
	}
	if result.Portfolio.NumHighRisk != 2 || result.Portfolio.TotalMerchants != 2 {
		t.Fatalf("portfolio = %+v", result.Portfolio)
	}
	for i := range result.Table.Records {
		s := result.Table.Records[i].Scoring
		if s.Probability != 0.7 || !s.HighRisk || s.Tier != domain.TierHigh {
			t.Fatalf("record %d scoring = %+v", i, s)
		}
	}
	if repo.runID != result.RunID || len(repo.records) != 2 {
		t.Fatalf("repo saw run %q with %d records", repo.runID, len(repo.records))
	}
	if len(queue.published) != 2 {
		t.Fatalf("published = %v, want both high-tier merchants", queue.published)
	}
}

func TestRunValidationFailureIsFatal(t *testing.T) {
	p := pipelineFixture(nil, nil, nil)
	table := validTable()
	table.Records[0].MerchantID = "bogus"

	_, err := p.Run(context.Background(), table)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
	if table.Records[0].Internal != (domain.InternalSignals{}) {
		t.Fatalf("enrichment ran despite validation failure")
	}
}

func TestRunInternalRiskFailureIsFatal(t *testing.T) {
	enricher := enricherWith(&fakeRiskAPI{err: errors.New("down")}, &fakeCountries{}, &fakeExtractor{}, &fakeScraper{})
	p := NewUnderwritingPipeline(
		NewSchemaValidator(), enricher,
		NewFeatureBuilder(nil, testLogger()),
		nil, DefaultScoringPolicy(), NewPortfolioAggregator(), nil, nil, testLogger(),
	)

	_, err := p.Run(context.Background(), validTable())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrCollaborator) {
		t.Fatalf("expected ErrCollaborator, got %v", err)
	}
}

func TestRunFallsBackToHeuristicWhenTrainingFails(t *testing.T) {
	trainer := &fakeTrainer{err: errors.New("degenerate labels")}
	p := pipelineFixture(trainer, nil, nil)

	result, err := p.Run(context.Background(), validTable())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Importance != nil {
		t.Fatalf("importance = %v, want nil under heuristic", result.Importance)
	}
	// No web presence signals, so every record sits at the heuristic baseline.
	for i := range result.Table.Records {
		s := result.Table.Records[i].Scoring
		if s.Probability != 0.5 || s.Tier != domain.TierMedium {
			t.Fatalf("record %d scoring = %+v", i, s)
		}
	}
}

func TestRunWithoutTrainerUsesHeuristic(t *testing.T) {
	p := pipelineFixture(nil, nil, nil)

	result, err := p.Run(context.Background(), validTable())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Table.Records[0].Scoring.Probability != 0.5 {
		t.Fatalf("scoring = %+v", result.Table.Records[0].Scoring)
	}
}

func TestRunScoresWithPersistedClassifierAndSkipsTraining(t *testing.T) {
	trainer := &fakeTrainer{classifier: &constantClassifier{p: 0.1}}
	p := pipelineFixture(trainer, nil, nil)
	p.Pretrained = &fakeLoader{
		classifier: &constantClassifier{p: 0.7},
		importance: []domain.FeatureWeight{{Feature: "dispute_rate", Coefficient: 1.5}},
	}

	var stages []string
	p.Observer = func(stage string, _ time.Duration, _ error) {
		stages = append(stages, stage)
	}

	result, err := p.Run(context.Background(), validTable())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if trainer.calls != 0 {
		t.Fatalf("trainer called %d times, want 0", trainer.calls)
	}
	for _, stage := range stages {
		if stage == StageTrain {
			t.Fatalf("train stage observed: %v", stages)
		}
	}
	if result.Table.Records[0].Scoring.Probability != 0.7 {
		t.Fatalf("scoring = %+v, want persisted classifier output", result.Table.Records[0].Scoring)
	}
	if len(result.Importance) != 1 || result.Importance[0].Feature != "dispute_rate" {
		t.Fatalf("importance = %v", result.Importance)
	}
}

func TestRunFallsBackToTrainingWhenLoadFails(t *testing.T) {
	trainer := &fakeTrainer{classifier: &constantClassifier{p: 0.1}}
	p := pipelineFixture(trainer, nil, nil)
	p.Pretrained = &fakeLoader{err: errors.New("artifact missing")}

	result, err := p.Run(context.Background(), validTable())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if trainer.calls != 1 {
		t.Fatalf("trainer calls = %d, want 1", trainer.calls)
	}
	if result.Table.Records[0].Scoring.Probability != 0.1 {
		t.Fatalf("scoring = %+v, want trained classifier output", result.Table.Records[0].Scoring)
	}
}

func TestRunReviewPublishFailureIsNonFatal(t *testing.T) {
	trainer := &fakeTrainer{classifier: &constantClassifier{p: 0.9}}
	queue := &fakeQueue{err: errors.New("nats down")}
	p := pipelineFixture(trainer, nil, queue)

	if _, err := p.Run(context.Background(), validTable()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestRunObserverSeesStagesInOrder(t *testing.T) {
	p := pipelineFixture(nil, nil, nil)

	var stages []string
	p.Observer = func(stage string, _ time.Duration, _ error) {
		stages = append(stages, stage)
	}

	if _, err := p.Run(context.Background(), validTable()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{
		StageValidate, StageInternalRisk, StageCountry, StageDocument,
		StageWeb, StageFeatures, StageScore, StageAggregate,
	}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v", stages)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("stage %d = %s, want %s", i, stages[i], want[i])
		}
	}
}
