// Package model implements the trained risk classifier: a standardized,
// class-balanced logistic regression fit by gradient descent, persisted as a
// JSON artifact and loaded once per scoring run.
package model

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
	"github.com/claritypay/merchant-underwriter/internal/core/ports"
)

// labelThreshold defines the training label: dispute_rate above it is
// high risk.
const labelThreshold = 0.002

// LogisticModel is the serialized classifier artifact. Weights are on the
// standardized feature scale; Means/Scales reproduce the standardization at
// prediction time.
type LogisticModel struct {
	Features []string  `json:"features"`
	Weights  []float64 `json:"weights"`
	Bias     float64   `json:"bias"`
	Means    []float64 `json:"means"`
	Scales   []float64 `json:"scales"`
}

func (m *LogisticModel) FeatureNames() []string {
	return m.Features
}

// PredictProbability scores one feature row in the model's feature order.
func (m *LogisticModel) PredictProbability(row []float64) (float64, error) {
	if len(row) != len(m.Weights) {
		return 0, fmt.Errorf("feature row has %d values, model expects %d", len(row), len(m.Weights))
	}
	z := m.Bias
	for i, v := range row {
		z += m.Weights[i] * m.standardize(i, v)
	}
	return sigmoid(z), nil
}

// Importance returns the coefficient-based feature importance, descending.
func (m *LogisticModel) Importance() []domain.FeatureWeight {
	weights := make([]domain.FeatureWeight, len(m.Features))
	for i, name := range m.Features {
		weights[i] = domain.FeatureWeight{Feature: name, Coefficient: m.Weights[i]}
	}
	sort.Slice(weights, func(a, b int) bool {
		return weights[a].Coefficient > weights[b].Coefficient
	})
	return weights
}

func (m *LogisticModel) standardize(i int, v float64) float64 {
	scale := m.Scales[i]
	if scale == 0 {
		return 0
	}
	return (v - m.Means[i]) / scale
}

// TrainerConfig tunes the gradient-descent fit.
type TrainerConfig struct {
	Epochs       int
	LearningRate float64
	TestFraction float64
	Seed         int64
}

func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		Epochs:       500,
		LearningRate: 0.1,
		TestFraction: 0.3,
		Seed:         42,
	}
}

// Trainer fits the classifier on an enriched table and persists the
// artifact through the store when one is wired.
type Trainer struct {
	cfg    TrainerConfig
	store  *ArtifactStore
	logger *slog.Logger
}

func NewTrainer(cfg TrainerConfig, store *ArtifactStore, logger *slog.Logger) *Trainer {
	if cfg.Epochs <= 0 {
		cfg.Epochs = DefaultTrainerConfig().Epochs
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = DefaultTrainerConfig().LearningRate
	}
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = DefaultTrainerConfig().TestFraction
	}
	return &Trainer{cfg: cfg, store: store, logger: logger}
}

// Train builds the design matrix, fits on a seeded 70/30 split, logs holdout
// quality, persists the artifact, and returns the fitted model with its
// importance ranking.
func (t *Trainer) Train(ctx context.Context, table *domain.MerchantTable) (ports.RiskClassifier, []domain.FeatureWeight, error) {
	if table == nil || len(table.Records) == 0 {
		return nil, nil, domain.WrapError(domain.ErrScoring, "train model", fmt.Errorf("empty table"))
	}

	rows := make([][]float64, len(table.Records))
	labels := make([]float64, len(table.Records))
	for i := range table.Records {
		rec := &table.Records[i]
		row, err := rec.FeatureVector(domain.FeatureNames)
		if err != nil {
			return nil, nil, err
		}
		rows[i] = row
		if rec.Derived.DisputeRate > labelThreshold {
			labels[i] = 1
		}
	}

	trainRows, trainLabels, testRows, testLabels := split(rows, labels, t.cfg.TestFraction, t.cfg.Seed)

	fitted := fit(trainRows, trainLabels, t.cfg)
	fitted.Features = append([]string(nil), domain.FeatureNames...)

	if len(testRows) > 0 {
		accuracy, auc := evaluate(fitted, testRows, testLabels)
		t.logger.Info("model holdout quality",
			"test_rows", len(testRows), "accuracy", accuracy, "roc_auc", auc)
	}

	if t.store != nil {
		if err := t.store.Save(ctx, fitted); err != nil {
			return nil, nil, fmt.Errorf("persist model artifact: %w", err)
		}
	}
	return fitted, fitted.Importance(), nil
}

func split(rows [][]float64, labels []float64, testFraction float64, seed int64) (trainX [][]float64, trainY []float64, testX [][]float64, testY []float64) {
	order := rand.New(rand.NewSource(seed)).Perm(len(rows))
	testSize := int(float64(len(rows)) * testFraction)

	for i, idx := range order {
		if i < testSize {
			testX = append(testX, rows[idx])
			testY = append(testY, labels[idx])
		} else {
			trainX = append(trainX, rows[idx])
			trainY = append(trainY, labels[idx])
		}
	}
	return trainX, trainY, testX, testY
}

func fit(rows [][]float64, labels []float64, cfg TrainerConfig) *LogisticModel {
	numFeatures := len(rows[0])
	m := &LogisticModel{
		Weights: make([]float64, numFeatures),
		Means:   make([]float64, numFeatures),
		Scales:  make([]float64, numFeatures),
	}

	standardized := standardizeColumns(rows, m)
	posWeight, negWeight := classWeights(labels)

	n := float64(len(rows))
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		gradW := make([]float64, numFeatures)
		gradB := 0.0
		for i, row := range standardized {
			z := m.Bias
			for j, v := range row {
				z += m.Weights[j] * v
			}
			weight := negWeight
			if labels[i] == 1 {
				weight = posWeight
			}
			residual := weight * (sigmoid(z) - labels[i])
			for j, v := range row {
				gradW[j] += residual * v
			}
			gradB += residual
		}
		for j := range m.Weights {
			m.Weights[j] -= cfg.LearningRate * gradW[j] / n
		}
		m.Bias -= cfg.LearningRate * gradB / n
	}
	return m
}

func standardizeColumns(rows [][]float64, m *LogisticModel) [][]float64 {
	n := float64(len(rows))
	for j := range m.Means {
		var sum float64
		for _, row := range rows {
			sum += row[j]
		}
		m.Means[j] = sum / n

		var variance float64
		for _, row := range rows {
			d := row[j] - m.Means[j]
			variance += d * d
		}
		m.Scales[j] = math.Sqrt(variance / n)
	}

	out := make([][]float64, len(rows))
	for i, row := range rows {
		std := make([]float64, len(row))
		for j, v := range row {
			std[j] = m.standardize(j, v)
		}
		out[i] = std
	}
	return out
}

// classWeights balances the loss: each class contributes equally regardless
// of its frequency. A single-class set degrades to uniform weights.
func classWeights(labels []float64) (posWeight, negWeight float64) {
	var positives float64
	for _, y := range labels {
		positives += y
	}
	negatives := float64(len(labels)) - positives
	if positives == 0 || negatives == 0 {
		return 1, 1
	}
	n := float64(len(labels))
	return n / (2 * positives), n / (2 * negatives)
}

func evaluate(m *LogisticModel, rows [][]float64, labels []float64) (accuracy, auc float64) {
	type scored struct {
		probability float64
		label       float64
	}
	preds := make([]scored, len(rows))

	correct := 0
	for i, row := range rows {
		z := m.Bias
		for j, v := range row {
			z += m.Weights[j] * m.standardize(j, v)
		}
		p := sigmoid(z)
		preds[i] = scored{probability: p, label: labels[i]}
		if (p >= 0.5) == (labels[i] == 1) {
			correct++
		}
	}
	accuracy = float64(correct) / float64(len(rows))

	// Rank-based AUC (Mann-Whitney).
	sort.Slice(preds, func(a, b int) bool { return preds[a].probability < preds[b].probability })
	var positives, negatives, rankSum float64
	for i, p := range preds {
		if p.label == 1 {
			positives++
			rankSum += float64(i + 1)
		} else {
			negatives++
		}
	}
	if positives == 0 || negatives == 0 {
		return accuracy, 0.5
	}
	auc = (rankSum - positives*(positives+1)/2) / (positives * negatives)
	return accuracy, auc
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
