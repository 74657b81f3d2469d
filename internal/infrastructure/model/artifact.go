package model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/claritypay/merchant-underwriter/internal/core/domain"
	"github.com/claritypay/merchant-underwriter/internal/core/ports"
)

// ArtifactStore persists the trained classifier as a JSON file and hands
// out a load-once, reusable handle for scoring runs.
type ArtifactStore struct {
	path string

	mu     sync.Mutex
	loaded *LogisticModel
}

func NewArtifactStore(path string) *ArtifactStore {
	return &ArtifactStore{path: path}
}

func (s *ArtifactStore) Save(ctx context.Context, m *LogisticModel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model artifact: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write model artifact: %w", err)
	}

	s.mu.Lock()
	s.loaded = m
	s.mu.Unlock()
	return nil
}

// Load reads the artifact lazily and caches it; the model is read-only at
// inference time, so the handle is safe to share.
func (s *ArtifactStore) Load(ctx context.Context) (*LogisticModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded != nil {
		return s.loaded, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	var m LogisticModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	if len(m.Features) == 0 || len(m.Weights) != len(m.Features) ||
		len(m.Means) != len(m.Weights) || len(m.Scales) != len(m.Weights) {
		return nil, fmt.Errorf("model artifact %s is malformed", s.path)
	}
	s.loaded = &m
	return s.loaded, nil
}

// LoadClassifier exposes the persisted artifact as a scoring collaborator
// for runs that skip training.
func (s *ArtifactStore) LoadClassifier(ctx context.Context) (ports.RiskClassifier, []domain.FeatureWeight, error) {
	m, err := s.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return m, m.Importance(), nil
}
