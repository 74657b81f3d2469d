package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/claritypay/merchant-underwriter/internal/core/usecase"
)

// LoadScoringPolicy reads the probability thresholds from a YAML policy
// file. An empty path yields the defaults; a present file may override any
// subset of the fields.
func LoadScoringPolicy(path string) (usecase.ScoringPolicy, error) {
	policy := usecase.DefaultScoringPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("read scoring policy: %w", err)
	}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return policy, fmt.Errorf("parse scoring policy: %w", err)
	}

	if policy.FlagThreshold <= 0 || policy.FlagThreshold >= 1 {
		return policy, fmt.Errorf("flag_threshold must be in (0,1), got %v", policy.FlagThreshold)
	}
	if policy.TierMedium <= 0 || policy.TierHigh <= policy.TierMedium || policy.TierHigh >= 1 {
		return policy, fmt.Errorf("tier cut-points must satisfy 0 < medium < high < 1, got %v/%v",
			policy.TierMedium, policy.TierHigh)
	}
	return policy, nil
}
