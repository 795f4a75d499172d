package scoring

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Weights is the externally configured weight table, keyed by signal name.
// The duplicate and same-domain penalties are recognized configuration keys
// reserved for the selector's guards; the scorer itself does not apply them.
type Weights struct {
	Version           int     `yaml:"version"`
	NeverOpened       float64 `yaml:"neverOpened"`
	FreshForgotten    float64 `yaml:"freshForgotten"`
	TimeFit           float64 `yaml:"timeFit"`
	FrequentSource    float64 `yaml:"frequentSource"`
	Bridge            float64 `yaml:"bridge"`
	DuplicatePenalty  float64 `yaml:"duplicatePenalty"`
	SameDomainPenalty float64 `yaml:"sameDomainPenalty"`
}

// LoadWeights reads the weight table from path. A missing or malformed file
// degrades to the zero table instead of failing: scoring then always yields
// zero but the pipeline stays up. The second return reports that degraded
// state so callers can log it.
func LoadWeights(path string) (Weights, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, true
	}

	var w Weights
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return Weights{}, true
	}

	return w, false
}
