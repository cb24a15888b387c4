package pipeline

import (
	"github.com/vk/xenogen/internal/expand"
	"github.com/vk/xenogen/internal/visibility"
)

// Region is one generated spatial container: initial substrate
// concentrations plus a sampled population per species namespace.
type Region struct {
	Name        string             `yaml:"name"`
	Substrates  map[string]float64 `yaml:"substrates,omitempty"`
	Populations map[string]int64   `yaml:"populations,omitempty"`
}

// Scenario is the bundled pipeline output. Molecules and Reactions are
// the agent-facing view with opaque names; GroundTruth and Visibility
// are retained for scoring and must never be shown to the agent. The
// caller owns the scenario after Instantiate returns.
type Scenario struct {
	Molecules map[string]map[string]any
	Reactions map[string]map[string]any
	Regions   []Region

	GroundTruth *expand.GroundTruth
	Visibility  *visibility.Mapping
	Seed        int64
	Metadata    map[string]any
}
