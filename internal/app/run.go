package app

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/vk/xenogen/internal/ctxlog"
	"github.com/vk/xenogen/internal/pipeline"
	"github.com/vk/xenogen/internal/specnode"
)

// Run executes one generation: load the spec, instantiate it through
// the pipeline, and write the resulting scenario as YAML.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	scenario, err := a.Generate(ctx)
	if err != nil {
		return err
	}

	if err := a.encode(scenario); err != nil {
		return fmt.Errorf("failed to encode scenario: %w", err)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// Generate runs the pipeline without serializing, for callers that want
// the in-memory scenario.
func (a *App) Generate(ctx context.Context) (*pipeline.Scenario, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	node, err := specnode.HydrateFile(a.config.SpecPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load spec: %w", err)
	}
	spec, err := pipeline.ParseSpec(node)
	if err != nil {
		return nil, fmt.Errorf("failed to parse spec: %w", err)
	}
	a.logger.Debug("Spec loaded.", "path", a.config.SpecPath)

	scenario, err := pipeline.Instantiate(ctx, spec, a.config.Seed, a.registry, a.config.Params)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	a.logger.Info("Scenario generated.",
		"visible_molecules", len(scenario.Molecules),
		"visible_reactions", len(scenario.Reactions),
		"regions", len(scenario.Regions),
		"seed", scenario.Seed)
	return scenario, nil
}

func (a *App) encode(s *pipeline.Scenario) error {
	doc := map[string]any{
		"molecules": s.Molecules,
		"reactions": s.Reactions,
		"seed":      s.Seed,
	}
	if len(s.Regions) > 0 {
		doc["regions"] = s.Regions
	}
	if len(s.Metadata) > 0 {
		doc["metadata"] = s.Metadata
	}
	if a.config.FullTruth {
		doc["ground_truth"] = map[string]any{
			"molecules": s.GroundTruth.Molecules,
			"reactions": s.GroundTruth.Reactions,
		}
		doc["visibility"] = map[string]any{
			"names":            s.Visibility.Names,
			"hidden_molecules": s.Visibility.HiddenMolecules,
			"hidden_reactions": s.Visibility.HiddenReactions,
		}
	}

	enc := yaml.NewEncoder(a.outW)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(doc)
}
