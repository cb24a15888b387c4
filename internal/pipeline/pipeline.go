package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/vk/xenogen/internal/ctxlog"
	"github.com/vk/xenogen/internal/expand"
	"github.com/vk/xenogen/internal/guard"
	"github.com/vk/xenogen/internal/specnode"
	"github.com/vk/xenogen/internal/template"
	"github.com/vk/xenogen/internal/visibility"
)

// Seed offsets keep the random streams of the auxiliary generation
// stages independent of the expansion stream.
const (
	backgroundSeedOffset = 500
	containerSeedOffset  = 2000
)

// Instantiate runs the full generation pipeline for one spec and seed.
// Overrides win over the spec's `_params_` defaults. The result is
// fully determined by (spec, seed, overrides, registry contents).
func Instantiate(ctx context.Context, spec *Spec, seed int64, registry *template.Registry, overrides map[string]any) (*Scenario, error) {
	logger := ctxlog.FromContext(ctx)

	params, err := effectiveParams(spec, overrides, seed)
	if err != nil {
		return nil, err
	}

	guards, err := guard.Resolve(spec.Guards.Names)
	if err != nil {
		return nil, err
	}

	// Each attempt rebuilds the expander so retry mode never sees port
	// state from a discarded expansion.
	var expander *expand.Expander
	expandAll := func(attemptSeed int64) (*expand.GroundTruth, error) {
		expander = expand.NewExpander(registry)
		gt := expand.NewGroundTruth()
		if err := expander.ExpandDirectives(ctx, gt, spec.Instantiate, "", params, attemptSeed); err != nil {
			return nil, err
		}
		return gt, nil
	}

	var gt *expand.GroundTruth
	if len(guards) > 0 {
		mode := guard.Mode(spec.Guards.Mode)
		if mode == "" {
			mode = guard.ModeRetry
		}
		runner := &guard.Runner{Guards: guards, Mode: mode}
		gt, err = runner.Run(ctx, expandAll, seed)
	} else {
		gt, err = expandAll(seed)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("Expansion complete.",
		"molecules", len(gt.Molecules), "reactions", len(gt.Reactions))

	if err := applyInteractions(ctx, expander, gt, spec.Interactions, registry, params, seed); err != nil {
		return nil, err
	}
	if err := applyModifications(gt, spec.Modify, params, seed); err != nil {
		return nil, err
	}
	if spec.Background != nil {
		if err := applyBackground(ctx, gt, spec.Background, seed); err != nil {
			return nil, err
		}
	}

	var regions []Region
	if spec.Containers != nil {
		regions, err = generateRegions(gt, spec.Containers, seed)
		if err != nil {
			return nil, err
		}
	}

	mapping := visibility.Generate(gt,
		spec.Visibility.Molecules.FractionKnown,
		spec.Visibility.Reactions.FractionKnown,
		seed)
	visible := visibility.Apply(gt, mapping)

	metadata, err := evalMetadata(spec.Metadata, seed)
	if err != nil {
		return nil, err
	}

	return &Scenario{
		Molecules:   visible.Molecules,
		Reactions:   visible.Reactions,
		Regions:     regions,
		GroundTruth: gt,
		Visibility:  mapping,
		Seed:        seed,
		Metadata:    metadata,
	}, nil
}

// effectiveParams evaluates spec-level defaults in declaration order,
// with caller overrides winning and visible to later defaults.
func effectiveParams(spec *Spec, overrides map[string]any, seed int64) (map[string]any, error) {
	merged := map[string]any{}
	for k, v := range overrides {
		merged[k] = v
	}
	ectx := specnode.NewContext(seed, specnode.NewScope(merged))
	for _, key := range spec.Params.Keys {
		if _, overridden := merged[key]; overridden {
			continue
		}
		v, err := specnode.Eval(spec.Params.Children[key], ectx)
		if err != nil {
			return nil, fmt.Errorf("spec parameter '%s': %w", key, err)
		}
		merged[key] = v
	}
	return merged, nil
}

func evalMetadata(node *specnode.Node, seed int64) (map[string]any, error) {
	if node == nil || len(node.Keys) == 0 {
		return map[string]any{}, nil
	}
	v, err := specnode.Eval(node, specnode.NewContext(seed, specnode.NewScope(nil)))
	if err != nil {
		return nil, fmt.Errorf("spec metadata: %w", err)
	}
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	return map[string]any{}, nil
}

// evalCount resolves a count node, which may be a literal or a deferred
// sampling expression, into a non-negative integer.
func evalCount(node *specnode.Node, ectx *specnode.Context) (int64, error) {
	if node == nil {
		return 0, nil
	}
	v, err := specnode.Eval(node, ectx)
	if err != nil {
		return 0, err
	}
	n, err := coerceInt(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}

func coerceInt(v any) (int64, error) {
	switch val := v.(type) {
	case int64:
		return val, nil
	case int:
		return int64(val), nil
	case float64:
		return int64(math.Round(val)), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func coerceFloat(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int64:
		return float64(val), nil
	case int:
		return float64(val), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
