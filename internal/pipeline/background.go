package pipeline

import (
	"context"
	"fmt"

	"github.com/vk/xenogen/internal/ctxlog"
	"github.com/vk/xenogen/internal/expand"
	"github.com/vk/xenogen/internal/guard"
	"github.com/vk/xenogen/internal/specnode"
)

// Background filler lives in its own reserved namespace so it can never
// touch a guarded species lineage.
const backgroundNamespace = "bg"

// applyBackground generates filler molecules and low-information
// reactions among them, diluting the agent's search signal. Counts may
// themselves be deferred sampling expressions. Filler reactions only
// ever reference filler molecules, so configured guards hold by
// construction; they are still checked and any violation aborts rather
// than being silently accepted.
func applyBackground(ctx context.Context, gt *expand.GroundTruth, cfg *BackgroundConfig, seed int64) error {
	logger := ctxlog.FromContext(ctx)
	ectx := specnode.NewContext(seed+backgroundSeedOffset, specnode.NewScope(nil))

	molCount, err := evalCount(cfg.Molecules, ectx)
	if err != nil {
		return fmt.Errorf("background molecule count: %w", err)
	}
	rxnCount, err := evalCount(cfg.Reactions, ectx)
	if err != nil {
		return fmt.Errorf("background reaction count: %w", err)
	}

	rng := ectx.Rand()
	filler := expand.NewGroundTruth()

	molNames := make([]string, 0, molCount)
	for i := int64(1); i <= molCount; i++ {
		name := fmt.Sprintf("%s%s.B%d", expand.MoleculePrefix, backgroundNamespace, i)
		molNames = append(molNames, name)
		filler.Molecules[name] = map[string]any{
			"mass": float64(rng.Intn(190) + 10),
		}
	}

	if len(molNames) >= 2 {
		for j := int64(1); j <= rxnCount; j++ {
			ri := rng.Intn(len(molNames))
			pi := rng.Intn(len(molNames) - 1)
			if pi >= ri {
				pi++
			}
			name := fmt.Sprintf("%s%s.bgr%d", expand.ReactionPrefix, backgroundNamespace, j)
			filler.Reactions[name] = map[string]any{
				"reactants": []any{molNames[ri]},
				"products":  []any{molNames[pi]},
				"rate":      rng.Float64() * 0.1,
			}
		}
	}

	if len(cfg.GuardNames) > 0 {
		guards, err := guard.Resolve(cfg.GuardNames)
		if err != nil {
			return fmt.Errorf("background guards: %w", err)
		}
		runner := &guard.Runner{Guards: guards, Mode: guard.ModeReject}
		if err := runner.Check(filler); err != nil {
			return fmt.Errorf("background filler rejected: %w", err)
		}
	}

	logger.Debug("Generated background filler.",
		"molecules", len(filler.Molecules), "reactions", len(filler.Reactions))
	gt.Merge(filler)
	return nil
}
