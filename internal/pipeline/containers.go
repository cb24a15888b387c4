package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vk/xenogen/internal/expand"
	"github.com/vk/xenogen/internal/specnode"
)

// generateRegions builds the spatial containers: a (possibly sampled)
// number of regions, each seeded with initial substrate concentrations
// and a sampled population count per discovered species namespace.
func generateRegions(gt *expand.GroundTruth, cfg *ContainerConfig, seed int64) ([]Region, error) {
	ectx := specnode.NewContext(seed+containerSeedOffset, specnode.NewScope(nil))

	count, err := evalCount(cfg.RegionCount, ectx)
	if err != nil {
		return nil, fmt.Errorf("containers region count: %w", err)
	}

	species := speciesNamespaces(gt)
	regions := make([]Region, 0, count)

	for i := int64(1); i <= count; i++ {
		region := Region{
			Name:        fmt.Sprintf("region%d", i),
			Substrates:  map[string]float64{},
			Populations: map[string]int64{},
		}

		if cfg.Substrates != nil {
			for _, key := range cfg.Substrates.Keys {
				v, err := specnode.Eval(cfg.Substrates.Children[key], ectx)
				if err != nil {
					return nil, fmt.Errorf("containers substrate '%s': %w", key, err)
				}
				f, err := coerceFloat(v)
				if err != nil {
					return nil, fmt.Errorf("containers substrate '%s': %w", key, err)
				}
				region.Substrates[key] = f
			}
		}

		if cfg.PerSpecies != nil {
			for _, sp := range species {
				v, err := specnode.Eval(cfg.PerSpecies, ectx)
				if err != nil {
					return nil, fmt.Errorf("containers population for '%s': %w", sp, err)
				}
				n, err := coerceInt(v)
				if err != nil {
					return nil, fmt.Errorf("containers population for '%s': %w", sp, err)
				}
				if n < 0 {
					n = 0
				}
				region.Populations[sp] = n
			}
		}

		regions = append(regions, region)
	}
	return regions, nil
}

// speciesNamespaces discovers the top-level species namespaces present
// in the ground truth, excluding background filler. Sorted so region
// population sampling draws in a stable order.
func speciesNamespaces(gt *expand.GroundTruth) []string {
	seen := map[string]bool{}
	for _, name := range gt.MoleculeNames() {
		parts := strings.Split(name, ".")
		if len(parts) < 2 {
			continue
		}
		sp := parts[1]
		if sp == backgroundNamespace {
			continue
		}
		seen[sp] = true
	}
	out := make([]string, 0, len(seen))
	for sp := range seen {
		out = append(out, sp)
	}
	sort.Strings(out)
	return out
}
