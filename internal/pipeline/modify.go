package pipeline

import (
	"fmt"
	"strings"

	"github.com/vk/xenogen/internal/expand"
	"github.com/vk/xenogen/internal/specnode"
)

// Modification directive keys.
const (
	keySet    = "_set_"
	keyAppend = "_append_"
)

// applyModifications applies `_modify_` directives to an assembled
// ground truth. Each directive is keyed by a dotted path
// `namespace.molecules|reactions.local_name`; `_set_` overwrites the
// named fields, `_append_` extends a list field with values that are
// first namespace-qualified as molecule references.
func applyModifications(gt *expand.GroundTruth, modify *specnode.Node, params map[string]any, seed int64) error {
	if modify == nil || len(modify.Keys) == 0 {
		return nil
	}
	ectx := specnode.NewContext(seed, specnode.NewScope(params))

	for _, path := range modify.Keys {
		directive := modify.Children[path]
		if directive == nil || !directive.IsMap() {
			continue
		}

		namespace, element, err := resolveModifyTarget(gt, path)
		if err != nil {
			return err
		}

		if setNode, ok := directive.Get(keySet); ok && setNode.IsMap() {
			for _, field := range setNode.Keys {
				v, err := specnode.Eval(setNode.Children[field], ectx)
				if err != nil {
					return fmt.Errorf("_modify_ '%s' set '%s': %w", path, field, err)
				}
				element[field] = v
			}
		}

		if appendNode, ok := directive.Get(keyAppend); ok && appendNode.IsMap() {
			for _, field := range appendNode.Keys {
				values, err := specnode.Eval(appendNode.Children[field], ectx)
				if err != nil {
					return fmt.Errorf("_modify_ '%s' append '%s': %w", path, field, err)
				}
				list, _ := element[field].([]any)
				for _, v := range asList(values) {
					s, ok := v.(string)
					if !ok {
						return fmt.Errorf("_modify_ '%s' append '%s': values must be molecule names", path, field)
					}
					list = append(list, expand.MoleculePrefix+namespace+"."+s)
				}
				element[field] = list
			}
		}
	}
	return nil
}

// resolveModifyTarget parses "namespace.molecules|reactions.local" and
// returns the namespace plus the element body it addresses.
func resolveModifyTarget(gt *expand.GroundTruth, path string) (string, map[string]any, error) {
	parts := strings.Split(path, ".")
	if len(parts) < 3 {
		return "", nil, fmt.Errorf("invalid modify path '%s': expected namespace.type.name", path)
	}
	namespace := parts[0]
	category := parts[1]
	local := strings.Join(parts[2:], ".")

	var key string
	var collection map[string]map[string]any
	switch category {
	case "molecules":
		key = expand.MoleculePrefix + namespace + "." + local
		collection = gt.Molecules
	case "reactions":
		key = expand.ReactionPrefix + namespace + "." + local
		collection = gt.Reactions
	default:
		return "", nil, fmt.Errorf("invalid modify path '%s': type must be 'molecules' or 'reactions'", path)
	}

	element, ok := collection[key]
	if !ok {
		return "", nil, fmt.Errorf("modify target not found: '%s'", key)
	}
	return namespace, element, nil
}

func asList(v any) []any {
	switch val := v.(type) {
	case []any:
		return val
	case nil:
		return nil
	default:
		return []any{val}
	}
}
