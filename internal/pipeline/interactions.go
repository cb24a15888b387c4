package pipeline

import (
	"context"
	"fmt"

	"github.com/vk/xenogen/internal/ctxlog"
	"github.com/vk/xenogen/internal/expand"
	"github.com/vk/xenogen/internal/specnode"
	"github.com/vk/xenogen/internal/template"
)

// Interaction body keys.
const (
	keyInteractionTpl = "_template_"
	keyBetween        = "between"
)

// applyInteractions wires named interactions: each names two or more
// instantiated namespaces and a template, which is expanded with
// `producer` and `consumer` parameters bound to those namespace names
// and merged into the ground truth under the interaction's own
// namespace.
func applyInteractions(ctx context.Context, expander *expand.Expander, gt *expand.GroundTruth, interactions *specnode.Node, registry *template.Registry, params map[string]any, seed int64) error {
	if interactions == nil || len(interactions.Keys) == 0 {
		return nil
	}
	logger := ctxlog.FromContext(ctx)

	for _, name := range interactions.Keys {
		body := interactions.Children[name]
		if body == nil || !body.IsMap() {
			continue
		}

		tplNode, ok := body.Get(keyInteractionTpl)
		if !ok || tplNode.Kind != specnode.KindScalar {
			continue
		}
		tplName, ok := tplNode.Value.(string)
		if !ok || tplName == "" {
			continue
		}

		tpl, err := registry.Get(tplName)
		if err != nil {
			return fmt.Errorf("interaction '%s': %w", name, err)
		}

		between, err := betweenNamespaces(body)
		if err != nil {
			return fmt.Errorf("interaction '%s': %w", name, err)
		}

		paramCtx := specnode.NewContext(seed, specnode.NewScope(params))
		effective := map[string]any{}
		for k, v := range params {
			effective[k] = v
		}
		for _, key := range body.Keys {
			if key == keyInteractionTpl || key == keyBetween {
				continue
			}
			v, err := specnode.Eval(body.Children[key], paramCtx)
			if err != nil {
				return fmt.Errorf("interaction '%s' parameter '%s': %w", name, key, err)
			}
			effective[key] = v
		}
		if len(between) >= 2 {
			effective["producer"] = between[0]
			effective["consumer"] = between[1]
		}

		logger.Debug("Wiring interaction.", "name", name, "template", tplName, "between", between)
		if err := expander.ApplyInto(ctx, gt, tpl, name, effective, seed); err != nil {
			return fmt.Errorf("interaction '%s': %w", name, err)
		}
	}
	return nil
}

func betweenNamespaces(body *specnode.Node) ([]string, error) {
	node, ok := body.Get(keyBetween)
	if !ok {
		return nil, nil
	}
	if node.Kind != specnode.KindSeq {
		return nil, fmt.Errorf("'between' must be a list of namespace names")
	}
	out := make([]string, 0, len(node.Items))
	for _, item := range node.Items {
		s, ok := item.Value.(string)
		if !ok {
			return nil, fmt.Errorf("'between' must be a list of namespace names")
		}
		out = append(out, s)
	}
	return out, nil
}
