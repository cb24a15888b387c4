package expand

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/xenogen/internal/ctxlog"
	"github.com/vk/xenogen/internal/specnode"
	"github.com/vk/xenogen/internal/template"
)

// Instantiation body keys with special meaning.
const (
	keyTemplate    = "_template_"
	keyInstantiate = "_instantiate_"
)

// portEntry records one declared port of an instantiated template, keyed
// by its namespaced path so later siblings can wire to it.
type portEntry struct {
	Port template.Port
	// TargetName is the namespaced entity the port is anchored to,
	// e.g. "r.cellA.work" for a port declared at "reactions.work".
	TargetName string
}

// Expander runs template expansion against one registry. It accumulates
// the ports exposed by every instantiation so that later siblings can
// satisfy `requires` declarations and explicit wiring; the accumulation
// is ordered, which is why a template cannot require a port that appears
// only later in the spec.
//
// An Expander is single-use state for one pipeline run; it is not safe
// for concurrent use.
type Expander struct {
	registry  *template.Registry
	available map[string]bool
	ports     map[string]portEntry
}

// NewExpander creates an expander over the given read-only registry.
func NewExpander(registry *template.Registry) *Expander {
	return &Expander{
		registry:  registry,
		available: map[string]bool{},
		ports:     map[string]portEntry{},
	}
}

// Apply expands a template into namespaced molecules and reactions.
// Caller-supplied params override template defaults. The seed fully
// determines every sampled value in the expansion.
func Apply(ctx context.Context, tpl *template.Template, namespace string, params map[string]any, registry *template.Registry, seed int64) (*GroundTruth, error) {
	return NewExpander(registry).Apply(ctx, tpl, namespace, params, seed)
}

// Apply expands a template, accumulating port state on the expander.
func (e *Expander) Apply(ctx context.Context, tpl *template.Template, namespace string, params map[string]any, seed int64) (*GroundTruth, error) {
	gt := NewGroundTruth()
	chain := []string{}
	if tpl.Name != "" {
		chain = append(chain, tpl.Name)
	}
	if err := e.applyTemplate(ctx, gt, tpl, namespace, params, seed, chain); err != nil {
		return nil, err
	}
	return gt, nil
}

// ApplyInto expands a template directly into an existing ground truth,
// sharing the expander's accumulated port state. The pipeline uses this
// for interaction wiring, where contributions merge into the scenario
// built by the main `_instantiate_` block.
func (e *Expander) ApplyInto(ctx context.Context, gt *GroundTruth, tpl *template.Template, namespace string, params map[string]any, seed int64) error {
	chain := []string{}
	if tpl.Name != "" {
		chain = append(chain, tpl.Name)
	}
	return e.applyTemplate(ctx, gt, tpl, namespace, params, seed, chain)
}

// ExpandDirectives expands a raw `_instantiate_` mapping (directive key
// -> instantiation body) at the given namespace level. The pipeline uses
// this for the spec's top-level block, where namespace is empty.
func (e *Expander) ExpandDirectives(ctx context.Context, gt *GroundTruth, directives *specnode.Node, namespace string, params map[string]any, seed int64) error {
	return e.expandDirectives(ctx, gt, directives, namespace, params, seed, nil)
}

func (e *Expander) applyTemplate(ctx context.Context, gt *GroundTruth, tpl *template.Template, namespace string, callerParams map[string]any, seed int64, chain []string) error {
	logger := ctxlog.FromContext(ctx)

	for _, token := range tpl.Requires {
		if !e.available[token] {
			return &PortNotFoundError{Token: token, Requester: tpl.Name}
		}
	}

	ectx := specnode.NewContext(seed, specnode.NewScope(nil))
	merged, err := e.mergeParams(tpl, callerParams, ectx)
	if err != nil {
		return err
	}
	bodyCtx := ectx.WithScope(specnode.NewScope(merged))

	moleculeNames := map[string]bool{}
	for _, name := range tpl.MoleculeNames() {
		moleculeNames[name] = true
	}

	for _, name := range tpl.MoleculeNames() {
		body, err := evalBody(tpl.Molecules.Children[name], bodyCtx)
		if err != nil {
			return fmt.Errorf("molecule '%s' in template '%s': %w", name, tpl.Name, err)
		}
		gt.Molecules[MoleculePrefix+namespace+"."+name] = body
	}

	for _, name := range tpl.ReactionNames() {
		body, err := evalBody(tpl.Reactions.Children[name], bodyCtx)
		if err != nil {
			return fmt.Errorf("reaction '%s' in template '%s': %w", name, tpl.Name, err)
		}
		rewriteMoleculeRefs(body, namespace, moleculeNames)
		gt.Reactions[ReactionPrefix+namespace+"."+name] = body
	}

	for _, path := range tpl.PortOrder {
		port := tpl.Ports[path]
		e.ports[namespace+"."+path] = portEntry{
			Port:       port,
			TargetName: namespacedPortTarget(namespace, path),
		}
		e.available[port.Token()] = true
	}

	if len(tpl.Instantiate.Keys) > 0 {
		logger.Debug("Expanding nested instantiations.", "template", tpl.Name, "namespace", namespace)
		if err := e.expandDirectives(ctx, gt, tpl.Instantiate, namespace, merged, seed, chain); err != nil {
			return err
		}
	}

	return nil
}

// expandDirectives walks an `_instantiate_` mapping in document order,
// expanding each directive and wiring explicit port connections after
// all siblings exist.
func (e *Expander) expandDirectives(ctx context.Context, gt *GroundTruth, directives *specnode.Node, namespace string, params map[string]any, seed int64, chain []string) error {
	logger := ctxlog.FromContext(ctx)
	var pending []pendingConn

	for _, key := range directives.Keys {
		instNode := directives.Children[key]
		d, ok := parseDirective(key)
		if !ok {
			logger.Warn("Skipping unrecognized instantiation key.", "key", key)
			continue
		}

		if d.LoopVar == "" {
			conns, err := e.instantiateChild(ctx, gt, instNode, joinNS(namespace, d.Name), namespace, params, seed, chain, nil)
			if err != nil {
				return err
			}
			pending = append(pending, conns...)
			continue
		}

		end, err := d.end(specnode.NewScope(params), templateNameOf(instNode))
		if err != nil {
			return err
		}
		for i := d.Start; i <= end; i++ {
			childNs := joinNS(namespace, fmt.Sprintf("%s%d", d.Name, i))
			loopBind := map[string]any{d.LoopVar: i}
			// seed+i, plain integer addition: replication must be
			// reproducible index-by-index.
			conns, err := e.instantiateChild(ctx, gt, instNode, childNs, namespace, params, seed+i, chain, loopBind)
			if err != nil {
				return err
			}
			pending = append(pending, conns...)
		}
	}

	for _, pc := range pending {
		if err := e.applyConnection(gt, pc); err != nil {
			return err
		}
	}
	return nil
}

// instantiateChild expands one instantiation body. A body without a
// `_template_` key is a pure grouping node: its own `_instantiate_`
// block still recurses under the child namespace.
func (e *Expander) instantiateChild(ctx context.Context, gt *GroundTruth, instNode *specnode.Node, childNs, parentNs string, parentParams map[string]any, seed int64, chain []string, loopBind map[string]any) ([]pendingConn, error) {
	if instNode == nil || !instNode.IsMap() {
		return nil, nil
	}

	tplName := templateNameOf(instNode)
	if tplName == "" {
		if nested, ok := instNode.Get(keyInstantiate); ok && nested.IsMap() {
			return nil, e.expandDirectives(ctx, gt, nested, childNs, parentParams, seed, chain)
		}
		return nil, nil
	}

	for _, seen := range chain {
		if seen == tplName {
			return nil, &CircularReferenceError{Chain: append(append([]string{}, chain...), tplName)}
		}
	}

	childTpl, err := e.registry.Get(tplName)
	if err != nil {
		return nil, err
	}

	// Partition the body: special keys, explicit port connections, and
	// parameter overrides evaluated against the parent's scope.
	paramCtx := specnode.NewContext(seed, specnode.NewScope(parentParams))
	childParams := map[string]any{}
	for k, v := range parentParams {
		childParams[k] = v
	}
	for k, v := range loopBind {
		childParams[k] = v
	}

	var conns []pendingConn
	for _, key := range instNode.Keys {
		if key == keyTemplate || key == keyInstantiate {
			continue
		}
		valNode := instNode.Children[key]
		if ref, ok := portConnectionRef(key, valNode); ok {
			conns = append(conns, pendingConn{childNs: childNs, parentNs: parentNs, localPath: key, targetRef: ref})
			continue
		}
		v, err := specnode.Eval(valNode, paramCtx)
		if err != nil {
			return nil, fmt.Errorf("parameter '%s' for '%s': %w", key, childNs, err)
		}
		childParams[key] = v
	}

	newChain := append(append([]string{}, chain...), tplName)
	if err := e.applyTemplate(ctx, gt, childTpl, childNs, childParams, seed, newChain); err != nil {
		return nil, err
	}
	return conns, nil
}

func evalBody(node *specnode.Node, ctx *specnode.Context) (map[string]any, error) {
	if node == nil {
		return map[string]any{}, nil
	}
	v, err := specnode.Eval(node, ctx)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return map[string]any{}, nil
	}
	body, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("entity body must be a mapping, got %T", v)
	}
	return body, nil
}

// mergeParams resolves the effective parameters: template defaults in
// declaration order, with caller-supplied values winning. Defaults are
// evaluated sequentially so later ones may reference earlier ones.
func (e *Expander) mergeParams(tpl *template.Template, callerParams map[string]any, ectx *specnode.Context) (map[string]any, error) {
	merged := map[string]any{}
	for k, v := range callerParams {
		merged[k] = v
	}
	scope := specnode.NewScope(merged)
	paramCtx := ectx.WithScope(scope)

	for _, key := range tpl.Params.Keys {
		if _, overridden := merged[key]; overridden {
			continue
		}
		v, err := specnode.Eval(tpl.Params.Children[key], paramCtx)
		if err != nil {
			return nil, fmt.Errorf("default parameter '%s' of template '%s': %w", key, tpl.Name, err)
		}
		merged[key] = v
	}
	return merged, nil
}

// rewriteMoleculeRefs replaces any string value naming a molecule local
// to this template with its namespaced form. Mutates body in place.
func rewriteMoleculeRefs(body map[string]any, namespace string, moleculeNames map[string]bool) {
	for k, v := range body {
		body[k] = rewriteValue(v, namespace, moleculeNames)
	}
}

func rewriteValue(v any, namespace string, moleculeNames map[string]bool) any {
	switch val := v.(type) {
	case string:
		if moleculeNames[val] {
			return MoleculePrefix + namespace + "." + val
		}
		return val
	case map[string]any:
		for k, item := range val {
			val[k] = rewriteValue(item, namespace, moleculeNames)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = rewriteValue(item, namespace, moleculeNames)
		}
		return val
	default:
		return v
	}
}

func templateNameOf(instNode *specnode.Node) string {
	if instNode == nil || !instNode.IsMap() {
		return ""
	}
	if n, ok := instNode.Get(keyTemplate); ok && n.Kind == specnode.KindScalar {
		if s, ok := n.Value.(string); ok {
			return s
		}
	}
	return ""
}

func namespacedPortTarget(namespace, path string) string {
	switch {
	case strings.HasPrefix(path, "reactions."):
		return ReactionPrefix + namespace + "." + strings.TrimPrefix(path, "reactions.")
	case strings.HasPrefix(path, "molecules."):
		return MoleculePrefix + namespace + "." + strings.TrimPrefix(path, "molecules.")
	default:
		return namespace + "." + path
	}
}

func joinNS(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
