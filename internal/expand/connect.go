package expand

import (
	"strings"

	"github.com/vk/xenogen/internal/specnode"
)

// pendingConn is an explicit port connection noted while expanding one
// sibling, applied only after every sibling in the same `_instantiate_`
// block exists, so wiring order does not depend on declaration order.
type pendingConn struct {
	childNs   string
	parentNs  string
	localPath string // e.g. "reactions.work"
	targetRef string // dotted reference relative to parentNs
}

// portConnectionRef reports whether an instantiation body entry wires a
// local port to a sibling. Connections are scalar string values under a
// "reactions." or "molecules." key that themselves contain a dotted
// path; anything else is an ordinary parameter override.
func portConnectionRef(key string, node *specnode.Node) (string, bool) {
	if !strings.HasPrefix(key, "reactions.") && !strings.HasPrefix(key, "molecules.") {
		return "", false
	}
	if node == nil || node.Kind != specnode.KindScalar {
		return "", false
	}
	s, ok := node.Value.(string)
	if !ok || !strings.Contains(s, ".") {
		return "", false
	}
	return s, true
}

func (e *Expander) applyConnection(gt *GroundTruth, pc pendingConn) error {
	localKey := pc.childNs + "." + pc.localPath
	targetKey := joinNS(pc.parentNs, pc.targetRef)

	target, ok := e.ports[targetKey]
	if !ok {
		return &PortNotFoundError{Token: pc.targetRef, Requester: pc.childNs}
	}
	if local, ok := e.ports[localKey]; ok {
		if !local.Port.CompatibleWith(target.Port) {
			return &PortTypeMismatchError{
				SourcePort: localKey,
				SourceSpec: local.Port.Token(),
				TargetPort: targetKey,
				TargetSpec: target.Port.Token(),
			}
		}
	}

	switch {
	case strings.HasPrefix(pc.localPath, "reactions."):
		name := ReactionPrefix + pc.childNs + "." + strings.TrimPrefix(pc.localPath, "reactions.")
		if body, ok := gt.Reactions[name]; ok {
			body["energy_source"] = target.TargetName
		}
	case strings.HasPrefix(pc.localPath, "molecules."):
		name := MoleculePrefix + pc.childNs + "." + strings.TrimPrefix(pc.localPath, "molecules.")
		if body, ok := gt.Molecules[name]; ok {
			body["source"] = target.TargetName
		}
	}
	return nil
}
