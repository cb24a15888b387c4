package specnode

import "sort"

// Dehydrate converts a typed tree back into a plain Go value tree,
// suitable for YAML/JSON encoding. Placeholder nodes that have not been
// evaluated re-emit their marker as a string prefix ("!_ expr",
// "!quote expr", "!ref name"), so a dehydrated document still reads as
// the spec language.
func Dehydrate(n *Node) any {
	switch n.Kind {
	case KindScalar:
		return n.Value
	case KindEval:
		return tagEval + " " + n.Source
	case KindQuoted:
		return tagQuoted + " " + n.Source
	case KindRef:
		return tagRef + " " + n.Source
	case KindMap:
		out := make(map[string]any, len(n.Keys))
		for _, k := range n.Keys {
			out[k] = Dehydrate(n.Children[k])
		}
		return out
	case KindSeq:
		out := make([]any, len(n.Items))
		for i, item := range n.Items {
			out[i] = Dehydrate(item)
		}
		return out
	default:
		return nil
	}
}

// FromGo lifts a plain Go value tree into a typed tree. Strings carrying
// a recognized marker prefix become the corresponding placeholder node,
// mirroring Dehydrate. Used when specs are assembled in memory rather
// than parsed from a document.
func FromGo(v any) *Node {
	switch val := v.(type) {
	case map[string]any:
		out := NewMap()
		for _, k := range sortedKeys(val) {
			out.Set(k, FromGo(val[k]))
		}
		return out
	case []any:
		items := make([]*Node, len(val))
		for i, item := range val {
			items[i] = FromGo(item)
		}
		return &Node{Kind: KindSeq, Items: items}
	case string:
		if src, ok := cutMarker(val, tagEval); ok {
			return &Node{Kind: KindEval, Source: src}
		}
		if src, ok := cutMarker(val, tagQuoted); ok {
			return &Node{Kind: KindQuoted, Source: src}
		}
		if src, ok := cutMarker(val, tagRef); ok {
			return &Node{Kind: KindRef, Source: src}
		}
		return NewScalar(val)
	case int:
		return NewScalar(int64(val))
	default:
		return NewScalar(v)
	}
}

func cutMarker(s, marker string) (string, bool) {
	prefix := marker + " "
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):], true
	}
	return "", false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Insertion order is gone once the tree has passed through a plain
	// map, so sorted order is the stable choice.
	sort.Strings(keys)
	return keys
}
