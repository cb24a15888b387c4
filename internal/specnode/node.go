package specnode

import "fmt"

// Kind discriminates the variants of a Node. The set is closed: every
// consumer switches over it exhaustively, and hydration is the only place
// where new nodes are minted.
type Kind int

const (
	// KindScalar holds a plain Go value (string, bool, int64, float64, nil).
	KindScalar Kind = iota
	// KindMap holds an ordered mapping of string keys to child nodes.
	KindMap
	// KindSeq holds an ordered sequence of child nodes.
	KindSeq
	// KindEval holds an expression that is evaluated when the pipeline
	// requests a concrete value (the `!_` marker).
	KindEval
	// KindQuoted holds an expression that must not be evaluated here; it
	// is carried through as opaque source text (the `!quote` marker).
	KindQuoted
	// KindRef holds a dotted name resolved by scope lookup at evaluation
	// time (the `!ref` marker).
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindMap:
		return "map"
	case KindSeq:
		return "seq"
	case KindEval:
		return "eval"
	case KindQuoted:
		return "quoted"
	case KindRef:
		return "ref"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is one vertex of a hydrated spec tree.
//
// Exactly one of the payload fields is meaningful, selected by Kind:
// Value for scalars, Children/Keys for maps, Items for sequences, and
// Source for the three placeholder variants. Keys preserves document
// order so that evaluation walks the tree in the order the author wrote
// it, which keeps seeded sampling reproducible.
type Node struct {
	Kind     Kind
	Value    any
	Keys     []string
	Children map[string]*Node
	Items    []*Node
	Source   string
}

// NewScalar returns a scalar node wrapping the given value.
func NewScalar(v any) *Node {
	return &Node{Kind: KindScalar, Value: v}
}

// NewMap returns an empty map node.
func NewMap() *Node {
	return &Node{Kind: KindMap, Children: map[string]*Node{}}
}

// Set adds or replaces a key in a map node, preserving first-insertion order.
func (n *Node) Set(key string, child *Node) {
	if n.Kind != KindMap {
		panic(fmt.Sprintf("Set called on %s node", n.Kind))
	}
	if _, ok := n.Children[key]; !ok {
		n.Keys = append(n.Keys, key)
	}
	n.Children[key] = child
}

// Get returns the child node for a key of a map node.
func (n *Node) Get(key string) (*Node, bool) {
	if n.Kind != KindMap {
		return nil, false
	}
	c, ok := n.Children[key]
	return c, ok
}

// IsMap reports whether the node is a mapping.
func (n *Node) IsMap() bool { return n != nil && n.Kind == KindMap }

func (n *Node) String() string {
	switch n.Kind {
	case KindScalar:
		return fmt.Sprintf("%v", n.Value)
	case KindEval:
		return fmt.Sprintf("!_ %s", n.Source)
	case KindQuoted:
		return fmt.Sprintf("!quote %s", n.Source)
	case KindRef:
		return fmt.Sprintf("!ref %s", n.Source)
	default:
		return n.Kind.String()
	}
}
