package guard

import "sort"

// BuildDependencyGraph derives a molecule dependency graph from reaction
// bodies: every product depends on every reactant, so edges run
// reactant -> product.
func BuildDependencyGraph(reactions map[string]map[string]any) map[string][]string {
	graph := map[string][]string{}
	names := make([]string, 0, len(reactions))
	for name := range reactions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		body := reactions[name]
		reactants := stringList(body["reactants"])
		products := stringList(body["products"])
		for _, r := range reactants {
			graph[r] = append(graph[r], products...)
		}
	}
	return graph
}

// DetectCycles finds dependency cycles with a three-color depth-first
// walk: an edge back to a node still on the recursion stack closes a
// cycle. Nodes are visited in sorted order so the reported cycle is
// stable for a given graph.
func DetectCycles(graph map[string][]string) [][]string {
	var cycles [][]string
	visited := map[string]bool{}
	onStack := map[string]bool{}
	var path []string

	var dfs func(node string) bool
	dfs = func(node string) bool {
		visited[node] = true
		onStack[node] = true
		path = append(path, node)

		for _, next := range graph[node] {
			if !visited[next] {
				if dfs(next) {
					return true
				}
			} else if onStack[next] {
				start := 0
				for i, n := range path {
					if n == next {
						start = i
						break
					}
				}
				cycle := append(append([]string{}, path[start:]...), next)
				cycles = append(cycles, cycle)
				return true
			}
		}

		path = path[:len(path)-1]
		onStack[node] = false
		return false
	}

	roots := make([]string, 0, len(graph))
	for node := range graph {
		roots = append(roots, node)
	}
	sort.Strings(roots)
	for _, node := range roots {
		if !visited[node] {
			dfs(node)
		}
	}
	return cycles
}

func stringList(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
