package workflow

import "sort"

// routingGraph is the adjacency view of a Set restricted to the nodes
// reachable from the entry. Sinks are nodes with no outgoing edges.
type routingGraph struct {
	succ  map[string][]string
	pred  map[string][]string
	nodes []string
}

func buildRoutingGraph(s *Set) *routingGraph {
	g := &routingGraph{
		succ: map[string][]string{},
		pred: map[string][]string{},
	}

	seen := map[string]bool{s.Entry: true}
	queue := []string{s.Entry}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		g.nodes = append(g.nodes, node)

		w, ok := s.Workflows[node]
		if !ok {
			continue
		}
		for _, dest := range w.Destinations() {
			g.succ[node] = append(g.succ[node], dest)
			g.pred[dest] = append(g.pred[dest], node)
			if !seen[dest] {
				seen[dest] = true
				queue = append(queue, dest)
			}
		}
	}
	for _, preds := range g.pred {
		sort.Strings(preds)
	}
	return g
}

// layers orders nodes so that every node comes after all its predecessors,
// grouping the nodes that become ready together. Nodes left over once no
// node is ready form a cycle.
func (g *routingGraph) layers() ([][]string, error) {
	indegree := make(map[string]int, len(g.nodes))
	for _, n := range g.nodes {
		indegree[n] = len(g.pred[n])
	}

	var ready []string
	for _, n := range g.nodes {
		if indegree[n] == 0 {
			ready = append(ready, n)
		}
	}

	var out [][]string
	visited := 0
	for len(ready) > 0 {
		sort.Strings(ready)
		out = append(out, ready)
		visited += len(ready)

		var next []string
		for _, n := range ready {
			for _, s := range g.succ[n] {
				indegree[s]--
				if indegree[s] == 0 {
					next = append(next, s)
				}
			}
		}
		ready = next
	}

	if visited != len(g.nodes) {
		var stuck []string
		for _, n := range g.nodes {
			if indegree[n] > 0 {
				stuck = append(stuck, n)
			}
		}
		sort.Strings(stuck)
		return nil, &CycleError{Nodes: stuck}
	}
	return out, nil
}
