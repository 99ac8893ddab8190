package workflow

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

const dotGraphName = "Workflows"

// ToDOT renders the set as a digraph the Compiler reads back: conditions in
// edge labels, rule positions in tail labels, the entry in the root attribute.
func ToDOT(s *Set) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName(dotGraphName); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}
	if err := g.AddAttr(dotGraphName, "root", strconv.Quote(s.Entry)); err != nil {
		return "", fmt.Errorf("set root: %w", err)
	}

	for _, name := range s.Order {
		if err := g.AddNode(dotGraphName, name, nil); err != nil {
			return "", fmt.Errorf("add node %q: %w", name, err)
		}
	}
	for _, sink := range []string{Accept, Reject} {
		if err := g.AddNode(dotGraphName, sink, map[string]string{"shape": "doublecircle"}); err != nil {
			return "", fmt.Errorf("add sink %q: %w", sink, err)
		}
	}

	for _, name := range s.Order {
		for i, rule := range s.Workflows[name].Rules {
			attrs := map[string]string{"taillabel": strconv.Quote(strconv.Itoa(i + 1))}
			if c, ok := rule.(Conditional); ok {
				attrs["label"] = strconv.Quote(c.Condition())
			}
			if err := g.AddEdge(name, rule.Destination(), true, attrs); err != nil {
				return "", fmt.Errorf("add edge %s->%s: %w", name, rule.Destination(), err)
			}
		}
	}

	return g.String(), nil
}
