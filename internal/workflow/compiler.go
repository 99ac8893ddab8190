package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/awalterschulze/gographviz"

	"github.com/awmpietro/golang-workflow-volume/internal/region"
)

// Compiler turns workflow definitions into a validated Set. Two formats are
// accepted: one "name{rules}" line per workflow, or a DOT digraph whose edges
// are rules (label holds the condition, taillabel the optional rule position)
// and whose graph attribute root names the entry workflow.
type Compiler struct {
	domain region.Domain
	entry  string
}

type CompilerOption func(*Compiler)

func WithDomain(d region.Domain) CompilerOption {
	return func(c *Compiler) {
		c.domain = d
	}
}

func WithEntry(entry string) CompilerOption {
	return func(c *Compiler) {
		c.entry = entry
	}
}

func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{domain: region.DefaultDomain(), entry: DefaultEntry}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Compiler) Domain() region.Domain { return c.domain }

func (c *Compiler) Compile(src string) (*Set, error) {
	if IsDOT(src) {
		return c.compileDOT(src)
	}

	workflows, _, err := ParseInput(src, c.domain)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workflows: %w", err)
	}
	return NewSet(c.entry, c.domain, workflows)
}

// IsDOT reports whether src looks like a Graphviz digraph.
func IsDOT(src string) bool {
	s := strings.TrimSpace(src)
	s = strings.TrimPrefix(s, "strict")
	return strings.HasPrefix(strings.TrimSpace(s), "digraph")
}

func (c *Compiler) compileDOT(dot string) (*Set, error) {
	ast, err := gographviz.ParseString(dot)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DOT: %w", err)
	}

	g := gographviz.NewGraph()
	if err := gographviz.Analyse(ast, g); err != nil {
		return nil, fmt.Errorf("failed to analyze DOT: %w", err)
	}

	orderedEdges, err := extractEdgesInTextOrder(dot)
	if err != nil {
		return nil, fmt.Errorf("failed to extract edge order from DOT: %w", err)
	}

	byName := map[string]*Workflow{}
	edgesBySource := map[string][]edgeSpec{}
	var order []string
	declare := func(name string) {
		if IsSink(name) {
			return
		}
		if _, ok := byName[name]; ok {
			return
		}
		byName[name] = &Workflow{Name: name}
		order = append(order, name)
	}

	// Only nodes with outgoing edges are workflows; a rule pointing at any
	// other non-sink node is an unknown destination.
	for _, e := range orderedEdges {
		if IsSink(e.From) {
			return nil, fmt.Errorf("%w: %q has outgoing edge to %q", ErrSinkRedefined, e.From, e.To)
		}
		declare(e.From)
		edgesBySource[e.From] = append(edgesBySource[e.From], e)
	}

	for _, name := range order {
		edges := edgesBySource[name]
		switch n := prioritized(edges); {
		case n == len(edges):
			sort.SliceStable(edges, func(i, j int) bool { return edges[i].Priority < edges[j].Priority })
		case n > 0:
			for i, e := range edges {
				if !e.HasPrio {
					return nil, &RuleError{Workflow: name, Index: i, Rule: e.From + "->" + e.To, Err: ErrPartialPriority}
				}
			}
		}

		w := byName[name]
		for i, e := range edges {
			var rule Rule
			var err error
			if e.Cond == "" {
				rule, err = NewUnconditional(e.To)
			} else {
				rule, err = NewConditional(e.Cond, e.To, c.domain)
			}
			if err != nil {
				return nil, &RuleError{Workflow: name, Index: i, Rule: e.From + "->" + e.To, Err: err}
			}
			w.Rules = append(w.Rules, rule)
		}
	}

	workflows := make([]*Workflow, 0, len(order))
	for _, name := range order {
		workflows = append(workflows, byName[name])
	}

	entry := c.entry
	if root := getAttr(g.Attrs, "root"); root != "" {
		entry = root
	}
	return NewSet(entry, c.domain, workflows)
}

// prioritized counts the edges carrying a taillabel priority. A workflow
// orders by priority only when every edge has one.
func prioritized(edges []edgeSpec) int {
	n := 0
	for _, e := range edges {
		if e.HasPrio {
			n++
		}
	}
	return n
}

// getAttr reads a Graphviz attribute, stripping the surrounding quotes.
func getAttr(attrs gographviz.Attrs, key string) string {
	val, ok := attrs[gographviz.Attr(key)]
	if !ok {
		return ""
	}

	val = strings.TrimSpace(val)
	if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
		val = val[1 : len(val)-1]
	}

	return val
}
