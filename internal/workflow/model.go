package workflow

import (
	"fmt"
	"strings"

	"github.com/awmpietro/golang-workflow-volume/internal/region"
)

// Terminal sinks. They collect regions and have no rules.
const (
	Accept = "A"
	Reject = "R"
)

// DefaultEntry is the workflow every record and the full-domain region start at.
const DefaultEntry = "in"

func IsSink(label string) bool { return label == Accept || label == Reject }

// Rule is either a Conditional or an Unconditional.
type Rule interface {
	Destination() string
	String() string
	isRule()
}

// Conditional sends whatever satisfies "attribute op threshold" to Dest.
type Conditional struct {
	Attr      int
	Name      string
	Op        region.Comparator
	Threshold int64
	Dest      string
}

func (c Conditional) Destination() string { return c.Dest }

// Condition renders the test part, e.g. "a<2006".
func (c Conditional) Condition() string {
	return fmt.Sprintf("%s%s%d", c.Name, c.Op, c.Threshold)
}

func (c Conditional) String() string { return c.Condition() + ":" + c.Dest }

func (Conditional) isRule() {}

// Unconditional sends everything that reaches it to Dest.
type Unconditional struct {
	Dest string
}

func (u Unconditional) Destination() string { return u.Dest }

func (u Unconditional) String() string { return u.Dest }

func (Unconditional) isRule() {}

// Workflow is an ordered decision list; the first matching rule wins.
type Workflow struct {
	Name  string
	Rules []Rule
}

func (w *Workflow) String() string {
	parts := make([]string, len(w.Rules))
	for i, r := range w.Rules {
		parts[i] = r.String()
	}
	return w.Name + "{" + strings.Join(parts, ",") + "}"
}

// Destinations lists the distinct rule destinations in rule order.
func (w *Workflow) Destinations() []string {
	seen := make(map[string]struct{}, len(w.Rules))
	out := make([]string, 0, len(w.Rules))
	for _, r := range w.Rules {
		d := r.Destination()
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// Set is a compiled collection of workflows over one domain.
type Set struct {
	Entry     string
	Domain    region.Domain
	Workflows map[string]*Workflow
	// Order keeps definition order for rendering.
	Order []string
}

// Record is a single point of the domain, one value per attribute.
type Record []int64

func (r Record) Map(d region.Domain) map[string]int64 {
	out := make(map[string]int64, len(r))
	for i, v := range r {
		if i < d.Len() {
			out[d.Attribute(i).Name] = v
		}
	}
	return out
}

// RecordFromMap orders named values by the domain. Every attribute is required.
func RecordFromMap(d region.Domain, values map[string]int64) (Record, error) {
	for name := range values {
		if _, ok := d.Index(name); !ok {
			return nil, fmt.Errorf("unknown attribute %q", name)
		}
	}
	rec := make(Record, d.Len())
	for i, name := range d.Names() {
		v, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("missing attribute %q", name)
		}
		rec[i] = v
	}
	return rec, nil
}
