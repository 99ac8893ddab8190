package workflow

import (
	"fmt"

	"github.com/awmpietro/golang-workflow-volume/internal/region"
)

// Apply splits r into per-destination fragments following the rule order.
// For a validated workflow the fragment volumes sum to r's volume.
func (w *Workflow) Apply(r region.Region) map[string][]region.Region {
	out := make(map[string][]region.Region, len(w.Rules))
	live := &r
	for _, rule := range w.Rules {
		if live == nil {
			break
		}
		switch rule := rule.(type) {
		case Conditional:
			matched, rest := live.SplitOn(rule.Attr, rule.Op, rule.Threshold)
			if matched != nil {
				out[rule.Dest] = append(out[rule.Dest], *matched)
			}
			live = rest
		case Unconditional:
			out[rule.Dest] = append(out[rule.Dest], *live)
			live = nil
		}
	}
	return out
}

// Route returns the destination of the first rule rec satisfies.
func (w *Workflow) Route(rec Record) (string, error) {
	for _, rule := range w.Rules {
		switch rule := rule.(type) {
		case Conditional:
			if rule.Attr >= len(rec) {
				return "", fmt.Errorf("workflow %q: record has no attribute %q", w.Name, rule.Name)
			}
			if rule.Op.Holds(rec[rule.Attr], rule.Threshold) {
				return rule.Dest, nil
			}
		case Unconditional:
			return rule.Dest, nil
		}
	}
	return "", fmt.Errorf("workflow %q: no rule matched", w.Name)
}
