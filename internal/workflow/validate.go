package workflow

import (
	"fmt"

	"github.com/awmpietro/golang-workflow-volume/internal/region"
)

// NewSet validates workflows and indexes them by name.
func NewSet(entry string, d region.Domain, workflows []*Workflow) (*Set, error) {
	if entry == "" {
		entry = DefaultEntry
	}
	s := &Set{
		Entry:     entry,
		Domain:    d,
		Workflows: make(map[string]*Workflow, len(workflows)),
		Order:     make([]string, 0, len(workflows)),
	}
	for _, w := range workflows {
		if IsSink(w.Name) {
			return nil, fmt.Errorf("%w: %q", ErrSinkRedefined, w.Name)
		}
		if _, dup := s.Workflows[w.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateWorkflow, w.Name)
		}
		s.Workflows[w.Name] = w
		s.Order = append(s.Order, w.Name)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks rule shape and that every destination resolves.
func (s *Set) Validate() error {
	if _, ok := s.Workflows[s.Entry]; !ok {
		return fmt.Errorf("%w: %q", ErrMissingEntry, s.Entry)
	}
	for _, name := range s.Order {
		w := s.Workflows[name]
		if len(w.Rules) == 0 {
			return fmt.Errorf("workflow %q: %w", name, ErrNoRules)
		}
		for i, rule := range w.Rules {
			last := i == len(w.Rules)-1
			switch rule := rule.(type) {
			case Unconditional:
				if !last {
					return &RuleError{Workflow: name, Index: i, Rule: rule.String(), Err: ErrUnconditionalNotLast}
				}
			case Conditional:
				if last {
					return &RuleError{Workflow: name, Index: i, Rule: rule.String(), Err: ErrLastRuleConditional}
				}
				if rule.Attr < 0 || rule.Attr >= s.Domain.Len() {
					return &RuleError{Workflow: name, Index: i, Rule: rule.String(), Err: fmt.Errorf("attribute index %d out of domain", rule.Attr)}
				}
				if !rule.Op.Valid() {
					return &RuleError{Workflow: name, Index: i, Rule: rule.String(), Err: fmt.Errorf("invalid comparator %q", rule.Op)}
				}
			}
			dest := rule.Destination()
			if _, ok := s.Workflows[dest]; !ok && !IsSink(dest) {
				return &UnknownDestinationError{Workflow: name, Destination: dest}
			}
		}
	}
	return nil
}
