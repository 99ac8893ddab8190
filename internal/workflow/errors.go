package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingEntry         = errors.New("entry workflow is not defined")
	ErrNoRules              = errors.New("workflow has no rules")
	ErrUnconditionalNotLast = errors.New("unconditional rule must be the last rule")
	ErrLastRuleConditional  = errors.New("last rule must be unconditional")
	ErrDuplicateWorkflow    = errors.New("duplicate workflow")
	ErrSinkRedefined        = errors.New("terminal sink cannot be defined as a workflow")
	ErrPartialPriority      = errors.New("rule has no priority while its siblings do")
)

// UnknownDestinationError reports a rule pointing at a label that is neither
// a workflow nor a terminal sink.
type UnknownDestinationError struct {
	Workflow    string
	Destination string
}

func (e *UnknownDestinationError) Error() string {
	return fmt.Sprintf("workflow %q routes to unknown destination %q", e.Workflow, e.Destination)
}

// CycleError lists the workflows whose predecessors never all completed.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("routing graph contains cycle through [%s]", strings.Join(e.Nodes, ", "))
}

// RuleError wraps a malformed rule with its position.
type RuleError struct {
	Workflow string
	Index    int
	Rule     string
	Err      error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("workflow %q rule %d (%q): %v", e.Workflow, e.Index, e.Rule, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }
