package workflow

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func loadSample(t *testing.T) *Set {
	t.Helper()
	src, err := os.ReadFile("testdata/sample.txt")
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewCompiler().Compile(string(src))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestCompiler_TextDefinitions(t *testing.T) {
	s := loadSample(t)

	if len(s.Workflows) != 11 {
		t.Fatalf("expected 11 workflows, got %d", len(s.Workflows))
	}
	if s.Entry != "in" {
		t.Fatalf("expected entry in, got %q", s.Entry)
	}

	px := s.Workflows["px"]
	if len(px.Rules) != 3 {
		t.Fatalf("expected 3 rules in px, got %d", len(px.Rules))
	}
	c, ok := px.Rules[0].(Conditional)
	if !ok {
		t.Fatalf("expected first px rule to be conditional, got %T", px.Rules[0])
	}
	if c.Name != "a" || c.Attr != 2 || c.Op != '<' || c.Threshold != 2006 || c.Dest != "qkq" {
		t.Fatalf("unexpected rule %#v", c)
	}
	if _, ok := px.Rules[2].(Unconditional); !ok {
		t.Fatalf("expected last px rule to be unconditional, got %T", px.Rules[2])
	}
}

func TestCompiler_SimpleDOT(t *testing.T) {
	dot, err := os.ReadFile("testdata/simple.dot")
	if err != nil {
		t.Fatal(err)
	}

	s, err := NewCompiler(WithEntry("ignored")).Compile(string(dot))
	if err != nil {
		t.Fatal(err)
	}

	if len(s.Workflows) != 2 {
		t.Fatalf("expected 2 workflows, got %d", len(s.Workflows))
	}
	if s.Entry != "in" {
		t.Fatalf("expected root attribute to pick entry in, got %q", s.Entry)
	}

	big := s.Workflows["big"]
	if got := big.String(); got != "big{m<1001:A,a>3000:A,R}" {
		t.Fatalf("unexpected rule order: %s", got)
	}
}

func TestCompiler_DOTPriorityOverridesTextOrder(t *testing.T) {
	s, err := NewCompiler().Compile(`digraph {
		in -> R [taillabel="2"];
		in -> A [label="x<10", taillabel="1"];
	}`)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Workflows["in"].String(); got != "in{x<10:A,R}" {
		t.Fatalf("unexpected rule order: %s", got)
	}
}

func TestCompiler_DOTPartialPriorityRejected(t *testing.T) {
	_, err := NewCompiler().Compile(`digraph {
		in -> A [label="x<10", taillabel="1"];
		in -> R;
	}`)
	var re *RuleError
	if !errors.As(err, &re) {
		t.Fatalf("expected RuleError, got %T: %v", err, err)
	}
	if !errors.Is(err, ErrPartialPriority) {
		t.Fatalf("expected ErrPartialPriority, got %v", err)
	}
	if re.Workflow != "in" || re.Index != 1 || re.Rule != "in->R" {
		t.Fatalf("unexpected error fields: %#v", re)
	}
}

func TestCompiler_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "unknown_destination", src: "in{x<5:nowhere,A}", want: `unknown destination "nowhere"`},
		{name: "unknown_attribute", src: "in{q<5:A,R}", want: `unknown attribute "q"`},
		{name: "unconditional_not_last", src: "in{A,x<5:R,R}", want: "must be the last rule"},
		{name: "last_rule_conditional", src: "in{x<5:A}", want: "last rule must be unconditional"},
		{name: "missing_entry", src: "px{A}", want: "entry workflow is not defined"},
		{name: "duplicate_workflow", src: "in{A}\nin{R}", want: "duplicate workflow"},
		{name: "malformed_rule", src: "in{x=5:A,R}", want: "invalid condition"},
		{name: "bad_threshold", src: "in{x<five:A,R}", want: "invalid threshold"},
		{name: "malformed_line", src: "in x<5:A", want: "invalid workflow"},
		{name: "sink_redefined", src: "in{A}\nA{R}", want: "terminal sink"},
		{name: "empty_workflow", src: "in{}", want: "no rules"},
		{name: "invalid_dot", src: "digraph { in -> ", want: "failed to parse DOT"},
		{name: "dot_sink_with_edges", src: `digraph { in -> A; A -> R; }`, want: "terminal sink"},
		{name: "dot_undeclared_target", src: `digraph { in -> px [label="x<3"]; in -> R; px; }`, want: `unknown destination "px"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCompiler().Compile(tc.src)
			if err == nil {
				t.Fatalf("expected error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCompiler_TypedErrors(t *testing.T) {
	_, err := NewCompiler().Compile("in{x<5:nowhere,A}")
	var ude *UnknownDestinationError
	if !errors.As(err, &ude) {
		t.Fatalf("expected UnknownDestinationError, got %T: %v", err, err)
	}
	if ude.Workflow != "in" || ude.Destination != "nowhere" {
		t.Fatalf("unexpected error fields: %#v", ude)
	}

	_, err = NewCompiler().Compile("in{x<5:A}")
	if !errors.Is(err, ErrLastRuleConditional) {
		t.Fatalf("expected ErrLastRuleConditional, got %v", err)
	}
}
