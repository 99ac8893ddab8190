// Package eval compiles and runs record rating expressions such as
// "x + m + a + s" over a record's attribute values.
package eval

import (
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

type Program struct {
	src     string
	names   []string
	program *vm.Program
	// shadow runs the same expression over float64 values. expr wraps on
	// int overflow; the float result exposes it. Nil when the expression
	// needs integers, for example with %.
	shadow *vm.Program
}

// maxExact bounds the integers Eval accepts from the float cross-check.
const maxExact = 1 << 63

// Compile checks src against the attribute names. An empty src sums every
// attribute.
func Compile(src string, names []string) (*Program, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		src = strings.Join(names, " + ")
	}

	if err := Validate(src); err != nil {
		return nil, err
	}

	env := make(map[string]any, len(names))
	for _, n := range names {
		env[n] = 0
	}
	program, err := expr.Compile(src, expr.Env(env))
	if err != nil {
		return nil, fmt.Errorf("compile rating %q: %w", src, err)
	}

	floatEnv := make(map[string]any, len(names))
	for _, n := range names {
		floatEnv[n] = 0.0
	}
	shadow, _ := expr.Compile(src, expr.Env(floatEnv))

	return &Program{src: src, names: append([]string(nil), names...), program: program, shadow: shadow}, nil
}

func (p *Program) String() string { return p.src }

// Eval runs the program. The result must be an integer.
func (p *Program) Eval(values map[string]int64) (int64, error) {
	env := make(map[string]any, len(p.names))
	for _, n := range p.names {
		v, ok := values[n]
		if !ok {
			return 0, fmt.Errorf("missing value for %q", n)
		}
		env[n] = int(v)
	}

	out, err := expr.Run(p.program, env)
	if err != nil {
		return 0, err
	}

	var got int64
	switch v := out.(type) {
	case int:
		got = int64(v)
	case int64:
		got = v
	case int32:
		got = int64(v)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("rating must be an integer (got %v)", v)
		}
		if v >= maxExact || v < -maxExact {
			return 0, fmt.Errorf("rating %v overflows int64", v)
		}
		got = int64(v)
	default:
		return 0, fmt.Errorf("rating must evaluate to an integer (got %T)", out)
	}

	if err := p.crossCheck(got, values); err != nil {
		return 0, err
	}
	return got, nil
}

func (p *Program) crossCheck(got int64, values map[string]int64) error {
	if p.shadow == nil {
		return nil
	}
	env := make(map[string]any, len(p.names))
	for _, n := range p.names {
		env[n] = float64(values[n])
	}
	out, err := expr.Run(p.shadow, env)
	if err != nil {
		return nil
	}
	want, ok := out.(float64)
	if !ok || math.IsNaN(want) {
		return nil
	}
	if math.IsInf(want, 0) || want >= maxExact || want < -maxExact {
		return fmt.Errorf("rating overflows int64 (about %g)", want)
	}
	if math.Abs(want-float64(got)) > 1+math.Abs(want)*1e-9 {
		return fmt.Errorf("rating overflows int64 (about %g, got %d)", want, got)
	}
	return nil
}
