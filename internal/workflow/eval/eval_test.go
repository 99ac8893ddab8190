package eval

import "testing"

var names = []string{"x", "m", "a", "s"}

func TestEval_DefaultSumsAttributes(t *testing.T) {
	p, err := Compile("", names)
	if err != nil {
		t.Fatal(err)
	}

	got, err := p.Eval(map[string]int64{"x": 787, "m": 2655, "a": 1222, "s": 2876})
	if err != nil {
		t.Fatal(err)
	}
	if got != 7540 {
		t.Fatalf("expected 7540, got %d", got)
	}
	if p.String() != "x + m + a + s" {
		t.Fatalf("unexpected default expression %q", p.String())
	}
}

func TestEval_ArithmeticAndParentheses(t *testing.T) {
	p, err := Compile("(x - m) * 2 + s % 7", names)
	if err != nil {
		t.Fatal(err)
	}

	got, err := p.Eval(map[string]int64{"x": 10, "m": 4, "a": 0, "s": 9})
	if err != nil {
		t.Fatal(err)
	}
	if got != 14 {
		t.Fatalf("expected 14, got %d", got)
	}
}

func TestEval_MissingValue(t *testing.T) {
	p, err := Compile("x", names)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Eval(map[string]int64{"x": 1}); err == nil {
		t.Fatalf("expected error for missing attribute values")
	}
}

func TestEval_NonIntegerResult(t *testing.T) {
	p, err := Compile("x / 2", names)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Eval(map[string]int64{"x": 3, "m": 0, "a": 0, "s": 0}); err == nil {
		t.Fatalf("expected error for fractional rating")
	}
}

func TestCompile_UnknownAttribute(t *testing.T) {
	if _, err := Compile("x + q", names); err == nil {
		t.Fatalf("expected error for unknown identifier")
	}
}

func TestValidate_BlocksFunctionCall(t *testing.T) {
	if err := Validate(`len(x)`); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidate_BlocksMemberAccessAndComparisons(t *testing.T) {
	for _, src := range []string{"x.y", "x == 1", "x > 1 && m < 2", `"s"`} {
		if err := Validate(src); err == nil {
			t.Fatalf("expected %q to be rejected", src)
		}
	}
}

func TestValidate_AllowsParentheses(t *testing.T) {
	if err := Validate(`(x + m) * (a - s)`); err != nil {
		t.Fatal(err)
	}
}

func TestEval_IntegerOverflowIsAnError(t *testing.T) {
	p, err := Compile("x * m", names)
	if err != nil {
		t.Fatal(err)
	}

	big := int64(1) << 62
	if _, err := p.Eval(map[string]int64{"x": big, "m": big, "a": 0, "s": 0}); err == nil {
		t.Fatalf("expected overflow error")
	}

	got, err := p.Eval(map[string]int64{"x": 1 << 31, "m": 1 << 31, "a": 0, "s": 0})
	if err != nil {
		t.Fatal(err)
	}
	if got != 1<<62 {
		t.Fatalf("expected 1<<62, got %d", got)
	}
}
