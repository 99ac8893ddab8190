package workflow

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// edgeSpec is one "from -> to [label="cond", taillabel="n"]" statement.
// Graphviz drops statement order, and rule order is meaning here, so edges are
// read straight from the source text.
type edgeSpec struct {
	From     string
	To       string
	Cond     string
	Priority int
	HasPrio  bool
	Pos      int
}

// splitStatements splits DOT text on ';', newlines and braces outside quotes.
func splitStatements(dot string) []string {
	var out []string
	var b strings.Builder
	inQuotes := false
	escape := false

	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
		b.Reset()
	}

	for _, r := range dot {
		if escape {
			b.WriteRune(r)
			escape = false
			continue
		}
		if r == '\\' && inQuotes {
			b.WriteRune(r)
			escape = true
			continue
		}
		if r == '"' {
			inQuotes = !inQuotes
			b.WriteRune(r)
			continue
		}
		if !inQuotes && (r == ';' || r == '\n' || r == '{' || r == '}') {
			flush()
			continue
		}
		b.WriteRune(r)
	}
	flush()
	return out
}

var edgeStmtRe = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*->\s*([A-Za-z_][A-Za-z0-9_]*)\s*(\[(.*)\])?\s*$`)
var labelRe = regexp.MustCompile(`(?:^|[^A-Za-z_])label\s*=\s*"([^"]*)"`)
var tailLabelRe = regexp.MustCompile(`taillabel\s*=\s*"?\s*(\d+)\s*"?`)

func extractEdgesInTextOrder(dot string) ([]edgeSpec, error) {
	stmts := splitStatements(dot)
	out := make([]edgeSpec, 0)

	for _, s := range stmts {
		if !strings.Contains(s, "->") {
			continue
		}

		m := edgeStmtRe.FindStringSubmatch(s)
		if m == nil {
			return nil, fmt.Errorf("unsupported edge statement: %q", s)
		}

		e := edgeSpec{From: m[1], To: m[2], Pos: len(out)}
		attrs := m[4]
		if cm := labelRe.FindStringSubmatch(attrs); cm != nil {
			e.Cond = strings.TrimSpace(cm[1])
		}
		if pm := tailLabelRe.FindStringSubmatch(attrs); pm != nil {
			p, err := strconv.Atoi(pm[1])
			if err != nil {
				return nil, fmt.Errorf("invalid rule priority in %q: %w", s, err)
			}
			e.Priority = p
			e.HasPrio = true
		}

		out = append(out, e)
	}

	return out, nil
}
