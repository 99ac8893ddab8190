package workflow

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/awmpietro/golang-workflow-volume/internal/region"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseWorkflow reads one "name{a<2006:qkq,m>2090:A,rfg}" line.
func ParseWorkflow(line string, d region.Domain) (*Workflow, error) {
	line = strings.TrimSpace(line)
	open := strings.IndexByte(line, '{')
	if open <= 0 || !strings.HasSuffix(line, "}") {
		return nil, fmt.Errorf("invalid workflow %q (expected name{rules})", line)
	}

	name := strings.TrimSpace(line[:open])
	if !identRe.MatchString(name) {
		return nil, fmt.Errorf("invalid workflow name %q", name)
	}

	w := &Workflow{Name: name}
	body := line[open+1 : len(line)-1]
	if strings.TrimSpace(body) == "" {
		return w, nil
	}
	for i, raw := range strings.Split(body, ",") {
		rule, err := ParseRule(raw, d)
		if err != nil {
			return nil, &RuleError{Workflow: name, Index: i, Rule: raw, Err: err}
		}
		w.Rules = append(w.Rules, rule)
	}
	return w, nil
}

// ParseRule reads "attr<n:dest", "attr>n:dest" or a bare "dest".
func ParseRule(raw string, d region.Domain) (Rule, error) {
	raw = strings.TrimSpace(raw)
	cond, dest, found := strings.Cut(raw, ":")
	if !found {
		return NewUnconditional(raw)
	}
	return NewConditional(cond, dest, d)
}

func NewUnconditional(dest string) (Rule, error) {
	dest = strings.TrimSpace(dest)
	if !identRe.MatchString(dest) {
		return nil, fmt.Errorf("invalid destination %q", dest)
	}
	return Unconditional{Dest: dest}, nil
}

// NewConditional builds a rule from a condition such as "a<2006".
func NewConditional(cond, dest string, d region.Domain) (Rule, error) {
	dest = strings.TrimSpace(dest)
	if !identRe.MatchString(dest) {
		return nil, fmt.Errorf("invalid destination %q", dest)
	}

	cond = strings.TrimSpace(cond)
	at := strings.IndexAny(cond, "<>")
	if at <= 0 || strings.IndexAny(cond[at+1:], "<>") >= 0 {
		return nil, fmt.Errorf("invalid condition %q (expected attribute<n or attribute>n)", cond)
	}

	name := strings.TrimSpace(cond[:at])
	attr, ok := d.Index(name)
	if !ok {
		return nil, fmt.Errorf("unknown attribute %q", name)
	}

	threshold, err := strconv.ParseInt(strings.TrimSpace(cond[at+1:]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid threshold in %q: %w", cond, err)
	}

	return Conditional{
		Attr:      attr,
		Name:      name,
		Op:        region.Comparator(cond[at]),
		Threshold: threshold,
		Dest:      dest,
	}, nil
}

// ParseRecord reads one "{x=787,m=2655,a=1222,s=2876}" line.
func ParseRecord(line string, d region.Domain) (Record, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
		return nil, fmt.Errorf("invalid record %q (expected {k=v,...})", line)
	}

	values := make(map[string]int64, d.Len())
	for _, part := range strings.Split(line[1:len(line)-1], ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid assignment %q (expected key=value)", part)
		}
		k = strings.TrimSpace(k)
		if _, dup := values[k]; dup {
			return nil, fmt.Errorf("duplicate attribute %q in record", k)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %q: %w", k, err)
		}
		values[k] = n
	}
	return RecordFromMap(d, values)
}

// ParseInput reads workflow lines, an empty line, then record lines. The
// record section is optional.
func ParseInput(text string, d region.Domain) ([]*Workflow, []Record, error) {
	var workflows []*Workflow
	var records []Record
	inRecords := false

	for n, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(workflows) > 0 {
				inRecords = true
			}
			continue
		}
		if inRecords || strings.HasPrefix(line, "{") {
			inRecords = true
			rec, err := ParseRecord(line, d)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", n+1, err)
			}
			records = append(records, rec)
			continue
		}
		w, err := ParseWorkflow(line, d)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", n+1, err)
		}
		workflows = append(workflows, w)
	}
	return workflows, records, nil
}
