package region

import (
	"errors"
	"fmt"
	"strings"
)

type Attribute struct {
	Name   string
	Bounds Interval
}

// Domain is the ordered set of attributes a region spans. Attribute i of a
// region built from a domain is the interval at index i.
type Domain struct {
	attrs []Attribute
	index map[string]int
}

var ErrEmptyDomain = errors.New("domain has no attributes")

func NewDomain(attrs ...Attribute) (Domain, error) {
	if len(attrs) == 0 {
		return Domain{}, ErrEmptyDomain
	}
	d := Domain{
		attrs: append([]Attribute(nil), attrs...),
		index: make(map[string]int, len(attrs)),
	}
	for i, a := range attrs {
		if strings.TrimSpace(a.Name) == "" {
			return Domain{}, fmt.Errorf("attribute %d has empty name", i)
		}
		if _, dup := d.index[a.Name]; dup {
			return Domain{}, fmt.Errorf("duplicate attribute %q", a.Name)
		}
		if a.Bounds.Empty() {
			return Domain{}, fmt.Errorf("attribute %q has empty bounds %s", a.Name, a.Bounds)
		}
		d.index[a.Name] = i
	}
	return d, nil
}

// DefaultDomain is x, m, a, s each spanning [1, 4001).
func DefaultDomain() Domain {
	full := Interval{Lo: 1, Hi: 4001}
	d, _ := NewDomain(
		Attribute{Name: "x", Bounds: full},
		Attribute{Name: "m", Bounds: full},
		Attribute{Name: "a", Bounds: full},
		Attribute{Name: "s", Bounds: full},
	)
	return d
}

func (d Domain) Len() int { return len(d.attrs) }

func (d Domain) Attribute(i int) Attribute { return d.attrs[i] }

func (d Domain) Index(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

func (d Domain) Names() []string {
	out := make([]string, len(d.attrs))
	for i, a := range d.attrs {
		out[i] = a.Name
	}
	return out
}

// Full is the region covering every attribute's entire bounds.
func (d Domain) Full() Region {
	bounds := make([]Interval, len(d.attrs))
	for i, a := range d.attrs {
		bounds[i] = a.Bounds
	}
	r, _ := New(bounds...)
	return r
}

// Format renders r with attribute names, e.g. +{x:[1,4001) m:[1,839)}.
func (d Domain) Format(r Region) string {
	if r.Dims() != d.Len() {
		return r.String()
	}
	var b strings.Builder
	if r.Sign() < 0 {
		b.WriteByte('-')
	} else {
		b.WriteByte('+')
	}
	b.WriteByte('{')
	for i, a := range d.attrs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(a.Name)
		b.WriteByte(':')
		b.WriteString(r.Bound(i).String())
	}
	b.WriteByte('}')
	return b.String()
}

// Fingerprint identifies the domain's shape for cache keys.
func (d Domain) Fingerprint() string {
	var b strings.Builder
	for i, a := range d.attrs {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s%s", a.Name, a.Bounds)
	}
	return b.String()
}
