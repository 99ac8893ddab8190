package region

import (
	"math"
	"math/big"
	"strings"
)

type Comparator byte

const (
	Less    Comparator = '<'
	Greater Comparator = '>'
)

func (c Comparator) Valid() bool { return c == Less || c == Greater }

// Holds reports whether v satisfies "v c threshold".
func (c Comparator) Holds(v, threshold int64) bool {
	switch c {
	case Less:
		return v < threshold
	case Greater:
		return v > threshold
	}
	return false
}

func (c Comparator) String() string { return string(c) }

// Region is an axis-aligned box in integer space, one half-open interval per
// attribute, carrying a sign so that sums of signed volumes can express set
// differences. Regions are values; no operation mutates its receiver.
type Region struct {
	bounds []Interval
	neg    bool
}

// New builds a positive region. ok is false when no bounds are given or any
// interval is empty: such regions carry no points and are never created.
func New(bounds ...Interval) (r Region, ok bool) {
	if len(bounds) == 0 {
		return Region{}, false
	}
	for _, b := range bounds {
		if b.Empty() {
			return Region{}, false
		}
	}
	return Region{bounds: append([]Interval(nil), bounds...)}, true
}

// Must is New for literals known to be non-empty.
func Must(bounds ...Interval) Region {
	r, ok := New(bounds...)
	if !ok {
		panic("region: empty bounds")
	}
	return r
}

func (r Region) Dims() int { return len(r.bounds) }

func (r Region) Bound(attr int) Interval { return r.bounds[attr] }

// Bounds returns a copy of the per-attribute intervals.
func (r Region) Bounds() []Interval { return append([]Interval(nil), r.bounds...) }

func (r Region) Sign() int {
	if r.neg {
		return -1
	}
	return 1
}

func (r Region) Negate() Region {
	return Region{bounds: r.bounds, neg: !r.neg}
}

// Positive returns r with sign +1.
func (r Region) Positive() Region {
	return Region{bounds: r.bounds}
}

func (r Region) Empty() bool {
	if len(r.bounds) == 0 {
		return true
	}
	for _, b := range r.bounds {
		if b.Empty() {
			return true
		}
	}
	return false
}

// Magnitude is the number of integer points in r, ignoring the sign.
func (r Region) Magnitude() *big.Int {
	if r.Empty() {
		return new(big.Int)
	}
	v := big.NewInt(1)
	for _, b := range r.bounds {
		v.Mul(v, b.Width())
	}
	return v
}

// Volume is the signed point count: Sign() * Magnitude().
func (r Region) Volume() *big.Int {
	v := r.Magnitude()
	if r.neg {
		v.Neg(v)
	}
	return v
}

func (r Region) Overlaps(o Region) bool {
	if len(r.bounds) == 0 || len(r.bounds) != len(o.bounds) {
		return false
	}
	for i, b := range r.bounds {
		if !b.Overlaps(o.bounds[i]) {
			return false
		}
	}
	return true
}

// Contains reports whether every point of o is a point of r. Signs are ignored.
func (r Region) Contains(o Region) bool {
	if len(r.bounds) != len(o.bounds) {
		return false
	}
	for i, b := range r.bounds {
		if !b.Contains(o.bounds[i]) {
			return false
		}
	}
	return true
}

// Intersect returns the common box of r and o with r's sign.
func (r Region) Intersect(o Region) (Region, bool) {
	if !r.Overlaps(o) {
		return Region{}, false
	}
	bounds := make([]Interval, len(r.bounds))
	for i, b := range r.bounds {
		bounds[i] = b.Intersect(o.bounds[i])
	}
	return Region{bounds: bounds, neg: r.neg}, true
}

// SplitOn partitions r along attr into the part satisfying "attr cmp threshold"
// and the rest. A side is nil when it would hold no points.
func (r Region) SplitOn(attr int, cmp Comparator, threshold int64) (matched, remainder *Region) {
	b := r.bounds[attr]
	var in, out Interval
	switch cmp {
	case Less:
		in = Interval{Lo: b.Lo, Hi: min(b.Hi, threshold)}
		out = Interval{Lo: max(b.Lo, threshold), Hi: b.Hi}
	case Greater:
		if threshold == math.MaxInt64 {
			return nil, &r
		}
		in = Interval{Lo: max(b.Lo, threshold+1), Hi: b.Hi}
		out = Interval{Lo: b.Lo, Hi: min(b.Hi, threshold+1)}
	default:
		return nil, &r
	}
	return r.withBound(attr, in), r.withBound(attr, out)
}

func (r Region) withBound(attr int, b Interval) *Region {
	if b.Empty() {
		return nil
	}
	bounds := r.Bounds()
	bounds[attr] = b
	return &Region{bounds: bounds, neg: r.neg}
}

// Subtract returns a signed decomposition of r minus o: the signed volumes of
// the fragments sum to Volume(r) - Volume(r ∩ o) under r's sign.
//
// Each attribute contributes r's own interval plus the pieces of it outside
// o. Every combination other than "all own intervals" becomes a fragment
// whose sign is + for an odd number of outside pieces and - for an even one.
// Fragments are ordered by that count, so the leading ones (single outside
// piece, positive) cover every later correction.
func (r Region) Subtract(o Region) []Region {
	if !r.Overlaps(o) {
		return []Region{r}
	}

	n := len(r.bounds)
	candidates := make([][]Interval, n)
	for i, b := range r.bounds {
		candidates[i] = append([]Interval{b}, b.Minus(o.bounds[i])...)
	}

	byOutside := make([][]Region, n+1)
	idx := make([]int, n)
	for {
		i := 0
		for ; i < n; i++ {
			idx[i]++
			if idx[i] < len(candidates[i]) {
				break
			}
			idx[i] = 0
		}
		if i == n {
			break
		}

		k := 0
		bounds := make([]Interval, n)
		for j, c := range idx {
			bounds[j] = candidates[j][c]
			if c > 0 {
				k++
			}
		}
		frag := Region{bounds: bounds, neg: (k%2 == 0) != r.neg}
		if frag.Empty() {
			continue
		}
		byOutside[k] = append(byOutside[k], frag)
	}

	var out []Region
	for _, frags := range byOutside {
		out = append(out, frags...)
	}
	return out
}

// Equal is structural equality, sign included.
func (r Region) Equal(o Region) bool {
	if r.neg != o.neg || len(r.bounds) != len(o.bounds) {
		return false
	}
	for i, b := range r.bounds {
		if b != o.bounds[i] {
			return false
		}
	}
	return true
}

// Key is a stable textual identity usable as a map key.
func (r Region) Key() string { return r.String() }

func (r Region) String() string {
	var b strings.Builder
	if r.neg {
		b.WriteByte('-')
	} else {
		b.WriteByte('+')
	}
	b.WriteByte('{')
	for i, iv := range r.bounds {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(iv.String())
	}
	b.WriteByte('}')
	return b.String()
}
