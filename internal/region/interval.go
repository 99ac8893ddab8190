package region

import (
	"fmt"
	"math/big"
)

// Interval is the half-open integer range [Lo, Hi).
type Interval struct {
	Lo int64
	Hi int64
}

// Width is Hi-Lo, or zero when empty. Bounds may span the whole int64
// range, so the difference is taken in big.Int.
func (i Interval) Width() *big.Int {
	if i.Hi <= i.Lo {
		return new(big.Int)
	}
	return new(big.Int).Sub(big.NewInt(i.Hi), big.NewInt(i.Lo))
}

func (i Interval) Empty() bool { return i.Hi <= i.Lo }

func (i Interval) Overlaps(o Interval) bool {
	return !i.Empty() && !o.Empty() && i.Lo < o.Hi && o.Lo < i.Hi
}

func (i Interval) Contains(o Interval) bool {
	return o.Empty() || (i.Lo <= o.Lo && o.Hi <= i.Hi)
}

// Intersect returns the common part of i and o, which may be empty.
func (i Interval) Intersect(o Interval) Interval {
	return Interval{Lo: max(i.Lo, o.Lo), Hi: min(i.Hi, o.Hi)}
}

// Minus returns the pieces of i lying outside o: none when o covers i,
// one when the overlap touches a boundary of i, two when it is interior.
func (i Interval) Minus(o Interval) []Interval {
	if !i.Overlaps(o) {
		if i.Empty() {
			return nil
		}
		return []Interval{i}
	}
	var out []Interval
	if i.Lo < o.Lo {
		out = append(out, Interval{Lo: i.Lo, Hi: o.Lo})
	}
	if o.Hi < i.Hi {
		out = append(out, Interval{Lo: o.Hi, Hi: i.Hi})
	}
	return out
}

func (i Interval) String() string {
	return fmt.Sprintf("[%d,%d)", i.Lo, i.Hi)
}
