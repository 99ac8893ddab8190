package region

import (
	"math"
	"math/big"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func iv(lo, hi int64) Interval { return Interval{Lo: lo, Hi: hi} }

func signedSum(regions []Region) *big.Int {
	total := new(big.Int)
	for _, r := range regions {
		total.Add(total, r.Volume())
	}
	return total
}

func TestNew_DropsEmptyIntervals(t *testing.T) {
	_, ok := New(iv(0, 2), iv(3, 3))
	require.False(t, ok)

	_, ok = New()
	require.False(t, ok)

	r, ok := New(iv(0, 2), iv(0, 3))
	require.True(t, ok)
	require.Equal(t, int64(6), r.Volume().Int64())
}

func TestVolume_ZeroForEmptyInterval(t *testing.T) {
	r := Region{bounds: []Interval{iv(0, 10), iv(5, 5)}}
	require.Zero(t, r.Volume().Sign())
}

func TestVolume_HonoursSign(t *testing.T) {
	r := Must(iv(0, 2), iv(0, 2))
	require.Equal(t, int64(4), r.Volume().Int64())
	require.Equal(t, int64(-4), r.Negate().Volume().Int64())
	require.Equal(t, int64(4), r.Negate().Magnitude().Int64())
}

func TestVolume_DoesNotOverflowNativeIntegers(t *testing.T) {
	huge := iv(0, 1<<40)
	r := Must(huge, huge, huge, huge)

	want := new(big.Int).Lsh(big.NewInt(1), 160)
	require.Equal(t, 0, want.Cmp(r.Volume()))
}

func TestVolume_WidthBeyondInt64(t *testing.T) {
	r := Must(iv(-5e18, 5e18))
	want, _ := new(big.Int).SetString("10000000000000000000", 10)
	require.Equal(t, 0, want.Cmp(r.Volume()))
	require.Equal(t, 0, new(big.Int).Neg(want).Cmp(r.Negate().Volume()))

	d, err := NewDomain(Attribute{Name: "x", Bounds: iv(math.MinInt64, math.MaxInt64)})
	require.NoError(t, err)
	full := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(1))
	require.Equal(t, 0, full.Cmp(d.Full().Volume()))

	a := Must(iv(math.MinInt64, math.MaxInt64))
	frags := a.Subtract(Must(iv(-1, 1)))
	require.Len(t, frags, 2)
	want = new(big.Int).Sub(full, big.NewInt(2))
	require.Equal(t, 0, want.Cmp(signedSum(frags)))
}

func TestOverlaps(t *testing.T) {
	a := Must(iv(0, 2), iv(0, 2))
	require.True(t, a.Overlaps(Must(iv(1, 3), iv(1, 3))))
	require.False(t, a.Overlaps(Must(iv(2, 4), iv(0, 2))), "touching boundaries share no points")
	require.False(t, a.Overlaps(Must(iv(0, 2), iv(5, 6))), "every axis must overlap")
	require.False(t, a.Overlaps(Must(iv(0, 2))), "dimension mismatch")
}

func TestSplitOn(t *testing.T) {
	r := Must(iv(1, 4001), iv(1, 11))

	tests := []struct {
		name      string
		cmp       Comparator
		threshold int64
		matched   *Interval
		remainder *Interval
	}{
		{name: "less_inside", cmp: Less, threshold: 2006, matched: &Interval{1, 2006}, remainder: &Interval{2006, 4001}},
		{name: "greater_inside", cmp: Greater, threshold: 2090, matched: &Interval{2091, 4001}, remainder: &Interval{1, 2091}},
		{name: "less_below_range", cmp: Less, threshold: 1, remainder: &Interval{1, 4001}},
		{name: "less_above_range", cmp: Less, threshold: 5000, matched: &Interval{1, 4001}},
		{name: "greater_at_top", cmp: Greater, threshold: 4000, remainder: &Interval{1, 4001}},
		{name: "greater_below_range", cmp: Greater, threshold: 0, matched: &Interval{1, 4001}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			matched, remainder := r.SplitOn(0, tc.cmp, tc.threshold)
			if tc.matched == nil {
				require.Nil(t, matched)
			} else {
				require.NotNil(t, matched)
				require.Equal(t, *tc.matched, matched.Bound(0))
				require.Equal(t, r.Bound(1), matched.Bound(1))
			}
			if tc.remainder == nil {
				require.Nil(t, remainder)
			} else {
				require.NotNil(t, remainder)
				require.Equal(t, *tc.remainder, remainder.Bound(0))
			}

			sum := new(big.Int)
			for _, p := range []*Region{matched, remainder} {
				if p != nil {
					sum.Add(sum, p.Volume())
				}
			}
			require.Equal(t, 0, sum.Cmp(r.Volume()), "split must conserve volume")
		})
	}
}

func TestSplitOn_DoesNotMutateReceiver(t *testing.T) {
	r := Must(iv(0, 10))
	_, _ = r.SplitOn(0, Less, 5)
	require.Equal(t, iv(0, 10), r.Bound(0))
}

func TestSubtract_SelfAnnihilates(t *testing.T) {
	r := Must(iv(0, 5), iv(2, 9), iv(1, 3), iv(7, 8))
	require.Empty(t, r.Subtract(r))
}

func TestSubtract_DisjointReturnsReceiver(t *testing.T) {
	a := Must(iv(0, 2), iv(0, 2))
	b := Must(iv(5, 7), iv(0, 2))

	got := a.Subtract(b)
	require.Len(t, got, 1)
	require.True(t, got[0].Equal(a))

	neg := a.Negate().Subtract(b)
	require.Len(t, neg, 1)
	require.Equal(t, -1, neg[0].Sign())
}

func TestSubtract_FullContainmentIsEmpty(t *testing.T) {
	a := Must(iv(2, 4), iv(2, 4))
	b := Must(iv(0, 10), iv(0, 10))
	require.Empty(t, a.Subtract(b))
}

func TestSubtract_OverlapByOneCell(t *testing.T) {
	a := Must(iv(0, 2), iv(0, 2))
	b := Must(iv(1, 3), iv(1, 3))

	frags := a.Subtract(b)
	require.Equal(t, int64(3), signedSum(frags).Int64())

	inter, ok := a.Intersect(b)
	require.True(t, ok)
	require.Equal(t, int64(1), inter.Volume().Int64())
}

func TestSubtract_InteriorHoleUsesAtMostAllCombinations(t *testing.T) {
	a := Must(iv(0, 9), iv(0, 9), iv(0, 9))
	b := Must(iv(3, 6), iv(3, 6), iv(3, 6))

	frags := a.Subtract(b)
	// 3 candidates per axis: 3^3 - 1 combinations.
	require.Len(t, frags, 26)
	require.Equal(t, int64(9*9*9-3*3*3), signedSum(frags).Int64())
	require.Equal(t, 1, frags[0].Sign(), "single-outside fragments lead")
}

func TestSubtract_FragmentsLieOutsideSubtrahend(t *testing.T) {
	a := Must(iv(0, 6), iv(0, 6))
	b := Must(iv(2, 4), iv(1, 9))

	for _, f := range a.Subtract(b) {
		require.False(t, f.Overlaps(b), "fragment %s overlaps %s", f, b)
		require.True(t, a.Contains(f))
	}
}

func randomRegion(rng *rand.Rand, dims int, span int64) Region {
	bounds := make([]Interval, dims)
	for i := range bounds {
		lo := rng.Int64N(span)
		hi := lo + 1 + rng.Int64N(span-lo)
		bounds[i] = iv(lo, hi)
	}
	return Must(bounds...)
}

func TestSubtract_ConservesSignedVolumeOnRandomBoxes(t *testing.T) {
	rng := rand.New(rand.NewPCG(19, 2023))

	for range 500 {
		dims := 1 + rng.IntN(4)
		a := randomRegion(rng, dims, 12)
		b := randomRegion(rng, dims, 12)
		if rng.IntN(2) == 0 {
			a = a.Negate()
		}

		want := a.Volume()
		if inter, ok := a.Intersect(b); ok {
			want.Sub(want, inter.Volume())
		}
		require.Equal(t, 0, want.Cmp(signedSum(a.Subtract(b))), "a=%s b=%s", a, b)
	}
}

func TestDomain(t *testing.T) {
	d := DefaultDomain()
	require.Equal(t, []string{"x", "m", "a", "s"}, d.Names())

	i, ok := d.Index("a")
	require.True(t, ok)
	require.Equal(t, 2, i)

	require.Equal(t, "256000000000000", d.Full().Volume().String())
	require.Equal(t, "+{x:[1,4001) m:[1,4001) a:[1,4001) s:[1,4001)}", d.Format(d.Full()))
}

func TestNewDomain_Rejects(t *testing.T) {
	_, err := NewDomain()
	require.ErrorIs(t, err, ErrEmptyDomain)

	_, err = NewDomain(Attribute{Name: "x", Bounds: iv(0, 1)}, Attribute{Name: "x", Bounds: iv(0, 1)})
	require.ErrorContains(t, err, "duplicate")

	_, err = NewDomain(Attribute{Name: "x", Bounds: iv(3, 3)})
	require.ErrorContains(t, err, "empty bounds")
}
