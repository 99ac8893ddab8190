// Package union measures the exact number of points covered by a list of
// possibly overlapping regions.
package union

import (
	"context"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/awmpietro/golang-workflow-volume/internal/region"
)

// Set is a list of pairwise-disjoint positive regions.
type Set struct {
	regions []region.Region
}

func (s *Set) Regions() []region.Region { return append([]region.Region(nil), s.regions...) }

func (s *Set) Len() int { return len(s.regions) }

func (s *Set) Volume() *big.Int {
	total := new(big.Int)
	for _, r := range s.regions {
		total.Add(total, r.Volume())
	}
	return total
}

// Add folds candidates into the set. Each candidate is subtracted from every
// member; fragments beyond the first are queued and checked against the whole
// set on their own. The queue is LIFO and fragments come ordered from
// region.Subtract, so the positive pieces covering a correction are settled
// before the correction is looked at, which then always dissolves.
func (s *Set) Add(candidates ...region.Region) {
	queue := make([]region.Region, 0, len(candidates))
	for i := len(candidates) - 1; i >= 0; i-- {
		c := candidates[i]
		if c.Empty() {
			continue
		}
		queue = append(queue, c.Positive())
	}

	for len(queue) > 0 {
		c := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		consumed := false
		for _, r := range s.regions {
			if !c.Overlaps(r) {
				continue
			}
			frags := c.Subtract(r)
			if len(frags) == 0 {
				consumed = true
				break
			}
			for i := len(frags) - 1; i >= 1; i-- {
				queue = append(queue, frags[i])
			}
			c = frags[0]
		}
		if !consumed {
			s.regions = append(s.regions, c)
		}
	}
}

// Aggregate returns the union volume of regions, each point counted once.
func Aggregate(regions []region.Region) *big.Int {
	var s Set
	s.Add(regions...)
	return s.Volume()
}

// Merge combines two deduplicated sets. Neither input is modified.
func Merge(a, b *Set) *Set {
	out := &Set{regions: a.Regions()}
	out.Add(b.regions...)
	return out
}

// AggregateParallel deduplicates up to parts partitions concurrently and
// folds them with Merge. The result equals Aggregate(regions).
func AggregateParallel(ctx context.Context, regions []region.Region, parts int) (*big.Int, error) {
	if parts <= 1 || len(regions) < 2*parts {
		return Aggregate(regions), nil
	}

	sets := make([]*Set, parts)
	g, ctx := errgroup.WithContext(ctx)
	chunk := (len(regions) + parts - 1) / parts
	for i := range parts {
		lo := min(i*chunk, len(regions))
		hi := min(lo+chunk, len(regions))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s := &Set{}
			s.Add(regions[lo:hi]...)
			sets[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	acc := sets[0]
	for _, s := range sets[1:] {
		acc = Merge(acc, s)
	}
	return acc.Volume(), nil
}
