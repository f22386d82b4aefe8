// Package shard splits the name sorted records of a store into contiguous
// rank ranges, one per BLAST database shard.
package shard

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrEmpty is returned when partitioning a store without records
	ErrEmpty = errors.New("no records to partition")
)

// Range is the half-open span of ranks [Start, Start+Count).
type Range struct {
	Count int
	Start int
}

// End is the rank after the last one in the Range.
func (r Range) End() int {
	return r.Start + r.Count
}

// Empty returns whether there are no ranks in the Range.
func (r Range) Empty() bool {
	return r.Count == 0
}

// String is for logging.
func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End())
}

// Ranker is a name sorted record set with fixed ranks, like *store.Store.
type Ranker interface {
	Count(ctx context.Context) (int, error)
	NameAtRank(ctx context.Context, rank int) (string, error)
}

// Partition returns n ranges over the records of r. They're sorted,
// contiguous, cover every rank exactly once and never split a run of records
// with the same name. Ranges may be empty if n exceeds the record count or
// if a long run of one name spans a would-be cut.
func Partition(ctx context.Context, r Ranker, n int) ([]Range, error) {
	if n < 1 {
		return nil, errors.Errorf("shard count must be at least 1, got %d", n)
	}

	total, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, ErrEmpty
	}

	cuts := make([]int, n+1)
	cuts[n] = total // past every name, the last shard takes the tail
	for i := 1; i < n; i++ {
		cut := int(int64(i) * int64(total) / int64(n))
		if cut < cuts[i-1] {
			cut = cuts[i-1]
		}

		if cut, err = advance(ctx, r, cut, total); err != nil {
			return nil, errors.Wrapf(err, "failed to place the cut for shard %d", i+1)
		}
		cuts[i] = cut
	}

	ranges := make([]Range, n)
	for i := range ranges {
		ranges[i] = Range{Start: cuts[i], Count: cuts[i+1] - cuts[i]}
	}
	return ranges, nil
}

// advance moves a cut forward until the records on either side of it have
// different names.
func advance(ctx context.Context, r Ranker, cut, total int) (int, error) {
	if cut <= 0 || cut >= total {
		return cut, nil
	}

	prev, err := r.NameAtRank(ctx, cut-1)
	if err != nil {
		return 0, err
	}

	for ; cut < total; cut++ {
		name, err := r.NameAtRank(ctx, cut)
		if err != nil {
			return 0, err
		}
		if name != prev {
			break
		}
	}
	return cut, nil
}
