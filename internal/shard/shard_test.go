package shard

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// names is a Ranker over a sorted slice of names.
type names []string

func (n names) Count(context.Context) (int, error) {
	return len(n), nil
}

func (n names) NameAtRank(_ context.Context, rank int) (string, error) {
	if rank < 0 || rank >= len(n) {
		return "", fmt.Errorf("rank %d out of range", rank)
	}
	return n[rank], nil
}

// checkRanges asserts the ranges tile [0, len(ns)) and keep names together.
func checkRanges(t *testing.T, ns names, n int, ranges []Range) {
	t.Helper()

	require.Len(t, ranges, n)

	next := 0
	for i, r := range ranges {
		require.Equal(t, next, r.Start, "range %d %v isn't contiguous", i, r)
		require.GreaterOrEqual(t, r.Count, 0)
		next = r.End()
	}
	require.Equal(t, len(ns), next, "ranges don't cover every rank")

	shardOf := make(map[string]int)
	for i, r := range ranges {
		for rank := r.Start; rank < r.End(); rank++ {
			if s, seen := shardOf[ns[rank]]; seen && s != i {
				t.Fatalf("%s split between shards %d and %d", ns[rank], s, i)
			}
			shardOf[ns[rank]] = i
		}
	}
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name  string
		names names
		n     int
		want  []Range
	}{
		{
			"mates stay together",
			names{"a", "a", "b"},
			2,
			[]Range{{Count: 2, Start: 0}, {Count: 1, Start: 2}},
		},
		{
			"one shard",
			names{"a", "b", "c"},
			1,
			[]Range{{Count: 3, Start: 0}},
		},
		{
			"singletons",
			names{"a", "b", "c", "d"},
			4,
			[]Range{{1, 0}, {1, 1}, {1, 2}, {1, 3}},
		},
		{
			"more shards than records",
			names{"a", "b"},
			4,
			[]Range{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		},
		{
			"a run swallows a cut",
			names{"a", "b", "b", "b", "b", "c"},
			3,
			[]Range{{Count: 5, Start: 0}, {Count: 0, Start: 5}, {Count: 1, Start: 5}},
		},
		{
			"one name everywhere",
			names{"a", "a", "a", "a"},
			2,
			[]Range{{Count: 4, Start: 0}, {Count: 0, Start: 4}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Partition(context.Background(), tt.names, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			checkRanges(t, tt.names, tt.n, got)
		})
	}
}

func TestPartition_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		total := 1 + rng.Intn(60)
		var ns names
		for len(ns) < total {
			name := fmt.Sprintf("read%03d", rng.Intn(40))
			for dup := rng.Intn(3); dup >= 0 && len(ns) < total; dup-- {
				ns = append(ns, name)
			}
		}
		sort.Strings(ns)

		n := 1 + rng.Intn(total+5)
		ranges, err := Partition(context.Background(), ns, n)
		require.NoError(t, err, "trial %d", trial)
		checkRanges(t, ns, n, ranges)

		// same input, same membership
		again, err := Partition(context.Background(), ns, n)
		require.NoError(t, err)
		assert.Equal(t, ranges, again)
	}
}

func TestPartition_Errors(t *testing.T) {
	_, err := Partition(context.Background(), names{}, 2)
	assert.True(t, errors.Is(err, ErrEmpty))

	_, err = Partition(context.Background(), names{"a"}, 0)
	assert.Error(t, err)
}

func TestCountFor(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, size int) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
		return path
	}

	fa := write("a.fasta", 1000)
	fq := write("b.fastq", 1000)
	gz := write("c.fa.gz", 100)

	n, err := CountFor([]string{fa}, 250)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = CountFor([]string{fq}, 250)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = CountFor([]string{gz}, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = CountFor([]string{fa}, 1<<30)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = CountFor([]string{filepath.Join(dir, "missing.fa")}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.fa")
}
