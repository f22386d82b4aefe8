package blast

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jjtimmons/sraprep/internal/seq"
	"github.com/jjtimmons/sraprep/internal/shard"
	"github.com/jjtimmons/sraprep/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// copyStub copies the -in FASTA to <-out>.fa so tests can check what a shard held.
const copyStub = `#!/bin/sh
in=""
out=""
while [ $# -gt 0 ]; do
	case "$1" in
		-in) in="$2"; shift ;;
		-out) out="$2"; shift ;;
	esac
	shift
done
case "$out" in
	*.002.blast) echo "BLAST Database creation error: shard two" >&2; exit 3 ;;
esac
cp "$in" "$out.fa"
`

const failStub = `#!/bin/sh
echo "always fails" >&2
exit 1
`

// stub writes an executable shell script standing in for makeblastdb.
func stub(t *testing.T, dir, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub makeblastdb is a shell script")
	}

	path := filepath.Join(dir, "makeblastdb")
	require.NoError(t, os.WriteFile(path, []byte(body), 0755))
	return path
}

type recordSlice []seq.Record

func (r *recordSlice) Read() (seq.Record, error) {
	if len(*r) == 0 {
		return seq.Record{}, io.EOF
	}
	rec := (*r)[0]
	*r = (*r)[1:]
	return rec, nil
}

// indexedStore makes a closed, indexed store of the records and returns its path.
func indexedStore(t *testing.T, dir string, recs []seq.Record) string {
	t.Helper()
	ctx := context.Background()

	s, err := store.Create(ctx, filepath.Join(dir, store.Path("reads")))
	require.NoError(t, err)
	rs := recordSlice(recs)
	_, err = s.Load(ctx, &rs, 2)
	require.NoError(t, err)
	require.NoError(t, s.Index(ctx))
	require.NoError(t, s.Close())

	return s.Path()
}

func testRecords() []seq.Record {
	return []seq.Record{
		{Name: "a", End: seq.One, Seq: "ACGT"},
		{Name: "a", End: seq.Two, Seq: "TTTT"},
		{Name: "b", Seq: "GGGG"},
		{Name: "c", Seq: "CCCC"},
		{Name: "d", End: seq.One, Seq: "AAAA"},
	}
}

func TestBuilder_Build(t *testing.T) {
	dir := t.TempDir()
	tmp := filepath.Join(dir, "tmp")
	require.NoError(t, os.Mkdir(tmp, 0755))

	b := &Builder{
		StorePath:   indexedStore(t, dir, testRecords()),
		TempDir:     tmp,
		Prefix:      filepath.Join(dir, "atram"),
		Makeblastdb: stub(t, dir, copyStub),
		Workers:     2,
		Log:         log.New(io.Discard, "", 0),
	}

	ranges := []shard.Range{{Count: 2, Start: 0}, {Count: 1, Start: 2}, {Count: 0, Start: 3}, {Count: 2, Start: 3}}
	results := b.Build(context.Background(), ranges)
	require.Len(t, results, 4)

	// shard 1 holds both mates
	assert.NoError(t, results[0].Err)
	assert.Equal(t, 2, results[0].Records)
	got, err := os.ReadFile(ShardName(b.Prefix, 1) + ".fa")
	require.NoError(t, err)
	assert.Equal(t, ">a/1\nACGT\n>a/2\nTTTT\n", string(got))
	assert.NoFileExists(t, results[0].FASTA, "successful exports are removed")

	// shard 2 failed, its export is kept and it doesn't touch its siblings
	require.Error(t, results[1].Err)
	assert.Contains(t, results[1].Err.Error(), "shard 002")
	assert.Contains(t, results[1].Err.Error(), "shard two")
	assert.FileExists(t, results[1].FASTA)

	// empty ranges are skipped
	assert.True(t, results[2].Skipped)
	assert.NoError(t, results[2].Err)

	assert.NoError(t, results[3].Err)
	got, err = os.ReadFile(ShardName(b.Prefix, 4) + ".fa")
	require.NoError(t, err)
	assert.Equal(t, ">c\nCCCC\n>d/1\nAAAA\n", string(got))

	assert.Equal(t, []int{2}, Failed(results))
	assert.Error(t, Err(results))
}

func TestBuilder_AllFail(t *testing.T) {
	dir := t.TempDir()

	b := &Builder{
		StorePath:   indexedStore(t, dir, testRecords()),
		TempDir:     dir,
		Prefix:      filepath.Join(dir, "atram"),
		Makeblastdb: stub(t, dir, failStub),
		Workers:     3,
		Log:         log.New(io.Discard, "", 0),
	}

	results := b.Build(context.Background(), []shard.Range{{Count: 3, Start: 0}, {Count: 1, Start: 3}, {Count: 1, Start: 4}})

	// every shard ran and is reported, not just the first failure
	assert.Equal(t, []int{1, 2, 3}, Failed(results))
	err := Err(results)
	require.Error(t, err)
	for _, name := range []string{"shard 001", "shard 002", "shard 003"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestBuilder_MissingStore(t *testing.T) {
	dir := t.TempDir()

	b := &Builder{
		StorePath:   filepath.Join(dir, "missing.sqlite.db"),
		TempDir:     dir,
		Prefix:      filepath.Join(dir, "atram"),
		Makeblastdb: "makeblastdb",
		Log:         log.New(io.Discard, "", 0),
	}

	results := b.Build(context.Background(), []shard.Range{{Count: 1, Start: 0}})
	require.Error(t, results[0].Err)
	assert.Contains(t, results[0].Err.Error(), "shard 001")
}

func TestShardName(t *testing.T) {
	assert.Equal(t, "db/atram.007.blast", ShardName("db/atram", 7))
	assert.Equal(t, "atram.120.blast", ShardName("atram", 120))
}

func TestLookPath(t *testing.T) {
	dir := t.TempDir()
	exe := stub(t, dir, failStub)

	got, err := LookPath("makeblastdb", dir)
	require.NoError(t, err)
	assert.Equal(t, exe, got)

	_, err = LookPath("makeblastdb", filepath.Join(dir, "nowhere"))
	assert.Error(t, err)
}
