// Package blast builds BLAST nucleotide databases from shards of a sequence
// store by handing FASTA exports to the makeblastdb program.
package blast

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jjtimmons/sraprep/internal/seq"
	"github.com/jjtimmons/sraprep/internal/shard"
	"github.com/jjtimmons/sraprep/internal/store"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

var (
	// stderr is for logging to Stderr (without an annoying timestamp)
	stderr = log.New(os.Stderr, "", 0)
)

// Builder makes one BLAST database per shard range, running up to Workers
// makeblastdb processes at once.
type Builder struct {
	// StorePath is the indexed store the shards are read from
	StorePath string

	// TempDir holds the FASTA exports handed to makeblastdb
	TempDir string

	// Prefix of every shard's BLAST database, eg "atram_db" -> "atram_db.001.blast"
	Prefix string

	// Makeblastdb is the path to the makeblastdb executable
	Makeblastdb string

	// Workers is the most shards built at once
	Workers int

	// Log is where progress is written. Defaults to stderr
	Log *log.Logger
}

// Result is the outcome of building one shard.
type Result struct {
	// Shard is the 1-based index of the shard
	Shard int

	// Range of store ranks in the shard
	Range shard.Range

	// DB is the BLAST database name passed to makeblastdb
	DB string

	// FASTA is the export path. It's removed after a successful build
	FASTA string

	// Records written to the export
	Records int

	// Skipped is set for empty ranges, nothing is built for them
	Skipped bool

	// Err is why the shard failed, nil if it didn't
	Err error
}

// ShardName is the BLAST database name of the i-th (1-based) shard.
func ShardName(prefix string, i int) string {
	return fmt.Sprintf("%s.%03d.blast", prefix, i)
}

// LookPath finds the makeblastdb executable, name, in dir or, if dir is
// empty, on $PATH.
func LookPath(name, dir string) (string, error) {
	if dir != "" && !strings.ContainsRune(name, os.PathSeparator) {
		name = filepath.Join(dir, name)
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", errors.Wrapf(err, "failed to find %s, is BLAST+ installed?", name)
	}
	return path, nil
}

// Build makes a BLAST database for every range. It waits for every shard
// to finish, failed or not, and returns their results in range order.
func (b *Builder) Build(ctx context.Context, ranges []shard.Range) []Result {
	workers := b.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(ranges))

	// shards never return errors to the group so a failure doesn't stop its siblings
	var g errgroup.Group
	g.SetLimit(workers)
	for i, r := range ranges {
		i, r := i, r
		g.Go(func() error {
			results[i] = b.build(ctx, i+1, r)
			return nil
		})
	}
	g.Wait()

	return results
}

// Err combines the errors of every failed shard, nil if none failed.
func Err(results []Result) error {
	var err error
	for _, r := range results {
		err = multierr.Append(err, r.Err)
	}
	return err
}

// Failed returns the 1-based indexes of the failed shards.
func Failed(results []Result) (failed []int) {
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r.Shard)
		}
	}
	return
}

// build exports one shard and runs makeblastdb on it.
func (b *Builder) build(ctx context.Context, i int, r shard.Range) Result {
	res := Result{Shard: i, Range: r, DB: ShardName(b.Prefix, i)}
	if r.Empty() {
		res.Skipped = true
		b.logger().Printf("shard %03d: no records, skipping", i)
		return res
	}

	m := &makeblastdbExec{
		exe:   b.Makeblastdb,
		out:   res.DB,
		title: filepath.Base(res.DB),
	}

	in, err := os.CreateTemp(b.TempDir, fmt.Sprintf("shard_%03d_*.fasta", i))
	if err != nil {
		res.Err = errors.Wrapf(err, "failed to create the FASTA export for shard %03d", i)
		return res
	}
	res.FASTA = in.Name()
	m.in = in.Name()

	res.Records, err = export(ctx, b.StorePath, r, in)
	if cerr := in.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		res.Err = errors.Wrapf(err, "failed to export shard %03d %v to %s", i, r, res.FASTA)
		return res
	}

	if err := m.run(ctx); err != nil {
		res.Err = errors.Wrapf(err, "failed to build shard %03d (FASTA kept at %s)", i, res.FASTA)
		return res
	}

	if err := os.Remove(res.FASTA); err != nil {
		b.logger().Printf("shard %03d: failed to remove %s: %v", i, res.FASTA, err)
	}
	b.logger().Printf("shard %03d: %s records in %s", i, humanize.Comma(int64(res.Records)), res.DB)

	return res
}

func (b *Builder) logger() *log.Logger {
	if b.Log != nil {
		return b.Log
	}
	return stderr
}

// export writes the records of the range to f as two line FASTA entries,
// reading through its own handle to the store.
func export(ctx context.Context, storePath string, r shard.Range, f *os.File) (n int, err error) {
	s, err := store.Open(ctx, storePath)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	w := bufio.NewWriterSize(f, 1<<16)
	err = s.RangeScan(ctx, r.Start, r.Count, func(rec seq.Record) error {
		n++
		_, err := w.WriteString(rec.FASTA())
		return err
	})
	if err != nil {
		return n, err
	}

	return n, w.Flush()
}

// makeblastdbExec is a single makeblastdb run.
type makeblastdbExec struct {
	// path to the makeblastdb executable
	exe string

	// the input FASTA file
	in string

	// the database name to write
	out string

	// the database title
	title string
}

// run calls the external makeblastdb binary on the input FASTA and waits
// for it to exit.
func (m *makeblastdbExec) run(ctx context.Context) error {
	// https://www.ncbi.nlm.nih.gov/books/NBK569841/
	cmd := exec.CommandContext(
		ctx,
		m.exe,
		"-dbtype", "nucl",
		"-in", m.in,
		"-out", m.out,
		"-title", m.title,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to execute %s on %s: %v: %s", m.exe, m.in, err, strings.TrimSpace(string(output)))
	}

	return nil
}
