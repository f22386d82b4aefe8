// Package prep loads sequence read archive files into a sorted SQLite store
// and builds balanced BLAST database shards from it.
package prep

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jjtimmons/sraprep/internal/blast"
	"github.com/jjtimmons/sraprep/internal/seq"
	"github.com/jjtimmons/sraprep/internal/shard"
	"github.com/jjtimmons/sraprep/internal/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	// stderr is for logging to Stderr (without an annoying timestamp)
	stderr = log.New(os.Stderr, "", 0)
)

// BuildCmd takes a cobra command (with its flags bound to viper) and runs Build.
func BuildCmd(cmd *cobra.Command, args []string) {
	conf := readConfig(cmd)

	flags, err := parseFlags(conf)
	if err != nil {
		cmd.Help()
		stderr.Fatal(err)
	}

	logger, closeLog, err := newLogger(conf.LogPath())
	if err != nil {
		stderr.Fatal(err)
	}
	defer closeLog()

	start := time.Now()
	results, err := Build(context.Background(), flags, logger)
	if len(results) > 0 {
		writeResults(os.Stdout, results)
	}
	if err != nil {
		closeLog()
		stderr.Fatal(err)
	}

	logger.Printf("finished in %s", time.Since(start).Round(time.Millisecond))
}

// Build loads every input file into a new store, indexes it, partitions it
// into flags.shards ranges and builds a BLAST database for each.
//
// Loading stops at the first unreadable file. Shard builds don't: every
// shard is attempted and the error lists each one that failed.
func Build(ctx context.Context, flags *Flags, logger *log.Logger) ([]blast.Result, error) {
	if logger == nil {
		logger = stderr
	}

	storePath := store.Path(flags.db)
	ranges, err := load(ctx, flags, storePath, logger)
	if err != nil {
		return nil, err
	}

	logger.Printf("making %d BLAST DBs with %d workers", len(ranges), flags.workers)
	b := &blast.Builder{
		StorePath:   storePath,
		TempDir:     flags.tempDir,
		Prefix:      flags.db,
		Makeblastdb: flags.makeblastdb,
		Workers:     flags.workers,
		Log:         logger,
	}
	results := b.Build(ctx, ranges)

	if err := blast.Err(results); err != nil {
		logger.Printf("FASTA exports of failed shards are in %s", flags.tempDir)
		return results, errors.Wrapf(err, "failed to build shards %v", blast.Failed(results))
	}
	logger.Printf("finished making all %d BLAST DBs", len(results))

	if flags.ownTempDir {
		os.RemoveAll(flags.tempDir)
	}
	if !flags.keepStore {
		if err := os.Remove(storePath); err != nil {
			logger.Printf("failed to remove %s: %v", storePath, err)
		}
	}

	return results, nil
}

// load fills a new store at storePath with the input files and partitions it.
func load(ctx context.Context, flags *Flags, storePath string, logger *log.Logger) ([]shard.Range, error) {
	s, err := store.Create(ctx, storePath)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	singleEnds := true
	for _, in := range flags.inputs {
		logger.Printf("loading %s (%s ends) into %s", in.Path, in.Mode, storePath)

		n, err := loadFile(ctx, s, in, flags.batchSize, logger)
		if err != nil {
			return nil, err
		}
		logger.Printf("loaded %s records from %s", humanize.Comma(int64(n)), in.Path)

		singleEnds = singleEnds && in.Mode == seq.Single
	}

	single := "0"
	if singleEnds {
		single = "1"
	}
	if err := s.SetMeta(ctx, "single_ends", single); err != nil {
		return nil, err
	}

	logger.Printf("creating an index for %s", storePath)
	if err := s.Index(ctx); err != nil {
		return nil, err
	}

	total, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	logger.Printf("assigning %s records to %d shards", humanize.Comma(int64(total)), flags.shards)

	ranges, err := shard.Partition(ctx, s, flags.shards)
	if errors.Is(err, shard.ErrEmpty) {
		return nil, errors.Wrapf(err, "no sequences were loaded into %s", storePath)
	}
	return ranges, err
}

// loadFile streams one input file into the store.
func loadFile(ctx context.Context, s *store.Store, in Input, batchSize int, logger *log.Logger) (int, error) {
	f, err := seq.Open(in.Path, in.Mode)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	// read errors already name the file
	n, err := s.Load(ctx, f, batchSize)
	if err != nil {
		return n, err
	}
	if skipped := f.Skipped(); skipped > 0 {
		logger.Printf("skipped %d titles without sequences in %s", skipped, in.Path)
	}
	return n, nil
}

// writeResults prints a table of shard builds.
func writeResults(w io.Writer, results []blast.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 3, ' ', 0)
	fmt.Fprintf(tw, "shard\trecords\tdatabase\tstatus\t\n")
	for _, r := range results {
		status := "ok"
		if r.Skipped {
			status = "empty"
		} else if r.Err != nil {
			status = "FAILED"
		}
		fmt.Fprintf(tw, "%03d\t%d\t%s\t%s\t\n", r.Shard, r.Records, r.DB, status)
	}
	tw.Flush()
}
