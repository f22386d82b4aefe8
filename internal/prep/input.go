package prep

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/jjtimmons/sraprep/config"
	"github.com/jjtimmons/sraprep/internal/blast"
	"github.com/jjtimmons/sraprep/internal/seq"
	"github.com/jjtimmons/sraprep/internal/shard"
	"github.com/pkg/errors"
)

// Input is a sequence read archive file and how its ends are read.
type Input struct {
	Path string
	Mode seq.EndMode
}

// Flags are the resolved settings of a preprocessor run.
type Flags struct {
	// the files to load, in load order
	inputs []Input

	// prefix of the store and BLAST shards
	db string

	// directory for the FASTA exports
	tempDir string

	// whether tempDir was made for this run (and should be removed after it)
	ownTempDir bool

	// number of BLAST shards
	shards int

	// size of the makeblastdb worker pool
	workers int

	// records per store commit
	batchSize int

	// absolute path to makeblastdb
	makeblastdb string

	// keep the SQLite store after building the shards
	keepStore bool
}

// inputParser turns settings into Flags.
type inputParser struct{}

// NewFlags makes a new flags object manually. for testing.
func NewFlags(inputs []Input, db, tempDir, makeblastdb string, shards, workers, batchSize int) *Flags {
	return &Flags{
		inputs:      inputs,
		db:          db,
		tempDir:     tempDir,
		shards:      shards,
		workers:     workers,
		batchSize:   batchSize,
		makeblastdb: makeblastdb,
		keepStore:   true,
	}
}

// parseFlags checks the settings in c and fills out a Flags. Missing input
// files or a missing makeblastdb are errors.
func parseFlags(c *config.Config) (*Flags, error) {
	p := inputParser{}

	inputs, err := p.inputs(c.Inputs)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, errors.New("no input files: use --mixed-ends, --end-1, --end-2 or --single-ends")
	}

	exe, err := blast.LookPath(c.Makeblastdb, c.Path)
	if err != nil {
		return nil, err
	}

	fs := &Flags{
		inputs:      inputs,
		db:          c.DB,
		shards:      c.Shards,
		workers:     c.Workers(),
		batchSize:   c.BatchSize,
		makeblastdb: exe,
		keepStore:   c.KeepStore,
	}

	// make sure the output directory of the BLAST DBs exists
	if dir := filepath.Dir(fs.db); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "failed to create the output directory %s", dir)
		}
	}

	if fs.tempDir, fs.ownTempDir, err = p.tempDir(c.TempDir); err != nil {
		return nil, err
	}

	if fs.shards < 1 {
		shardBytes, err := c.ShardBytes()
		if err != nil {
			return nil, err
		}

		paths := make([]string, len(inputs))
		for i, in := range inputs {
			paths[i] = in.Path
		}
		if fs.shards, err = shard.CountFor(paths, shardBytes); err != nil {
			return nil, err
		}
	}

	return fs, nil
}

// inputs expands the file globs of each end mode, in the order mixed, end 1,
// end 2 then single.
func (p *inputParser) inputs(ic config.InputConfig) (inputs []Input, err error) {
	groups := []struct {
		mode  seq.EndMode
		globs []string
	}{
		{seq.Mixed, ic.Mixed},
		{seq.End1, ic.End1},
		{seq.End2, ic.End2},
		{seq.Single, ic.Single},
	}

	for _, g := range groups {
		for _, glob := range g.globs {
			paths, err := p.expand(glob)
			if err != nil {
				return nil, err
			}
			for _, path := range paths {
				inputs = append(inputs, Input{Path: path, Mode: g.mode})
			}
		}
	}

	return inputs, nil
}

// expand a glob to the files it matches. A pattern without matches is
// returned as is if it names a file, and is an error otherwise.
func (p *inputParser) expand(glob string) ([]string, error) {
	matches, err := filepath.Glob(glob)
	if err != nil {
		return nil, errors.Wrapf(err, "bad file pattern %s", glob)
	}

	if len(matches) == 0 {
		if _, err := os.Stat(glob); err != nil {
			return nil, errors.Wrapf(err, "failed to find input file %s", glob)
		}
		matches = []string{glob}
	}

	sort.Strings(matches)
	return matches, nil
}

// tempDir makes sure dir exists, or makes a new temporary directory if it's empty.
func (p *inputParser) tempDir(dir string) (path string, own bool, err error) {
	if dir == "" {
		if path, err = os.MkdirTemp("", "atram_"); err != nil {
			return "", false, errors.Wrap(err, "failed to create a temporary directory")
		}
		return path, true, nil
	}

	if err = os.MkdirAll(dir, 0755); err != nil {
		return "", false, errors.Wrapf(err, "failed to create the temporary directory %s", dir)
	}
	return dir, false, nil
}
