package shard

import (
	"os"
	"strings"

	"github.com/jjtimmons/sraprep/internal/seq"
	"github.com/pkg/errors"
)

// gzipRatio is a rough guess at how much a gzipped read file shrinks
const gzipRatio = 3

// CountFor estimates how many shards to make so each holds about shardSize
// bytes of FASTA. FASTQ files are counted at half their size since about
// half of each record is quality scores. It's always at least 1.
func CountFor(files []string, shardSize uint64) (int, error) {
	if shardSize == 0 {
		return 0, errors.New("shard size must be positive")
	}

	var total uint64
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			return 0, errors.Wrapf(err, "failed to size %s", f)
		}

		size := uint64(info.Size())
		if strings.HasSuffix(strings.ToLower(f), ".gz") {
			size *= gzipRatio
		}
		if format, _ := seq.FormatOf(f); format == seq.FASTQ {
			size /= 2
		}
		total += size
	}

	if n := int(total / shardSize); n > 1 {
		return n, nil
	}
	return 1, nil
}
