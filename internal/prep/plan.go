package prep

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/jjtimmons/sraprep/internal/shard"
	"github.com/jjtimmons/sraprep/internal/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// PlanCmd prints the shards an existing store would be split into.
func PlanCmd(cmd *cobra.Command, args []string) {
	conf := readConfig(cmd)

	if conf.Shards < 1 {
		cmd.Help()
		stderr.Fatal("\nno shard count, set --shards")
	}

	if _, err := Plan(context.Background(), store.Path(conf.DB), conf.Shards, os.Stdout); err != nil {
		stderr.Fatal(err)
	}
}

// Plan partitions the indexed store at storePath into n shards and writes a
// table of them, with the first and last name in each, to w.
func Plan(ctx context.Context, storePath string, n int, w io.Writer) ([]shard.Range, error) {
	s, err := store.Open(ctx, storePath)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	ranges, err := shard.Partition(ctx, s, n)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to partition %s", storePath)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 3, ' ', 0)
	fmt.Fprintf(tw, "shard\tstart\tcount\tfirst\tlast\t\n")
	for i, r := range ranges {
		first, last := "-", "-"
		if !r.Empty() {
			if first, err = s.NameAtRank(ctx, r.Start); err != nil {
				return nil, err
			}
			if last, err = s.NameAtRank(ctx, r.End()-1); err != nil {
				return nil, err
			}
		}
		fmt.Fprintf(tw, "%03d\t%d\t%d\t%s\t%s\t\n", i+1, r.Start, r.Count, first, last)
	}

	return ranges, tw.Flush()
}
