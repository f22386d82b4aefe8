package cmd

import (
	"github.com/jjtimmons/sraprep/internal/prep"
	"github.com/spf13/cobra"
)

// planCmd prints the shards of an existing store without building them
var planCmd = &cobra.Command{
	Use:                        "plan",
	Short:                      "Print how an existing store would be split into shards",
	PreRun:                     bindFlags,
	Run:                        prep.PlanCmd,
	SuggestionsMinimumDistance: 2,
	Example:                    "  sraprep plan -b db/atram -s 10",
	Long: `
Partition the store <db>.sqlite.db into shards and print each shard's range of
read ranks with its first and last read name. Nothing is written.`,
}

func init() {
	planCmd.Flags().StringP("db", "b", "", "prefix of the store")
	planCmd.Flags().IntP("shards", "s", 1, "number of shards")

	RootCmd.AddCommand(planCmd)
}
