package cmd

import (
	"github.com/jjtimmons/sraprep/config"
	"github.com/jjtimmons/sraprep/internal/prep"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	shardsHelp = `number of BLAST DB shards to create. By default it's one shard
per --shard-size of input (FASTQ counts half, gzipped files count triple)`

	mixedHelp = `sequence read archive files with end 1 and end 2 reads mixed together.
Ends are read from title suffixes like "/1" or "_2". Globs are allowed`
)

// buildCmd loads sequence read archive files and builds the BLAST shards
var buildCmd = &cobra.Command{
	Use:                        "build",
	Short:                      "Build aTRAM databases from sequence read archive files",
	PreRun:                     bindFlags,
	Run:                        prep.BuildCmd,
	SuggestionsMinimumDistance: 2,
	Example:                    "  sraprep build -b db/atram -1 'reads_1.fastq.gz' -2 'reads_2.fastq.gz' -s 10",
	Long: `
Load FASTA or FASTQ reads into a SQLite store sorted by read name, then split the
store into BLAST databases with makeblastdb. Both ends of a read always land in
the same BLAST database.

Outputs are <db>.sqlite.db and <db>.NNN.blast databases.`,
	Aliases: []string{"preprocess"},
}

// set flags
func init() {
	flags := buildCmd.Flags()

	// inputs
	flags.StringSliceP("mixed-ends", "m", nil, mixedHelp)
	flags.StringSliceP("end-1", "1", nil, "sequence read archive files with only end 1 reads")
	flags.StringSliceP("end-2", "2", nil, "sequence read archive files with only end 2 reads")
	flags.StringSliceP("single-ends", "0", nil, "sequence read archive files with unpaired reads")

	// outputs and sizing
	flags.StringP("db", "b", "", "prefix of the store and BLAST databases (default atram_<date>)")
	flags.IntP("shards", "s", 0, shardsHelp)
	flags.String("shard-size", config.DefaultShardSize, "input volume per shard when --shards isn't set")
	flags.Int("cpus", config.DefaultCPUs(), "most makeblastdb processes to run at once")
	flags.StringP("temp-dir", "t", "", "directory for the FASTA exports (default a new temporary directory)")
	flags.Int("batch-size", config.DefaultBatchSize, "records committed to the store at a time")

	// tools and logs
	flags.String("path", "", "directory with the BLAST+ executables if they're not on $PATH")
	flags.String("makeblastdb", config.DefaultMakeblastdb, "makeblastdb executable")
	flags.Bool("keep-store", true, "keep the SQLite store after the BLAST databases are built")
	flags.StringP("log-file", "l", "", "copy the log to this file (default <db>.sraprep.log)")

	RootCmd.AddCommand(buildCmd)
}

// bindFlags binds the running command's flags to viper. build and plan share
// flag names, only the running command's may be bound.
func bindFlags(cmd *cobra.Command, args []string) {
	viper.BindPFlags(cmd.Flags())
}
