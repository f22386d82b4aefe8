// Package cmd is for command line interactions with the sraprep application
package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use: "sraprep",
	Short: `Prepare sequence read archive files for aTRAM.
Load FASTA/FASTQ reads into a sorted store and split them into BLAST databases`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func init() {
	// settings is an optional YAML/TOML/JSON file with any of the flags below
	RootCmd.PersistentFlags().String("settings", "", "settings file with defaults for any flag")
	viper.BindPFlag("settings", RootCmd.PersistentFlags().Lookup("settings"))
}
