package prep

import (
	"io"
	"log"
	"os"

	"github.com/jjtimmons/sraprep/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// readConfig merges the settings file, if one was passed, and returns the Config.
func readConfig(cmd *cobra.Command) *config.Config {
	if err := config.ReadSettings(viper.GetString("settings")); err != nil {
		cmd.Help()
		stderr.Fatal(err)
	}
	return config.New()
}

// newLogger logs to stderr and appends a copy to the file at path.
func newLogger(path string) (*log.Logger, func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open log file %s", path)
	}

	closed := false
	closeLog := func() {
		if !closed {
			closed = true
			f.Close()
		}
	}

	return log.New(io.MultiWriter(os.Stderr, f), "", log.LstdFlags), closeLog, nil
}
