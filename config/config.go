// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"log"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// DefaultShardSize is roughly how much FASTA goes into each BLAST shard
	DefaultShardSize = "250MB"

	// DefaultBatchSize is how many records are committed to the store at a time
	DefaultBatchSize = 1000000

	// DefaultMakeblastdb is the name of the BLAST+ database builder
	DefaultMakeblastdb = "makeblastdb"
)

// InputConfig lists the sequence read archive files by how their ends are read.
type InputConfig struct {
	// files with both end 1 and end 2 reads (or single ends), ends read from titles
	Mixed []string `mapstructure:"mixed-ends"`

	// files with only end 1 reads
	End1 []string `mapstructure:"end-1"`

	// files with only end 2 reads
	End2 []string `mapstructure:"end-2"`

	// files with unpaired reads, any end suffix is ignored
	Single []string `mapstructure:"single-ends"`
}

// Config is the root-level settings struct and is a mix
// of settings available in a settings file and those
// available from the command line
type Config struct {
	// Inputs are the files to load
	Inputs InputConfig `mapstructure:",squash"`

	// DB is the prefix of the store and every BLAST shard
	DB string `mapstructure:"db"`

	// TempDir holds the FASTA exports, a fresh directory is made if unset
	TempDir string `mapstructure:"temp-dir"`

	// Shards is the number of BLAST shards, 0 to size them by ShardSize
	Shards int `mapstructure:"shards"`

	// ShardSize is the FASTA volume per shard when Shards is 0, eg "250MB"
	ShardSize string `mapstructure:"shard-size"`

	// CPUs is the most makeblastdb processes run at once
	CPUs int `mapstructure:"cpus"`

	// BatchSize is how many records are committed to the store at a time
	BatchSize int `mapstructure:"batch-size"`

	// Makeblastdb is the name or path of the makeblastdb executable
	Makeblastdb string `mapstructure:"makeblastdb"`

	// Path is a directory with the BLAST+ executables, if they're not on $PATH
	Path string `mapstructure:"path"`

	// KeepStore keeps the SQLite store after the shards are built
	KeepStore bool `mapstructure:"keep-store"`

	// LogFile is where the log is copied, defaults to <DB>.sraprep.log
	LogFile string `mapstructure:"log-file"`
}

func init() {
	SetDefaults(viper.GetViper())
}

// SetDefaults sets the default settings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("db", "atram_"+time.Now().Format("2006-01-02"))
	v.SetDefault("shard-size", DefaultShardSize)
	v.SetDefault("cpus", DefaultCPUs())
	v.SetDefault("batch-size", DefaultBatchSize)
	v.SetDefault("makeblastdb", DefaultMakeblastdb)
	v.SetDefault("keep-store", true)

	v.SetEnvPrefix("sraprep")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// DefaultCPUs leaves a few cores free on big machines and caps at 10.
func DefaultCPUs() int {
	cpus := runtime.NumCPU() - 4
	if cpus > 10 {
		cpus = 10
	}
	if cpus < 1 {
		cpus = 1
	}
	return cpus
}

// ReadSettings merges a YAML/TOML/JSON settings file into the Viper settings.
func ReadSettings(path string) error {
	if path == "" {
		return nil
	}

	viper.SetConfigFile(path)
	if err := viper.MergeInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read settings file %s", path)
	}
	return nil
}

// New returns a new Config struct populated by
// Viper settings (either from a settings file)
// and/or command line arguments
func New() *Config {
	c, err := FromViper(viper.GetViper())
	if err != nil {
		log.Fatalf("unable to decode into struct, %v", err)
	}
	return c
}

// FromViper unmarshals the settings in v.
func FromViper(v *viper.Viper) (*Config, error) {
	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, err
	}
	return c, nil
}

// ShardBytes parses ShardSize, eg "250MB" or "1GiB".
func (c *Config) ShardBytes() (uint64, error) {
	size := c.ShardSize
	if size == "" {
		size = DefaultShardSize
	}

	n, err := humanize.ParseBytes(size)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse shard size %q", size)
	}
	if n == 0 {
		return 0, errors.Errorf("shard size %q must be positive", size)
	}
	return n, nil
}

// Workers is the size of the makeblastdb worker pool.
func (c *Config) Workers() int {
	if c.CPUs < 1 {
		return DefaultCPUs()
	}
	return c.CPUs
}

// LogPath is the file the log is copied to.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return c.DB + ".sraprep.log"
}
