package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultConfigName is the base name of the YAML file LoadConfig looks for.
const DefaultConfigName = "smoke"

// EnvPrefix prefixes environment overrides, e.g. SMOKE_CONFIG_RUN_TIMEOUT=5m.
const EnvPrefix = "SMOKE"

// CorpusConfig describes the synthetic corpus.
type CorpusConfig struct {
	Path        string `mapstructure:"path"`
	Sequence    string `mapstructure:"sequence"`
	Repetitions int    `mapstructure:"repetitions"`
	// Temp builds the corpus under a scoped temp directory that is removed
	// after the run. Path is then taken relative to that directory.
	Temp bool `mapstructure:"temp"`
}

// RunConfig describes how the training script is invoked.
type RunConfig struct {
	Executable string        `mapstructure:"executable"`
	Args       []string      `mapstructure:"args"`
	WorkDir    string        `mapstructure:"work_dir"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Env        []string      `mapstructure:"env"`
}

// OracleConfig selects and parameterizes the pass/fail oracles.
type OracleConfig struct {
	Checks          []string `mapstructure:"checks"`
	Expected        string   `mapstructure:"expected"`
	RequireZeroExit bool     `mapstructure:"require_zero_exit"`
}

// Options returns the settings in the form oracle factories consume.
func (o OracleConfig) Options() map[string]interface{} {
	return map[string]interface{}{
		"expected":          o.Expected,
		"require_zero_exit": o.RequireZeroExit,
	}
}

// Config is the top-level smoke test configuration.
type Config struct {
	LogLevel  string       `mapstructure:"log_level"`
	LogDir    string       `mapstructure:"log_dir"`
	ReportDir string       `mapstructure:"report_dir"`
	Corpus    CorpusConfig `mapstructure:"corpus"`
	Run       RunConfig    `mapstructure:"run"`
	Oracle    OracleConfig `mapstructure:"oracle"`
}

// fileConfig mirrors the on-disk layout: everything sits under "config".
type fileConfig struct {
	Config Config `mapstructure:"config"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("config.log_level", "info")
	v.SetDefault("config.log_dir", "")
	v.SetDefault("config.report_dir", "")
	v.SetDefault("config.corpus.path", "gutenberg/data/repeated_sequence.txt")
	v.SetDefault("config.corpus.sequence", "a b c d")
	v.SetDefault("config.corpus.repetitions", 1000)
	v.SetDefault("config.corpus.temp", false)
	v.SetDefault("config.run.executable", "python")
	v.SetDefault("config.run.args", []string{"pretraining_simple.py", "--debug", "true"})
	v.SetDefault("config.run.work_dir", "")
	v.SetDefault("config.run.timeout", 30*time.Minute)
	v.SetDefault("config.run.env", []string{})
	v.SetDefault("config.oracle.checks", []string{"contains"})
	v.SetDefault("config.oracle.expected", "Maximum GPU memory allocated")
	v.SetDefault("config.oracle.require_zero_exit", false)
}

func newViper(configName string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")       // configs under the working directory
	v.AddConfigPath("../configs")    // when running go test inside a package
	v.AddConfigPath("../../configs") // deeper packages
	return v
}

// Load reads a configuration file from the "configs" directory into a struct.
// The configName parameter should be the base name of the file without the extension (e.g., "smoke").
// The result parameter should be a pointer to a struct that the configuration will be unmarshaled into.
func Load(configName string, result interface{}) error {
	v := newViper(configName)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := v.Unmarshal(result); err != nil {
		return fmt.Errorf("failed to unmarshal config data: %w", err)
	}

	return nil
}

// LoadConfig loads configs/<configName>.yaml on top of the built-in defaults,
// then applies SMOKE_* environment overrides. A missing file is not an error.
func LoadConfig(configName string) (*Config, error) {
	if configName == "" {
		configName = DefaultConfigName
	}

	v := newViper(configName)
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}

	cfg := &fc.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Corpus.Path == "":
		return fmt.Errorf("invalid config: corpus.path must be set")
	case c.Corpus.Repetitions <= 0:
		return fmt.Errorf("invalid config: corpus.repetitions must be positive, got %d", c.Corpus.Repetitions)
	case c.Corpus.Temp && filepath.IsAbs(c.Corpus.Path):
		return fmt.Errorf("invalid config: corpus.path must be relative when corpus.temp is set")
	case c.Run.Executable == "":
		return fmt.Errorf("invalid config: run.executable must be set")
	case c.Run.Timeout < 0:
		return fmt.Errorf("invalid config: run.timeout must not be negative")
	case c.Oracle.Expected == "":
		return fmt.Errorf("invalid config: oracle.expected must be set")
	case len(c.Oracle.Checks) == 0:
		return fmt.Errorf("invalid config: oracle.checks must name at least one oracle")
	}
	return nil
}

// CorpusLocation is where the corpus is written when Temp is off. A relative
// Path is resolved against the run's working directory, which is where the
// training script looks for it.
func (c *Config) CorpusLocation() string {
	if filepath.IsAbs(c.Corpus.Path) || c.Run.WorkDir == "" {
		return c.Corpus.Path
	}
	return filepath.Join(c.Run.WorkDir, c.Corpus.Path)
}
