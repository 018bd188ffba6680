package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestConfigs creates a temporary "configs" directory, changes into its
// parent for the duration of the test and returns the configs path.
func setupTestConfigs(t *testing.T) string {
	root := t.TempDir()
	configPath := filepath.Join(root, "configs")
	require.NoError(t, os.Mkdir(configPath, 0755))
	testChdir(t, root)
	return configPath
}

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0644))
}

func TestLoadConfig_Defaults(t *testing.T) {
	setupTestConfigs(t)

	cfg, err := LoadConfig("missing")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "gutenberg/data/repeated_sequence.txt", cfg.Corpus.Path)
	assert.Equal(t, "a b c d", cfg.Corpus.Sequence)
	assert.Equal(t, 1000, cfg.Corpus.Repetitions)
	assert.False(t, cfg.Corpus.Temp)
	assert.Equal(t, "python", cfg.Run.Executable)
	assert.Equal(t, []string{"pretraining_simple.py", "--debug", "true"}, cfg.Run.Args)
	assert.Equal(t, 30*time.Minute, cfg.Run.Timeout)
	assert.Equal(t, []string{"contains"}, cfg.Oracle.Checks)
	assert.Equal(t, "Maximum GPU memory allocated", cfg.Oracle.Expected)
	assert.False(t, cfg.Oracle.RequireZeroExit)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := setupTestConfigs(t)
	writeConfig(t, dir, "smoke", `
config:
  log_level: "debug"
  corpus:
    repetitions: 10
    temp: true
  run:
    executable: "python3"
    args: ["train.py", "--debug", "true"]
    timeout: "90s"
  oracle:
    require_zero_exit: true
`)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 10, cfg.Corpus.Repetitions)
	assert.True(t, cfg.Corpus.Temp)
	assert.Equal(t, "a b c d", cfg.Corpus.Sequence, "unset keys keep defaults")
	assert.Equal(t, "python3", cfg.Run.Executable)
	assert.Equal(t, []string{"train.py", "--debug", "true"}, cfg.Run.Args)
	assert.Equal(t, 90*time.Second, cfg.Run.Timeout)
	assert.True(t, cfg.Oracle.RequireZeroExit)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	setupTestConfigs(t)
	t.Setenv("SMOKE_CONFIG_RUN_EXECUTABLE", "/opt/venv/bin/python")
	t.Setenv("SMOKE_CONFIG_RUN_TIMEOUT", "5m")

	cfg, err := LoadConfig("missing")
	require.NoError(t, err)
	assert.Equal(t, "/opt/venv/bin/python", cfg.Run.Executable)
	assert.Equal(t, 5*time.Minute, cfg.Run.Timeout)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	dir := setupTestConfigs(t)
	writeConfig(t, dir, "malformed", "config: test\n  corpus: oops")

	_, err := LoadConfig("malformed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := setupTestConfigs(t)
	writeConfig(t, dir, "bad", `
config:
  corpus:
    repetitions: 0
`)

	_, err := LoadConfig("bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corpus.repetitions")
}

func TestLoad_FileNotExists(t *testing.T) {
	setupTestConfigs(t)

	var cfg fileConfig
	err := Load("non_existent_config", &cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_Success(t *testing.T) {
	dir := setupTestConfigs(t)
	writeConfig(t, dir, "plain", `
config:
  run:
    executable: "bash"
`)

	var fc fileConfig
	require.NoError(t, Load("plain", &fc))
	assert.Equal(t, "bash", fc.Config.Run.Executable)
	assert.Empty(t, fc.Config.Corpus.Path, "Load applies no defaults")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Corpus: CorpusConfig{Path: "c.txt", Sequence: "a", Repetitions: 1},
			Run:    RunConfig{Executable: "python"},
			Oracle: OracleConfig{Checks: []string{"contains"}, Expected: "x"},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty path", mutate: func(c *Config) { c.Corpus.Path = "" }, errMsg: "corpus.path"},
		{name: "absolute temp path", mutate: func(c *Config) { c.Corpus.Temp = true; c.Corpus.Path = "/tmp/c.txt" }, errMsg: "relative"},
		{name: "no executable", mutate: func(c *Config) { c.Run.Executable = "" }, errMsg: "run.executable"},
		{name: "negative timeout", mutate: func(c *Config) { c.Run.Timeout = -time.Second }, errMsg: "run.timeout"},
		{name: "empty expected", mutate: func(c *Config) { c.Oracle.Expected = "" }, errMsg: "oracle.expected"},
		{name: "no checks", mutate: func(c *Config) { c.Oracle.Checks = nil }, errMsg: "oracle.checks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_CorpusLocation(t *testing.T) {
	c := Config{Corpus: CorpusConfig{Path: "gutenberg/data/x.txt"}}
	assert.Equal(t, "gutenberg/data/x.txt", c.CorpusLocation())

	c.Run.WorkDir = "/work"
	assert.Equal(t, "/work/gutenberg/data/x.txt", c.CorpusLocation())

	c.Corpus.Path = "/abs/x.txt"
	assert.Equal(t, "/abs/x.txt", c.CorpusLocation())
}

func TestOracleConfig_Options(t *testing.T) {
	opts := OracleConfig{Expected: "x", RequireZeroExit: true}.Options()
	assert.Equal(t, "x", opts["expected"])
	assert.Equal(t, true, opts["require_zero_exit"])
}

// testChdir changes into dir for the duration of the test, restoring the
// previous working directory on cleanup (equivalent to testing.T.Chdir).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PWD", abs)
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			panic("testChdir: restoring working directory: " + err.Error())
		}
	})
}
