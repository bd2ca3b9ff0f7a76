package config

import (
	"io/ioutil"
	"log"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopLogger() *log.Logger {
	return log.New(ioutil.Discard, "", 0)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidateRejectsMissingFields(t *testing.T) {
	cfg := Default()
	cfg.HistoryFile = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.HistoryLimit = -1
	assert.Error(t, cfg.Validate())
}

func TestLoadMissingFileGivesDefault(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg, err := Load(fs, "/nope.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/config.yaml", []byte(`
history_file: /tmp/hist
history_limit: 10
state_file: /tmp/state
aliases:
  ll: ls -l
`), 0600))

	cfg, err := Load(fs, "/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/hist", cfg.HistoryFile)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, "ls -l", cfg.Aliases["ll"])
	// Unset fields keep their defaults.
	assert.Equal(t, Default().EventLog, cfg.EventLog)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/config.yaml", []byte("bogus_field: 1\n"), 0600))

	_, err := Load(fs, "/config.yaml")
	assert.Error(t, err)
}

func TestInitializeWritesThenPreserves(t *testing.T) {
	fs := afero.NewMemMapFs()

	first, err := Initialize(fs, "/config.yaml", nopLogger())
	require.NoError(t, err)
	assert.Equal(t, Default(), first)

	exists, err := afero.Exists(fs, "/config.yaml")
	require.NoError(t, err)
	assert.True(t, exists)

	// A second run must not clobber the existing file.
	require.NoError(t, afero.WriteFile(fs, "/config.yaml", []byte(`
history_file: /custom
history_limit: 7
state_file: /custom-state
`), 0600))

	second, err := Initialize(fs, "/config.yaml", nopLogger())
	require.NoError(t, err)
	assert.Equal(t, "/custom", second.HistoryFile)
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	assert.Equal(t, "/home/tester/.cybersh_history", ExpandHome("~/.cybersh_history"))
	assert.Equal(t, "/home/tester", ExpandHome("~"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, "rel/path", ExpandHome("rel/path"))
}
