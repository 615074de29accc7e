package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()

	tempDir := t.TempDir()
	oldDir, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() {
		os.Chdir(oldDir)
		viper.Reset()
	})
	require.NoError(t, os.Chdir(tempDir))
	return tempDir
}

func TestInitCommand(t *testing.T) {
	chdirTemp(t)
	initExample = false

	err := runInit(&cobra.Command{}, []string{})
	require.NoError(t, err)

	assert.FileExists(t, ".loupe.yml")
	assert.NoFileExists(t, "index.html")
}

func TestInitCommandWithExample(t *testing.T) {
	chdirTemp(t)
	initExample = true
	defer func() { initExample = false }()

	err := runInit(&cobra.Command{}, []string{})
	require.NoError(t, err)

	assert.FileExists(t, ".loupe.yml")
	assert.FileExists(t, "index.html")
	assert.FileExists(t, "style.css")
	assert.FileExists(t, "readme.md")
	assert.FileExists(t, "data.json")
	assert.FileExists(t, "App.jsx")
}

func TestInitCommandWithDirectory(t *testing.T) {
	chdirTemp(t)
	initExample = false

	err := runInit(&cobra.Command{}, []string{"mysite"})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join("mysite", ".loupe.yml"))
}

func TestInitCommandRefusesOverwrite(t *testing.T) {
	chdirTemp(t)
	initExample = false

	require.NoError(t, os.WriteFile(".loupe.yml", []byte("server:\n  port: 9999\n"), 0o644))

	err := runInit(&cobra.Command{}, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// The existing config must be untouched.
	raw, err := os.ReadFile(".loupe.yml")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "9999")
}

func TestStandardFlagsValidation(t *testing.T) {
	flags := &StandardFlags{OutputFormat: "json"}
	assert.NoError(t, flags.ValidateFlags())

	flags = &StandardFlags{OutputFormat: "csv"}
	assert.Error(t, flags.ValidateFlags())

	flags = &StandardFlags{Verbose: true, Quiet: true}
	assert.Error(t, flags.ValidateFlags())
}

func TestAddStandardFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	AddStandardFlags(cmd, "server", "output")

	assert.NotNil(t, lookupFlag(cmd, "port"))
	assert.NotNil(t, lookupFlag(cmd, "host"))
	assert.NotNil(t, lookupFlag(cmd, "no-open"))
	assert.NotNil(t, lookupFlag(cmd, "output"))
}

func TestServerCommandsShareFlagGroup(t *testing.T) {
	for _, cmd := range []*cobra.Command{serveCmd, previewCmd} {
		for _, name := range []string{"port", "host", "no-open"} {
			assert.NotNil(t, lookupFlag(cmd, name), "%s missing --%s", cmd.Name(), name)
		}
	}
}

func TestDoctorConfigFileCheck(t *testing.T) {
	chdirTemp(t)

	// No config file at all.
	result := checkConfigFile()
	assert.Equal(t, "warning", result.Status)

	// Valid YAML.
	require.NoError(t, os.WriteFile(".loupe.yml", []byte("server:\n  port: 3030\n"), 0o644))
	result = checkConfigFile()
	assert.Equal(t, "ok", result.Status)

	// Broken YAML.
	require.NoError(t, os.WriteFile(".loupe.yml", []byte("server:\n\tport: [unclosed\n"), 0o644))
	result = checkConfigFile()
	assert.Equal(t, "error", result.Status)
}

func TestRootCommandHasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"serve", "preview", "list", "init", "doctor", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
