// file: cmd/root_test.go
// version: 2.0.0
// guid: 7eae8d0c-7fda-4f45-8f73-5d1e0c7c9f1a

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jdfalk/lending-library/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI with a fresh command tree and viper state
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	viper.Reset()
	origConfig := config.AppConfig
	t.Cleanup(func() {
		config.AppConfig = origConfig
		viper.Reset()
	})

	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootHelp(t *testing.T) {
	out, _, err := run(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"add", "list", "search", "borrow", "return", "overdue", "import", "export", "backup", "serve"} {
		assert.Contains(t, out, name)
	}
}

func TestInitConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "books.txt")
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("data_file: "+dataFile+"\npersist_loans: true\nmax_archives: 3\n"), 0644))

	_, _, err := run(t, "--config", cfgPath, "list")
	require.NoError(t, err)

	assert.Equal(t, dataFile, config.AppConfig.DataFile)
	assert.True(t, config.AppConfig.PersistLoans)
	assert.Equal(t, 3, config.AppConfig.MaxArchives)
}

func TestInitConfigFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("data_file: from-file.txt\n"), 0644))
	dataFile := filepath.Join(dir, "from-flag.txt")

	_, _, err := run(t, "--config", cfgPath, "--data-file", dataFile, "list")
	require.NoError(t, err)
	assert.Equal(t, dataFile, config.AppConfig.DataFile)
}

func TestInitConfigMissingExplicitFile(t *testing.T) {
	_, _, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "list")
	assert.Error(t, err)
}

func TestInitConfigInvalidLogLevel(t *testing.T) {
	_, _, err := run(t, "--data-file", filepath.Join(t.TempDir(), "books.txt"), "list", "--log-level", "loud")
	assert.Error(t, err)
}
