package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultConfigIsValid ensures the default project configuration passes validation.
func TestDefaultConfigIsValid(t *testing.T) {
	projectConfig := GetDefaultProjectConfig()
	assert.NoError(t, projectConfig.Validate())
}

// TestValidate verifies each malformed field of a project configuration is rejected.
func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(c *ProjectConfig)
	}{
		{"no workers", func(c *ProjectConfig) { c.Fuzzing.Workers = 0 }},
		{"no runs", func(c *ProjectConfig) { c.Fuzzing.Runs = 0 }},
		{"no depth", func(c *ProjectConfig) { c.Fuzzing.Depth = 0 }},
		{"no shrink limit", func(c *ProjectConfig) { c.Fuzzing.ShrinkLimit = 0 }},
		{"negative probability", func(c *ProjectConfig) { c.Fuzzing.MutationProbability = -0.1 }},
		{"probability above one", func(c *ProjectConfig) { c.Fuzzing.MutationProbability = 1.5 }},
		{"no gas", func(c *ProjectConfig) { c.Fuzzing.TransactionGasLimit = 0 }},
		{"no prefixes", func(c *ProjectConfig) { c.Fuzzing.InvariantPrefixes = nil }},
		{"empty prefix", func(c *ProjectConfig) { c.Fuzzing.InvariantPrefixes = []string{""} }},
		{"no senders", func(c *ProjectConfig) { c.Fuzzing.SenderAddresses = nil }},
		{"malformed sender", func(c *ProjectConfig) { c.Fuzzing.SenderAddresses = []string{"0x1234"} }},
		{"malformed version", func(c *ProjectConfig) { c.Fuzzing.BackendVersion = "latest" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			projectConfig := GetDefaultProjectConfig()
			tc.modify(projectConfig)
			assert.Error(t, projectConfig.Validate())
		})
	}

	// A zero shrink limit is tolerated while shrinking is disabled
	projectConfig := GetDefaultProjectConfig()
	projectConfig.Fuzzing.ShrinkSequence = false
	projectConfig.Fuzzing.ShrinkLimit = 0
	assert.NoError(t, projectConfig.Validate())
}

// TestReadWriteProjectConfig verifies a written configuration reads back unchanged, and that fields absent from a
// file keep their defaults.
func TestReadWriteProjectConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tenet.json")

	projectConfig := GetDefaultProjectConfig()
	projectConfig.Fuzzing.Runs = 42
	projectConfig.Fuzzing.Seed = 7
	projectConfig.Logging.Level = zerolog.DebugLevel
	require.NoError(t, projectConfig.WriteToFile(path))

	read, err := ReadProjectConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, projectConfig, read)

	partialPath := filepath.Join(dir, "partial.json")
	require.NoError(t, os.WriteFile(partialPath, []byte(`{"fuzzing": {"depth": 3}}`), 0644))
	partial, err := ReadProjectConfigFromFile(partialPath)
	require.NoError(t, err)
	assert.Equal(t, 3, partial.Fuzzing.Depth)
	assert.Equal(t, GetDefaultProjectConfig().Fuzzing.Runs, partial.Fuzzing.Runs)

	_, err = ReadProjectConfigFromFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(partialPath, []byte(`{`), 0644))
	_, err = ReadProjectConfigFromFile(partialPath)
	assert.Error(t, err)
}
