// Package testutil provides shared test helpers for creating config and
// override files.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupTestConfig creates a minimal config file pointing the result
// cache into tmpDir. Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	configContent := fmt.Sprintf(`cache:
  path: %s
  max_age_hours: 24
sources:
  adapter_timeout_seconds: 1
`,
		filepath.Join(tmpDir, "definition_cache.db"),
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// SetupTestConfigWithOverrides creates a config file plus an overrides
// file with the given YAML content, wired together.
func SetupTestConfigWithOverrides(t *testing.T, tmpDir, overridesYAML string) string {
	t.Helper()

	overridesPath := filepath.Join(tmpDir, "overrides.yml")
	require.NoError(t, os.WriteFile(overridesPath, []byte(overridesYAML), 0644))

	cfgPath := SetupTestConfig(t, tmpDir)
	content, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	content = append(content, []byte("overrides:\n  file: "+overridesPath+"\n")...)
	require.NoError(t, os.WriteFile(cfgPath, content, 0644))
	return cfgPath
}
