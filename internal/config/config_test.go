package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envKeys {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, types.BackendSQLite, s.Store.Backend)
	assert.Equal(t, types.SecretsStore, s.Store.Secrets)
	assert.Empty(t, s.Store.DataDir)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "text", s.LogFormat)
	assert.Empty(t, s.Path)
}

func TestLoad_ReadsFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	yml := `backend: postgres
dsn: postgres://localhost/guineapal
data_dir: /srv/pets
secrets: keyring
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(yml), 0o644))

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, types.Config{
		Backend: types.BackendPostgres,
		DataDir: "/srv/pets",
		DSN:     "postgres://localhost/guineapal",
		Secrets: types.SecretsKeyring,
	}, s.Store)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "json", s.LogFormat)
	assert.Equal(t, filepath.Join(dir, FileName), s.Path)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("backend: sqlite\n"), 0o644))
	t.Setenv("GUINEAPAL_BACKEND", "jsonl")
	t.Setenv("GUINEAPAL_LOG_LEVEL", "warn")

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, types.BackendJSONL, s.Store.Backend)
	assert.Equal(t, "warn", s.LogLevel)
}

func TestLoad_DataDirIgnoresEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("GUINEAPAL_DATA_DIR", "/env/data")

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, s.Store.DataDir, "env data dir is resolved by paths, below config.yaml")
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, EnvFileName), []byte("GUINEAPAL_BACKEND=memory\n"), 0o644))

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, types.BackendMemory, s.Store.Backend)
}

func TestLoad_DotEnvDoesNotOverrideEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, EnvFileName), []byte("GUINEAPAL_BACKEND=memory\n"), 0o644))
	t.Setenv("GUINEAPAL_BACKEND", "jsonl")

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, types.BackendJSONL, s.Store.Backend)
}

func TestLoad_MalformedFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("backend: [unclosed\n"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestInit(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "nested", "config")

	f := Default()
	f.DataDir = "/srv/pets"
	wrote, err := Init(dir, f)
	require.NoError(t, err)
	assert.True(t, wrote)

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	var got File
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, f, got)

	wrote, err = Init(dir, File{Backend: types.BackendMemory})
	require.NoError(t, err)
	assert.False(t, wrote, "existing config is left alone")

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, types.BackendSQLite, s.Store.Backend)
	assert.Equal(t, "/srv/pets", s.Store.DataDir)
	assert.NoError(t, s.Store.Validate())
}

func TestSettingsLogger(t *testing.T) {
	var buf bytes.Buffer
	log := Settings{LogLevel: "warn", LogFormat: "json"}.Logger(&buf)

	log.Info("hidden", nil)
	log.Warn("shown", nil)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"app":"guineapal"`)
}
