package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://127.0.0.1:8888", cfg.Server)
	assert.Equal(t, "table", cfg.Output)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.NotNil(t, cfg.Servers)
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	assert.Equal(t, "cli.yaml", filepath.Base(path))
	assert.Equal(t, ".docmesh", filepath.Base(filepath.Dir(path)))
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: json\nservers:\n  b: http://10.0.0.2:8888\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "http://127.0.0.1:8888", cfg.Server, "unset key keeps default")
	assert.Equal(t, "http://10.0.0.2:8888", cfg.Servers["b"])
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: [unclosed"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cli.yaml")

	cfg := Default()
	cfg.Server = "http://node-a:8888"
	cfg.Timeout = 5 * time.Second
	cfg.Servers["a"] = "http://node-a:8888"
	require.NoError(t, Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestResolve(t *testing.T) {
	cfg := Default()
	cfg.Servers["b"] = "http://10.0.0.2:8888"

	assert.Equal(t, cfg.Server, cfg.Resolve(""))
	assert.Equal(t, "http://10.0.0.2:8888", cfg.Resolve("b"))
	assert.Equal(t, "localhost:9000", cfg.Resolve("localhost:9000"))
}
