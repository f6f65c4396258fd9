package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/", cfg.Client.Endpoint)
	assert.Equal(t, []string{"cpp", "h", "go"}, cfg.Client.Extensions)
	assert.Equal(t, 10*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "127.0.0.1:3000", cfg.Server.Addr())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auditor.yaml")
	data := []byte(`
client:
  endpoint: http://audit.internal:8080/
  author: ann
  timeout: 3s
server:
  port: 4000
  repo_path: /src/project/
  excluded_prefixes: [third_party/]
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://audit.internal:8080/", cfg.Client.Endpoint)
	assert.Equal(t, "ann", cfg.Client.Author)
	assert.Equal(t, 3*time.Second, cfg.Client.Timeout)
	assert.Equal(t, []string{"cpp", "h", "go"}, cfg.Client.Extensions)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "/src/project/", cfg.Server.RepoPath)
	assert.Equal(t, []string{"third_party/"}, cfg.Server.ExcludedPrefixes)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auditor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client: [\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AUDITOR_ENDPOINT", "http://other:1/")
	t.Setenv("AUDITOR_EXTENSIONS", "py, rs,,")
	t.Setenv("AUDITOR_PORT", "8123")
	t.Setenv("AUDITOR_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://other:1/", cfg.Client.Endpoint)
	assert.Equal(t, []string{"py", "rs"}, cfg.Client.Extensions)
	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Server.RedisURL)
}

func TestEnvBadPort(t *testing.T) {
	t.Setenv("AUDITOR_PORT", "eighty")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Client.Endpoint = ""
	assert.Error(t, cfg.Validate())
}
