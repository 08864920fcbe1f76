package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "place.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWithEnvSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "k")
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Board.Size)
	assert.Equal(t, 16, cfg.Board.MaxColors)
	assert.Equal(t, 2*time.Second, cfg.Bounds().Delay)
	assert.Equal(t, "redis:6379", cfg.RedisAddr())
	assert.Equal(t, "k", cfg.Auth.SecretKey)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
listen: ":9000"
board:
  size: 4
  max_colors: 4
  delay_s: 5
auth:
  secret_key: from-file
pixels:
  backend: memory
`)
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "7000")
	t.Setenv("ALGORITHM", "HS512")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, 4, cfg.Bounds().Size)
	assert.Equal(t, 5*time.Second, cfg.Bounds().Delay)
	assert.Equal(t, "from-file", cfg.Auth.SecretKey)
	assert.Equal(t, "HS512", cfg.Auth.Algorithm)
	assert.Equal(t, "cache:7000", cfg.RedisAddr())
	assert.Equal(t, BackendMemory, cfg.Pixels.Backend)
	// untouched sections keep defaults
	assert.Equal(t, "place_bitmap", cfg.Pixels.Key)
}

func TestLoad_BadPort(t *testing.T) {
	t.Setenv("SECRET_KEY", "k")
	t.Setenv("REDIS_PORT", "six")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Board.Size = 5000
	cfg.Board.MaxColors = 17
	cfg.Board.DelayS = -1
	cfg.Pixels.Backend = "disk"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"board.size", "board.max_colors", "board.delay_s", "secret_key", "pixels.backend"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
