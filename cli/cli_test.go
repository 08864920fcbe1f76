package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cameroncuttingedge/place/canvas"
	"github.com/cameroncuttingedge/place/config"
	"github.com/cameroncuttingedge/place/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "place.db")
	cfgPath := filepath.Join(dir, "place.yaml")
	body := fmt.Sprintf(`
board:
  size: 4
  max_colors: 16
auth:
  secret_key: k
pixels:
  backend: memory
provenance:
  path: %q
`, dbPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))
	return cfgPath, dbPath
}

func seedLog(t *testing.T, dbPath string) {
	t.Helper()
	s, err := storage.OpenSQLite(dbPath)
	require.NoError(t, err)
	defer s.Close()
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(context.Background(), canvas.DrawEvent{X: 1, Y: 2, Color: 5, User: "a", Timestamp: ts}))
	require.NoError(t, s.Append(context.Background(), canvas.DrawEvent{X: 3, Y: 3, Color: 9, User: "b", Timestamp: ts}))
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "replay", "export", "discover"} {
		assert.True(t, names[want], want)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
}

func TestOpenBackends_MemoryRebuildsFromLog(t *testing.T) {
	cfgPath, dbPath := memoryConfig(t)
	seedLog(t, dbPath)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	b, err := openBackends(context.Background(), cfg)
	require.NoError(t, err)
	defer b.close()

	c, err := b.pixels.Pixel(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, canvas.Color(5), c)
	c, err = b.pixels.Pixel(context.Background(), 3, 3)
	require.NoError(t, err)
	assert.Equal(t, canvas.Color(9), c)
}

func TestExportCommand_WritesPDF(t *testing.T) {
	cfgPath, dbPath := memoryConfig(t)
	seedLog(t, dbPath)
	out := filepath.Join(t.TempDir(), "board.pdf")

	cmd := NewRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"--config", cfgPath, "export", "-o", out})
	require.NoError(t, cmd.Execute())

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.True(t, info.Size() > 0)
	assert.Contains(t, stdout.String(), out)
}

func TestReplayCommand_RequiresRedis(t *testing.T) {
	cfgPath, _ := memoryConfig(t)
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--config", cfgPath, "replay"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestListenPort(t *testing.T) {
	p, err := listenPort(":8000")
	require.NoError(t, err)
	assert.Equal(t, 8000, p)

	_, err = listenPort("8000")
	assert.Error(t, err)
}
