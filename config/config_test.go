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
	c := Default()
	assert.Equal(t, "127.0.0.1", c.Node.Host)
	assert.Equal(t, time.Second, c.GossipInterval())
	assert.Equal(t, 100*time.Millisecond, c.GossipSlice())
	assert.Equal(t, 5*time.Second, c.BindRetryInterval())
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults for missing fields", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "cobweb.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[node]
host = "0.0.0.0"
port = 9000
`), 0o644))

		c, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0", c.Node.Host)
		assert.Equal(t, uint16(9000), c.Node.Port)
		assert.Equal(t, time.Second, c.GossipInterval())
		assert.Equal(t, 5*time.Second, c.DialTimeout())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
		assert.Error(t, err)
	})
}
