package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "data", cfg.Data.Root)
	require.Equal(t, 10000, cfg.Summary.DirectLimitChars)
	require.Equal(t, 8, cfg.Summary.Clusters)
	require.Equal(t, 100, cfg.Notice.WindowTokens)
	require.Equal(t, 50, cfg.Notice.OverlapTokens)
	require.Equal(t, 4, cfg.Notice.TopK)
	require.Equal(t, "text-embedding-3-small", cfg.OpenAI.EmbeddingModel)
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
data:
  root: /srv/settlements
db:
  dsn: postgres://localhost/settlements
summary:
  clusters: 4
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/settlements", cfg.Data.Root)
	require.Equal(t, "postgres://localhost/settlements", cfg.DB.DSN)
	require.Equal(t, 4, cfg.Summary.Clusters)
	// untouched defaults survive
	require.Equal(t, 1000, cfg.Summary.ChunkChars)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty root", func(c *Config) { c.Data.Root = "" }},
		{"zero timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }},
		{"zero clusters", func(c *Config) { c.Summary.Clusters = 0 }},
		{"overlap >= window", func(c *Config) { c.Notice.OverlapTokens = c.Notice.WindowTokens }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := Load("")
			require.NoError(t, err)
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
