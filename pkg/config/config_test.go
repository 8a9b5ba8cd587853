package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
scraper:
  workers: "4"
  timeout: 15s
database:
  path: test.db
stores:
  - name: Woblink
    url: https://woblink.com/
    search_url: "{0}katalog/ebooki?szukasz={1}&limit={2}"
    words_drm_unlocked: [znak, wodny]
    selectors:
      results:
        - elem: //div
          class: book-item
      title:
        - elem: .//h2
      cover:
        - elem: .//img
          suffix: /@src
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "4", cfg.Scraper.Workers)
	assert.Equal(t, 15*time.Second, cfg.Scraper.Timeout)
	assert.Equal(t, "test.db", cfg.Database.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)

	require.Len(t, cfg.Stores, 1)
	s := cfg.Stores[0]
	assert.Equal(t, "Woblink", s.Name)
	assert.Equal(t, []string{"znak", "wodny"}, s.WordsDRMUnlocked)
	assert.Nil(t, s.WordsDRMLocked)
	require.Len(t, s.Selectors.Cover, 1)
	assert.Equal(t, "/@src", s.Selectors.Cover[0].Suffix)
	assert.False(t, s.Selectors.Empty())
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("stores: []"))
	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.Scraper.Workers)
	assert.Equal(t, DefaultTimeout, cfg.Scraper.Timeout)
	assert.Equal(t, "results.db", cfg.Database.Path)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing name", "stores:\n  - url: http://a/\n    search_url: x", "name is required"},
		{"missing url", "stores:\n  - name: a\n    search_url: x", "url is required"},
		{"missing search url", "stores:\n  - name: a\n    url: http://a/", "search_url is required"},
		{"duplicate", "stores:\n  - {name: a, url: u, search_url: s}\n  - {name: a, url: u, search_url: s}", "duplicate store name"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadConfigAndResolvePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stores.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	t.Setenv(EnvPath, path)
	assert.Equal(t, path, ResolvePath(""))
	assert.Equal(t, "other.yml", ResolvePath("other.yml"))

	cfg, err := LoadConfig(ResolvePath(""))
	require.NoError(t, err)
	_, ok := cfg.Store("Woblink")
	assert.True(t, ok)
	_, ok = cfg.Store("missing")
	assert.False(t, ok)

	_, err = LoadConfig(filepath.Join(dir, "nope.yml"))
	assert.Error(t, err)
}

func TestExampleConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "config.example.yml"))
	require.NoError(t, err)
	require.Len(t, cfg.Stores, 3)

	woblink, ok := cfg.Store("Woblink")
	require.True(t, ok)
	assert.True(t, woblink.Render)
	assert.False(t, woblink.Selectors.Empty())
	assert.Len(t, woblink.Selectors.Price, 2)

	legimi, ok := cfg.Store("Legimi")
	require.True(t, ok)
	assert.True(t, legimi.ExternalOnly)
	assert.True(t, legimi.Selectors.Empty())
	assert.Equal(t, 30*time.Second, cfg.Scraper.Timeout)
}
