package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/common"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "https://pokeapi.co/api/v2/pokemon/", cfg.API.BaseURL)
	assert.Equal(t, 100, cfg.API.Count)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3, cfg.API.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.API.Backoff)
	assert.Equal(t, 10, cfg.API.Workers)
	assert.True(t, cfg.API.SampleFallback)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "data/pokemon_cache.json", cfg.Cache.Path)
	assert.Equal(t, "data/relatorio.csv", cfg.Output.CSVPath)
	assert.Equal(t, 5, cfg.Output.TopN)
	assert.Equal(t, 300, cfg.Chart.DPI)
	assert.Equal(t, 25, cfg.Chat.TopK)
	assert.Equal(t, 8001, cfg.Server.Port)
}

func TestLoad_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
api:
  count: 20
  timeout: 5s
  sample_fallback: false
cache:
  enabled: false
chart:
  dpi: 100
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.API.Count)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.False(t, cfg.API.SampleFallback)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 100, cfg.Chart.DPI)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{name: "negative count", key: "api.count", value: -1},
		{name: "zero workers", key: "api.workers", value: 0},
		{name: "bad base url", key: "api.base_url", value: "not a url"},
		{name: "unknown provider", key: "llm.provider", value: "mystery"},
		{name: "port out of range", key: "server.port", value: 70000},
		{name: "overlap larger than chunk", key: "chat.chunk_overlap", value: 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("POKE_TEST_DIR", "/tmp/poke")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, filepath.Join(home, "data"), ExpandPath("~/data"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "/tmp/poke/cache.json", ExpandPath("$POKE_TEST_DIR/cache.json"))
	assert.Equal(t, "/tmp/poke/charts", ExpandPath("${POKE_TEST_DIR}/./tmp/../charts/"))
	assert.Equal(t, filepath.Join("data", "pokemon.csv"), ExpandPath("./data//pokemon.csv"))
	assert.Equal(t, "~user/data", ExpandPath("~user/data"))
}
