package urlguard

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 64, cfg.Engine.MaxConcurrent)
	assert.Equal(t, 16, cfg.Engine.BatchWorkers)
	assert.Equal(t, 8, cfg.Engine.TopFeatures)
	assert.Equal(t, 65536, cfg.Cache.Size)
	assert.Equal(t, time.Hour, cfg.Cache.parsedTTL)
	assert.Equal(t, 2*time.Second, cfg.Collectors.parsedDeadline)
	assert.False(t, cfg.Collectors.DNS.Enabled)
	assert.False(t, cfg.Collectors.Content.Enabled)

	assert.InDelta(t, 1.0,
		cfg.Ensemble.Weights[ModelForest]+cfg.Ensemble.Weights[ModelBoost]+
			cfg.Ensemble.Weights[ModelMargin]+cfg.Ensemble.Weights[ModelLogit], 1e-9)
	assert.Equal(t, 0.06, cfg.Ensemble.VarianceThreshold)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	yaml := `
engine:
  max_concurrent: 8
  top_features: 4
cache:
  size: 1024
  ttl: 10m
collectors:
  deadline: 500ms
  dns:
    enabled: true
    resolver: "192.0.2.1:53"
ensemble:
  variance_threshold: 0.1
lexical:
  suspicious_tlds: [".zz", "yy"]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Engine.MaxConcurrent)
	assert.Equal(t, 4, cfg.Engine.TopFeatures)
	assert.Equal(t, 16, cfg.Engine.BatchWorkers) // default fills the gap
	assert.Equal(t, 1024, cfg.Cache.Size)
	assert.Equal(t, 10*time.Minute, cfg.Cache.parsedTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.Collectors.parsedDeadline)
	assert.True(t, cfg.Collectors.DNS.Enabled)
	assert.Equal(t, "192.0.2.1:53", cfg.Collectors.DNS.Resolver)
	assert.Equal(t, 0.1, cfg.Ensemble.VarianceThreshold)
	assert.Equal(t, []string{".zz", "yy"}, cfg.Lexical.SuspiciousTLDs)
}

func TestLoadConfigLexicalOverride(t *testing.T) {
	lc := NewLexicalCollector(LexicalConfig{SuspiciousTLDs: []string{".ZZ", "yy"}})

	_, hasZZ := lc.tlds["zz"]
	_, hasYY := lc.tlds["yy"]
	_, hasTK := lc.tlds["tk"]
	assert.True(t, hasZZ)
	assert.True(t, hasYY)
	assert.False(t, hasTK) // override replaces the built-in set
}

func TestLoadConfigInvalidDurationFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  ttl: nonsense\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Cache.parsedTTL)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yml")
	assert.Error(t, err)
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("{unclosed: ["), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
