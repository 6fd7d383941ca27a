package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behuman/moodrec/core"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "moodrec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, core.DefaultWeights(), cfg.Scoring.Weights)
	assert.Equal(t, 0.5, cfg.Scoring.Boosts.Emotion)
	assert.Equal(t, 15*time.Minute, cfg.Engagement.RefreshInterval)
	assert.Equal(t, 256, cfg.Embedding.Dims.CFDim)
	assert.Equal(t, BackendKV, cfg.Embedding.Backend)
	assert.False(t, cfg.Scoring.ExcludeExposed.Enabled)
	assert.Equal(t, 7*24*time.Hour, cfg.Scoring.ExcludeExposed.Window)
	assert.Nil(t, cfg.Scoring.ExcludeExposed.InteractionTypes())

	rc := cfg.Scoring.RecommendConfig()
	assert.Equal(t, 10, rc.DefaultLimit())
	assert.Equal(t, 2*time.Second, rc.Timeout())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
log:
  level: debug
scoring:
  weights: {cf: 0.5, tag: 0.5, semantic: 0, context: 0}
  timeout: 500ms
  explanations:
    - when: "tag > 0.9"
      message: "a close match"
engagement:
  refresh_interval: 5m
embedding:
  backend: sqlite
  sqlite_path: /tmp/emb.db
  dims: {cf_dim: 64, descriptor_dim: 128}
`)
	t.Setenv("MOODREC_SCORING__WEIGHTS__CF", "0.25")
	t.Setenv("MOODREC_SCORING__BLOCKED_ACTIVITIES", "a1, a2")
	t.Setenv("MOODREC_SCORING__EXCLUDE_EXPOSED__ENABLED", "true")
	t.Setenv("MOODREC_SCORING__EXCLUDE_EXPOSED__TYPES", "view, Complete")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 0.25, cfg.Scoring.Weights.CF)
	assert.Equal(t, 0.5, cfg.Scoring.Weights.Tag)
	assert.Equal(t, 500*time.Millisecond, cfg.Scoring.Timeout)
	assert.Equal(t, []string{"a1", "a2"}, cfg.Scoring.BlockedActivities)
	assert.True(t, cfg.Scoring.ExcludeExposed.Enabled)
	assert.Equal(t, []core.InteractionType{core.InteractionView, core.InteractionComplete},
		cfg.Scoring.ExcludeExposed.InteractionTypes())
	require.Len(t, cfg.Scoring.Explanations, 1)
	assert.Equal(t, "a close match", cfg.Scoring.Explanations[0].Message)
	assert.Equal(t, 5*time.Minute, cfg.Engagement.RefreshInterval)
	assert.Equal(t, 64, cfg.Embedding.Dims.CFDim)
	assert.Equal(t, BackendSQLite, cfg.Embedding.Backend)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	path := writeFile(t, "metrics:\n  addr: \":9191\"\n")
	t.Setenv(PathEnvVar, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9191", cfg.Metrics.Addr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero weights", func(c *Config) { c.Scoring.Weights = core.Weights{} }},
		{"negative weight", func(c *Config) { c.Scoring.Weights.CF = -1 }},
		{"negative boost", func(c *Config) { c.Scoring.Boosts.Weekend = -0.1 }},
		{"no workers", func(c *Config) { c.Scoring.Workers = 0 }},
		{"limits", func(c *Config) { c.Scoring.MaxLimit = 5; c.Scoring.DefaultLimit = 10 }},
		{"exposure type", func(c *Config) { c.Scoring.ExcludeExposed.Types = []string{"glance"} }},
		{"exposure window", func(c *Config) { c.Scoring.ExcludeExposed.Window = -time.Hour }},
		{"store backend", func(c *Config) { c.Store.Backend = "etcd" }},
		{"badger dir", func(c *Config) { c.Store.Backend = "badger" }},
		{"dims", func(c *Config) { c.Embedding.Dims.CFDim = 0 }},
		{"embedding backend", func(c *Config) { c.Embedding.Backend = "milvus" }},
		{"feast project", func(c *Config) { c.Embedding.Backend = BackendFeast }},
		{"interaction backend", func(c *Config) { c.Interaction.Backend = "kafka" }},
		{"refresh interval", func(c *Config) { c.Engagement.RefreshInterval = 0 }},
		{"sink", func(c *Config) { c.Engagement.Sink = "s3" }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, core.IsConfig(err), err.Error())
		})
	}
}
