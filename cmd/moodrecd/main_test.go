package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behuman/moodrec/config"
	"github.com/behuman/moodrec/core"
)

const catalogYAML = `
activities:
  - id: yoga-01
    name: Yoga grupal
    situation_tags: [mindfulness, calming]
    active: true
  - id: fiesta-02
    name: Fiesta de salsa
    situation_tags: [fiesta, social]
    active: true
`

func TestBuild_MemoryStack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))

	cfg := config.Default()
	cfg.Catalog.Path = path
	cfg.Engagement.Sink = config.BackendKV
	require.NoError(t, cfg.Validate())

	ctx := context.Background()
	a, err := build(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	_, err = a.engine.RecordInteraction(ctx, core.Interaction{UserID: "u1", ActivityID: "yoga-01", Type: core.InteractionStart})
	require.NoError(t, err)
	report, err := a.engine.RefreshEngagementAggregates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pairs)

	res, err := a.engine.Recommend(ctx, core.RecommendRequest{
		UserID:         "u1",
		SituationID:    "perdida_familiar",
		EmotionalState: "anxious",
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "yoga-01", res.Items[0].ActivityID)
	assert.True(t, res.ColdStart)
}

func TestBuild_ExcludeExposed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))

	cfg := config.Default()
	cfg.Catalog.Path = path
	cfg.Scoring.ExcludeExposed.Enabled = true
	cfg.Scoring.ExcludeExposed.Types = []string{"start"}
	require.NoError(t, cfg.Validate())

	ctx := context.Background()
	a, err := build(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	_, err = a.engine.RecordInteraction(ctx, core.Interaction{UserID: "u1", ActivityID: "yoga-01", Type: core.InteractionStart})
	require.NoError(t, err)

	res, err := a.engine.Recommend(ctx, core.RecommendRequest{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "fiesta-02", res.Items[0].ActivityID)
}

func TestRecommendRequest_Weights(t *testing.T) {
	req, err := recommendRequest("u1", "", "", `{"cf": 1, "tag": 0}`, 5)
	require.NoError(t, err)
	require.NotNil(t, req.Weights)
	assert.Equal(t, 1.0, req.Weights.CF)
	assert.Equal(t, 5, req.Limit)

	_, err = recommendRequest("u1", "", "", `{"popularity": 1}`, 0)
	assert.True(t, core.IsConfig(err))

	_, err = recommendRequest("u1", "", "", `not json`, 0)
	assert.True(t, core.IsConfig(err))
}
