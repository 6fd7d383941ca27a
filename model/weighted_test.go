package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behuman/moodrec/core"
)

func TestWeightedModel(t *testing.T) {
	m, err := NewWeightedModel(core.DefaultWeights())
	require.NoError(t, err)
	assert.Equal(t, "hybrid", m.Name())

	scores := core.ComponentScores{Tag: 0.75, Context: 0.5}
	got, err := m.Predict(scores.AsFeatures())
	require.NoError(t, err)
	assert.InDelta(t, 0.25*0.75+0.20*0.5, got, 1e-12)
	assert.Equal(t, m.Blend(scores), got)
}

func TestWeightedModel_NormalizesOverride(t *testing.T) {
	m, err := NewWeightedModel(core.Weights{CF: 2, Context: 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, m.Weights.CF, 1e-12)
	assert.InDelta(t, 0.5*0.8+0.5*0.2, m.Blend(core.ComponentScores{CF: 0.8, Context: 0.2}), 1e-12)

	_, err = NewWeightedModel(core.Weights{})
	assert.True(t, core.IsConfig(err))
}
