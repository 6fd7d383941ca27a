package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behuman/moodrec/core"
)

func TestExplainer_DefaultPriority(t *testing.T) {
	x, err := NewExplainer(nil, "")
	require.NoError(t, err)

	tests := []struct {
		name   string
		scores core.ComponentScores
		want   string
	}{
		{"cf wins over tag", core.ComponentScores{CF: 0.9, Tag: 0.9, Context: 1}, "similar users enjoyed this"},
		{"tag", core.ComponentScores{CF: 0.7, Tag: 0.75}, "matches your profile and situation"},
		{"context", core.ComponentScores{Context: 0.6}, "fits this moment and mood"},
		{"thresholds are strict", core.ComponentScores{CF: 0.7, Tag: 0.7, Context: 0.5}, DefaultFallback},
		{"fallback", core.ComponentScores{}, DefaultFallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := x.Explain(tt.scores, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExplainer_CustomRules(t *testing.T) {
	x, err := NewExplainer([]Rule{
		{When: "semantic > 0.5 && final >= 0.4", Message: "close to what you described"},
	}, "just for you")
	require.NoError(t, err)

	got, err := x.Explain(core.ComponentScores{Semantic: 0.6}, 0.4)
	require.NoError(t, err)
	assert.Equal(t, "close to what you described", got)

	got, err = x.Explain(core.ComponentScores{Semantic: 0.6}, 0.1)
	require.NoError(t, err)
	assert.Equal(t, "just for you", got)
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile("cf >")
	require.Error(t, err)
	assert.True(t, core.IsConfig(err))

	_, err = Compile("cf + 1.0")
	require.Error(t, err)
	assert.True(t, core.IsConfig(err))

	_, err = Compile("unknown > 1.0")
	require.Error(t, err)

	_, err = NewExplainer([]Rule{{When: "cf > 0.1"}}, "")
	assert.True(t, core.IsConfig(err))
}
