package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeights_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		in      Weights
		want    Weights
		wantErr bool
	}{
		{
			name: "defaults already sum to one",
			in:   DefaultWeights(),
			want: DefaultWeights(),
		},
		{
			name: "single component",
			in:   Weights{CF: 1},
			want: Weights{CF: 1},
		},
		{
			name: "divided by sum",
			in:   Weights{CF: 2, Tag: 1, Semantic: 1},
			want: Weights{CF: 0.5, Tag: 0.25, Semantic: 0.25},
		},
		{
			name:    "zero sum",
			in:      Weights{},
			wantErr: true,
		},
		{
			name:    "negative component",
			in:      Weights{CF: 1, Tag: -0.5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsConfig(err))
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want.CF, got.CF, 1e-12)
			assert.InDelta(t, tt.want.Tag, got.Tag, 1e-12)
			assert.InDelta(t, tt.want.Semantic, got.Semantic, 1e-12)
			assert.InDelta(t, tt.want.Context, got.Context, 1e-12)
			assert.InDelta(t, 1.0, got.Sum(), 1e-12)
		})
	}
}

func TestWeightsFromMap(t *testing.T) {
	w, err := WeightsFromMap(map[string]any{"cf": 1, "tag": 0.5, "context": float32(0.5)})
	require.NoError(t, err)
	assert.Equal(t, Weights{CF: 1, Tag: 0.5, Context: 0.5}, w)

	w, err = WeightsFromMap(map[string]any{ComponentSemantic: "0.25", ComponentContext: 0.75})
	require.NoError(t, err)
	assert.Equal(t, Weights{Semantic: 0.25, Context: 0.75}, w)

	_, err = WeightsFromMap(map[string]any{"popularity": 1.0})
	assert.True(t, IsConfig(err))

	_, err = WeightsFromMap(map[string]any{"cf": "high"})
	assert.True(t, IsConfig(err))
}

func TestDomainError_Wrapped(t *testing.T) {
	base := NewValidationError(ModuleInteraction, "unknown type %q", "like")
	wrapped := fmt.Errorf("record: %w", base)

	assert.True(t, IsValidation(wrapped))
	assert.False(t, IsConfig(wrapped))
	assert.Equal(t, base, GetDomainError(wrapped))
	assert.Equal(t, `interaction: unknown type "like"`, base.Error())

	assert.True(t, IsStoreNotFound(fmt.Errorf("get: %w", ErrStoreNotFound)))
	assert.False(t, IsStoreNotFound(NewNotFoundError(ModuleCatalog, "activity x")))
	assert.False(t, IsDomainError(nil))
}
