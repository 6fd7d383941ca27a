package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbeddingSchema_Validate(t *testing.T) {
	schema := EmbeddingSchema{CFDim: 3, DescriptorDim: 2}

	tests := []struct {
		name    string
		emb     *Embedding
		wantErr bool
	}{
		{name: "nil is absent", emb: nil},
		{name: "empty vectors are absent kinds", emb: &Embedding{OwnerID: "u1", DescriptorTokens: []string{"calm"}}},
		{name: "matching dims", emb: &Embedding{OwnerID: "u1", CF: []float64{1, 0, 0}, Descriptor: []float64{0, 1}}},
		{name: "cf mismatch", emb: &Embedding{OwnerID: "u1", CF: []float64{1, 0}}, wantErr: true},
		{name: "descriptor mismatch", emb: &Embedding{OwnerID: "u1", Descriptor: []float64{1, 0, 0}}, wantErr: true},
		{name: "nan", emb: &Embedding{OwnerID: "u1", CF: []float64{math.NaN(), 0, 0}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.Validate(OwnerUser, tt.emb)
			if tt.wantErr {
				assert.True(t, IsConfig(err), "want config error, got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}

	assert.True(t, IsConfig(EmbeddingSchema{}.Check()))
	assert.NoError(t, DefaultEmbeddingSchema().Check())
}

func TestTagSet(t *testing.T) {
	a := NewTagSet([]string{" Activo ", "AVENTURERO"}, []string{"baja autoestima", ""})
	b := NewTagSet([]string{"activo", "baja AUTOESTIMA"})

	assert.Len(t, a, 3)
	assert.True(t, a.Has("aventurero"))
	assert.Equal(t, 2, a.Intersect(b))
	assert.Equal(t, []string{"a", "b"}, NormalizeTags([]string{"A", " b", "a", ""}))
}

func TestActivity_SuitsAgeGroup(t *testing.T) {
	a := Activity{AgeGroup: "adult"}
	assert.True(t, a.SuitsAgeGroup(""))
	assert.True(t, a.SuitsAgeGroup("Adult"))
	assert.False(t, a.SuitsAgeGroup("teen"))

	a.AgeGroup = AgeGroupAll
	assert.True(t, a.SuitsAgeGroup("teen"))
}
