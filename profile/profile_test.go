package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behuman/moodrec/core"
	"github.com/behuman/moodrec/store"
)

func TestMemoryProvider(t *testing.T) {
	p := NewMemoryProvider(core.UserProfile{UserID: "u1", ProfileTags: []string{"Activo", "activo"}, AgeGroup: "Adult"})

	up, err := p.Profile(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, up)
	assert.Equal(t, []string{"activo"}, up.ProfileTags)
	assert.Equal(t, "adult", up.AgeGroup)

	up, err = p.Profile(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, up)
}

func TestKVProvider(t *testing.T) {
	kv := store.NewMemoryStore()
	defer kv.Close()
	p := NewKVProvider(kv)
	ctx := context.Background()

	up, err := p.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, up)

	require.NoError(t, p.Put(ctx, core.UserProfile{UserID: "u1", SituationTags: []string{"Ansiedad"}}))
	up, err = p.Profile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, up)
	assert.Equal(t, []string{"ansiedad"}, up.SituationTags)

	err = p.Put(ctx, core.UserProfile{})
	assert.True(t, core.IsValidation(err))
}

func TestKVProvider_CorruptProfileIsUnavailable(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	defer kv.Close()
	require.NoError(t, kv.Set(ctx, "profile:u1", []byte("{not json")))

	_, err := NewKVProvider(kv).Profile(ctx, "u1")
	assert.True(t, core.IsUnavailable(err), "want unavailable error, got %v", err)
}
