package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behuman/moodrec/core"
)

func items(acts ...core.Activity) []*core.Item {
	out := make([]*core.Item, len(acts))
	for i := range acts {
		out[i] = core.NewItem(&acts[i])
	}
	return out
}

func ids(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestFilterNode(t *testing.T) {
	cands := items(
		core.Activity{ID: "a1", Active: true},
		core.Activity{ID: "a2", Active: false},
		core.Activity{ID: "a3", Active: true, AgeGroup: "teen"},
		core.Activity{ID: "a4", Active: true, SituationTags: []string{"Fiesta"}},
		core.Activity{ID: "a5", Active: true},
		core.Activity{ID: "a6", Active: true, AgeGroup: "all"},
	)
	rctx := &core.RecommendContext{
		User:      &core.UserProfile{UserID: "u1", AgeGroup: "adult"},
		AvoidTags: []string{"fiesta", "competitivo"},
		Exclude:   map[string]struct{}{"a5": {}},
	}
	node := &FilterNode{Filters: []Filter{ActiveFilter{}, &ExcludeFilter{}, AgeGroupFilter{}, AvoidTagFilter{}}}

	out, err := node.Process(context.Background(), rctx, cands)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a6"}, ids(out))

	assert.Equal(t, "filter.inactive", cands[1].Labels[core.LabelFiltered].Source)
	assert.Equal(t, "filter.age_group", cands[2].Labels[core.LabelFiltered].Source)
	assert.Equal(t, "filter.avoid_tags", cands[3].Labels[core.LabelFiltered].Source)
	assert.Equal(t, "filter.exclude", cands[4].Labels[core.LabelFiltered].Source)

	assert.Equal(t, 4, CountFiltered(cands))
}

func TestExcludeFilter_StaticIDs(t *testing.T) {
	f := &ExcludeFilter{ItemIDs: []string{"a1"}}
	it := items(core.Activity{ID: "a1", Active: true})[0]
	ok, err := f.ShouldFilter(context.Background(), &core.RecommendContext{}, it)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAgeGroupFilter_ColdStartKeepsEverything(t *testing.T) {
	it := items(core.Activity{ID: "a1", AgeGroup: "teen"})[0]
	ok, err := AgeGroupFilter{}.ShouldFilter(context.Background(), &core.RecommendContext{}, it)
	require.NoError(t, err)
	assert.False(t, ok)
}

type errFilter struct{}

func (errFilter) Name() string { return "filter.err" }
func (errFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return false, errors.New("lookup failed")
}

func TestFilterNode_ErrorKeepsItem(t *testing.T) {
	node := &FilterNode{Filters: []Filter{errFilter{}}}
	cands := items(core.Activity{ID: "a1", Active: true})
	out, err := node.Process(context.Background(), &core.RecommendContext{}, cands)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, "filter.err", out[0].Labels["filter_error"].Source)
}
