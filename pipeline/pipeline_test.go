package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behuman/moodrec/core"
)

type funcNode struct {
	name string
	fn   func([]*core.Item) ([]*core.Item, error)
}

func (n funcNode) Name() string { return n.name }
func (n funcNode) Kind() Kind   { return KindFilter }
func (n funcNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return n.fn(items)
}

func TestPipeline_RunInOrder(t *testing.T) {
	var order []string
	p := &Pipeline{Nodes: []Node{
		funcNode{"drop-first", func(items []*core.Item) ([]*core.Item, error) {
			order = append(order, "drop-first")
			return items[1:], nil
		}},
		funcNode{"count", func(items []*core.Item) ([]*core.Item, error) {
			order = append(order, "count")
			assert.Len(t, items, 1)
			return items, nil
		}},
	}}

	items := []*core.Item{{ID: "a"}, {ID: "b"}}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, items)
	require.NoError(t, err)
	assert.Equal(t, []string{"drop-first", "count"}, order)
	assert.Equal(t, "b", out[0].ID)
}

func TestPipeline_ErrorNamesNode(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{funcNode{"broken", func([]*core.Item) ([]*core.Item, error) { return nil, boom }}}}
	_, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
}

func TestPipeline_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	p := &Pipeline{Nodes: []Node{funcNode{"n", func(items []*core.Item) ([]*core.Item, error) {
		called = true
		return items, nil
	}}}}
	_, err := p.Run(ctx, &core.RecommendContext{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
