package moodrec_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/behuman/moodrec"
	"github.com/behuman/moodrec/catalog"
)

func TestFacade(t *testing.T) {
	c, err := catalog.New(moodrec.Activity{ID: "a1", Active: true})
	require.NoError(t, err)

	engine, err := moodrec.New(c)
	require.NoError(t, err)

	res, err := engine.Recommend(context.Background(), moodrec.Request{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
}
