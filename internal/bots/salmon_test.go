package bots

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSalmonCallAndResponse(t *testing.T) {
	h := Salmon()
	c := &fakeClient{}

	assert.True(t, h.Enabled)
	assert.True(t, h.Filter.Matches(textEvent("anyone", "サモン！"), c))
	assert.True(t, h.Filter.Matches(textEvent("anyone", "サモン！今日もよろしく"), c))
	assert.False(t, h.Filter.Matches(textEvent("anyone", "今日はサモン！"), c), "anchored to the start")

	require.NoError(t, h.Action.Execute(context.Background(), textEvent("anyone", "サモン！"), c))
	require.Len(t, c.replies, 1)
	assert.Equal(t, "サーモン！", c.replies[0])
}
