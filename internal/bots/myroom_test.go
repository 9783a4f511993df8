package bots

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ojisan-dev/nostrbot/internal/influx"
)

type fakeRoom struct {
	readings []influx.Reading
	err      error
}

func (r *fakeRoom) RoomData(_ context.Context) ([]influx.Reading, error) {
	return r.readings, r.err
}

func f64(v float64) *float64 { return &v }

func TestMyRoomFilterExactWord(t *testing.T) {
	h := MyRoom(&fakeRoom{}, nil)
	c := &fakeClient{}

	assert.True(t, h.Filter.Matches(textEvent("anyone", "まいへや"), c))
	assert.True(t, h.Filter.Matches(textEvent("anyone", "  まいへや\n"), c), "surrounding whitespace is fine")
	assert.False(t, h.Filter.Matches(textEvent("anyone", "まいへやの様子"), c), "compound words must not fire")
	assert.False(t, h.Filter.Matches(textEvent("anyone", "今日のまいへや"), c))
}

func TestMyRoomAuthorAllowList(t *testing.T) {
	h := MyRoom(&fakeRoom{}, []string{"alice", " bob "})
	c := &fakeClient{}

	assert.True(t, h.Filter.Matches(textEvent("alice", "まいへや"), c))
	assert.True(t, h.Filter.Matches(textEvent("bob", "まいへや"), c))
	assert.False(t, h.Filter.Matches(textEvent("mallory", "まいへや"), c))
}

func TestMyRoomReportsReadings(t *testing.T) {
	room := &fakeRoom{readings: []influx.Reading{
		{Device: "寝室", Temperature: f64(21.5), Humidity: f64(48)},
		{Device: "リビング", Temperature: f64(23.0)},
	}}
	h := MyRoom(room, nil)
	c := &fakeClient{}

	require.NoError(t, h.Action.Execute(context.Background(), textEvent("anyone", "まいへや"), c))
	require.Len(t, c.replies, 1)
	assert.Contains(t, c.replies[0], "🏠 部屋の現在の状況：")
	assert.Contains(t, c.replies[0], "寝室：21.5℃ / 48.0%")
	assert.Contains(t, c.replies[0], "リビング：23.0℃ / --%", "missing humidity shows a placeholder")
}

func TestMyRoomSourceError(t *testing.T) {
	h := MyRoom(&fakeRoom{err: errors.New("influx down")}, nil)
	c := &fakeClient{}

	err := h.Action.Execute(context.Background(), textEvent("anyone", "まいへや"), c)
	assert.Error(t, err)
	require.Len(t, c.replies, 1, "the author still gets an apology")
	assert.Contains(t, c.replies[0], "⚠️")
}

func TestMyRoomNoReadings(t *testing.T) {
	h := MyRoom(&fakeRoom{}, nil)
	c := &fakeClient{}

	require.NoError(t, h.Action.Execute(context.Background(), textEvent("anyone", "まいへや"), c))
	require.Len(t, c.replies, 1)
	assert.Contains(t, c.replies[0], "❌")
}
