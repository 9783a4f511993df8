package calendar

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleURLRoundTrip(t *testing.T) {
	ev := &Event{
		Title:       "テスト会議",
		Description: "Bot経由で作成されたテスト予定",
		Start:       time.Date(2024, 12, 25, 14, 30, 0, 0, jst),
		End:         time.Date(2024, 12, 25, 16, 30, 0, 0, jst),
		Location:    "東京駅",
	}

	link := GoogleURL(ev)
	u, err := url.Parse(link)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "TEMPLATE", q.Get("action"))
	assert.Equal(t, "テスト会議", q.Get("text"))
	assert.Equal(t, "Bot経由で作成されたテスト予定", q.Get("details"))
	assert.Equal(t, "東京駅", q.Get("location"))
	// local wall-clock, no zone suffix
	assert.Equal(t, "20241225T143000/20241225T163000", q.Get("dates"))
}

func TestGoogleURLDefaultsAndOmissions(t *testing.T) {
	ev := &Event{
		Start: time.Date(2024, 1, 16, 11, 0, 0, 0, jst),
		End:   time.Date(2024, 1, 16, 12, 0, 0, 0, jst),
	}

	u, err := url.Parse(GoogleURL(ev))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "予定", q.Get("text"), "empty title falls back to a generic one")
	assert.False(t, q.Has("location"))
}
