package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	raw string
	err error
}

func (s *stubModel) Complete(_ context.Context, _ string) (string, error) {
	return s.raw, s.err
}

func TestExtractParsesCleanJSON(t *testing.T) {
	e := NewLLMExtractor(&stubModel{raw: `{
		"title": "チーム会議",
		"start": "2024-01-16T14:00:00+09:00",
		"end": "2024-01-16T15:00:00+09:00",
		"location": "渋谷",
		"confidence": 0.9
	}`})

	got, err := e.Extract(context.Background(), "明日の14時から渋谷で会議", ref)
	require.NoError(t, err)
	assert.Equal(t, "チーム会議", got.Title)
	assert.Equal(t, "渋谷", got.Location)
	assert.Equal(t, 0.9, got.Confidence)
	assert.True(t, got.Start.Equal(time.Date(2024, 1, 16, 14, 0, 0, 0, jst)))
}

func TestExtractRepairsFencedOutput(t *testing.T) {
	e := NewLLMExtractor(&stubModel{raw: "```json\n" + `{
		"title": "ランチ",
		"start": "2024-01-15T12:00:00+09:00",
		"end": "2024-01-15T13:00:00+09:00",
		"location": null,
		"confidence": 0.8
	}` + "\n```"})

	got, err := e.Extract(context.Background(), "予定 お昼", ref)
	require.NoError(t, err)
	assert.Equal(t, "ランチ", got.Title)
	assert.Empty(t, got.Location)
}

func TestExtractPropagatesModelError(t *testing.T) {
	e := NewLLMExtractor(&stubModel{err: errors.New("timeout")})
	_, err := e.Extract(context.Background(), "予定 会議", ref)
	assert.Error(t, err)
}

func TestExtractRejectsBadTimestamps(t *testing.T) {
	e := NewLLMExtractor(&stubModel{raw: `{
		"title": "会議",
		"start": "明日の14時",
		"end": "明日の15時",
		"confidence": 0.9
	}`})

	_, err := e.Extract(context.Background(), "予定 会議", ref)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad start time")
}
