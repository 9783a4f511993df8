package calendar

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jst = time.FixedZone("JST", 9*60*60)

// reference instant used throughout: 2024-01-15 10:00 JST
var ref = time.Date(2024, 1, 15, 10, 0, 0, 0, jst)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubExtractor struct {
	result *ParseResult
	err    error
}

func (s *stubExtractor) Extract(_ context.Context, _ string, _ time.Time) (*ParseResult, error) {
	return s.result, s.err
}

func TestResolveNilWithoutMarker(t *testing.T) {
	p := New(nil, testLogger())
	assert.Nil(t, p.Resolve(context.Background(), "こんにちは", ref))
	assert.Nil(t, p.Resolve(context.Background(), "予定です", ref))
}

func TestFallbackTomorrowWithHour(t *testing.T) {
	p := New(nil, testLogger())

	ev := p.Resolve(context.Background(), "予定 明日の14時から会議", ref)
	require.NotNil(t, ev)

	assert.True(t, ev.Start.Equal(time.Date(2024, 1, 16, 14, 0, 0, 0, jst)), "start = %v", ev.Start)
	assert.True(t, ev.End.Equal(time.Date(2024, 1, 16, 15, 0, 0, 0, jst)), "end = %v", ev.End)
	assert.Contains(t, ev.Title, "会議")
}

func TestFallbackTomorrowWithoutHour(t *testing.T) {
	p := New(nil, testLogger())

	ev := p.Resolve(context.Background(), "予定 明日ランチ", ref)
	require.NotNil(t, ev)

	// the day shift applies even when no hour is named
	assert.True(t, ev.Start.Equal(time.Date(2024, 1, 16, 11, 0, 0, 0, jst)), "start = %v", ev.Start)
	assert.True(t, ev.End.Equal(time.Date(2024, 1, 16, 12, 0, 0, 0, jst)), "end = %v", ev.End)
	assert.Equal(t, "明日ランチ", ev.Title)
}

func TestFallbackAfternoonQualifier(t *testing.T) {
	p := New(nil, testLogger())

	ev := p.Resolve(context.Background(), "予定 午後2時からランチ", ref)
	require.NotNil(t, ev)
	assert.True(t, ev.Start.Equal(time.Date(2024, 1, 15, 14, 0, 0, 0, jst)))
	assert.True(t, ev.End.Equal(time.Date(2024, 1, 15, 15, 0, 0, 0, jst)))
}

func TestFallbackDefaultSlot(t *testing.T) {
	p := New(nil, testLogger())

	ev := p.Resolve(context.Background(), "予定 打ち合わせ", ref)
	require.NotNil(t, ev)
	assert.True(t, ev.Start.Equal(ref.Add(time.Hour)))
	assert.True(t, ev.End.Equal(ref.Add(2*time.Hour)))
	assert.Equal(t, "打ち合わせ", ev.Title)
}

func TestResolveStripsMentionPrefix(t *testing.T) {
	p := New(nil, testLogger())

	content := "nostr:npub180cvv07tjdrrgpa0j7j7tmnyl2yr6yr7l8j4s3evf6u64th6gkwsyjh6w6 予定 明日の14時から会議"
	ev := p.Resolve(context.Background(), content, ref)
	require.NotNil(t, ev)
	assert.Equal(t, "明日の14時から会議", ev.Title)
	assert.True(t, ev.Start.Equal(time.Date(2024, 1, 16, 14, 0, 0, 0, jst)))
}

func TestConfidenceGateDiscardsLowResults(t *testing.T) {
	stub := &stubExtractor{result: &ParseResult{
		Title:      "モデルの答え",
		Start:      time.Date(2024, 2, 1, 9, 0, 0, 0, jst),
		End:        time.Date(2024, 2, 1, 10, 0, 0, 0, jst),
		Confidence: 0.5,
	}}
	p := New(stub, testLogger())

	ev := p.Resolve(context.Background(), "予定 打ち合わせ", ref)
	require.NotNil(t, ev)
	// low confidence falls back to the deterministic path
	assert.Equal(t, "打ち合わせ", ev.Title)
	assert.True(t, ev.Start.Equal(ref.Add(time.Hour)))
}

func TestConfidentResultAccepted(t *testing.T) {
	stub := &stubExtractor{result: &ParseResult{
		Title:      "チーム会議",
		Start:      time.Date(2024, 1, 16, 14, 0, 0, 0, jst),
		End:        time.Date(2024, 1, 16, 15, 30, 0, 0, jst),
		Location:   "渋谷",
		Confidence: 0.92,
	}}
	p := New(stub, testLogger())

	ev := p.Resolve(context.Background(), "予定 明日の14時から渋谷で会議", ref)
	require.NotNil(t, ev)
	assert.Equal(t, "チーム会議", ev.Title)
	assert.Equal(t, "渋谷", ev.Location)
	assert.True(t, ev.Start.Equal(time.Date(2024, 1, 16, 14, 0, 0, 0, jst)))
}

func TestExtractorErrorFallsBack(t *testing.T) {
	stub := &stubExtractor{err: errors.New("network down")}
	p := New(stub, testLogger())

	ev := p.Resolve(context.Background(), "予定 打ち合わせ", ref)
	require.NotNil(t, ev, "a transport error is a miss, not a failure")
	assert.True(t, ev.Start.Equal(ref.Add(time.Hour)))
}
