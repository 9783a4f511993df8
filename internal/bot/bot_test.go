package bot

import (
	"context"
	"io"
	"log/slog"

	"github.com/ojisan-dev/nostrbot/internal/nostr"
)

// fakeClient implements Client for tests and records replies.
type fakeClient struct {
	pub        string
	npub       string
	replies    []string
	profile    nostr.Profile
	profileErr error
}

func (f *fakeClient) PublicKey() string { return f.pub }
func (f *fakeClient) Npub() string      { return f.npub }

func (f *fakeClient) IsReplyToMe(ev *nostr.Event) bool {
	for _, v := range ev.TagValues("p") {
		if v == f.pub {
			return true
		}
	}
	return false
}

func (f *fakeClient) Reply(_ context.Context, content string, _ *nostr.Event) error {
	f.replies = append(f.replies, content)
	return nil
}

func (f *fakeClient) Profile(_ context.Context, _ string) (nostr.Profile, error) {
	return f.profile, f.profileErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func textEvent(content string) *nostr.Event {
	return &nostr.Event{
		ID:        "eventid",
		PubKey:    "author",
		Kind:      nostr.KindText,
		Content:   content,
		CreatedAt: 1700000000,
	}
}
