package bots

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/ojisan-dev/nostrbot/internal/nostr"
)

// fakeClient records replies so tests can assert on them.
type fakeClient struct {
	pub      string
	npub     string
	replyTo  bool
	profiles map[string]nostr.Profile
	replies  []string
}

func (c *fakeClient) PublicKey() string { return c.pub }
func (c *fakeClient) Npub() string      { return c.npub }

func (c *fakeClient) IsReplyToMe(_ *nostr.Event) bool { return c.replyTo }

func (c *fakeClient) Reply(_ context.Context, content string, _ *nostr.Event) error {
	c.replies = append(c.replies, content)
	return nil
}

func (c *fakeClient) Profile(_ context.Context, pubkey string) (nostr.Profile, error) {
	return c.profiles[pubkey], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func profileMap(pubkey, name string) map[string]nostr.Profile {
	return map[string]nostr.Profile{pubkey: {DisplayName: name}}
}

func textEvent(author, content string) *nostr.Event {
	return &nostr.Event{
		ID:        strings.Repeat("f", 64),
		PubKey:    author,
		CreatedAt: 1700000000,
		Kind:      nostr.KindText,
		Content:   content,
	}
}
