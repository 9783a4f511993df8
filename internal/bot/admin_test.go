package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ojisan-dev/nostrbot/internal/nostr"
)

func adminSetup() (*Manager, *fakeClient, *Handler) {
	c := &fakeClient{pub: "botkey"}
	m := NewManager(c, testLogger())
	target := &Handler{Name: "SalmonBot", Filter: Regex(`^サモン！`), Action: TextReply("サーモン！"), Enabled: true}
	m.Register(target)
	m.Register(Admin(m))
	return m, c, target
}

func adminCommand(content string) *nostr.Event {
	ev := textEvent(content)
	ev.Tags = [][]string{{"e", "target"}, {"p", "botkey"}}
	return ev
}

func TestAdminListsBots(t *testing.T) {
	m, c, _ := adminSetup()

	m.Dispatch(context.Background(), adminCommand("!bots"))

	require.Len(t, c.replies, 1)
	assert.Contains(t, c.replies[0], "SalmonBot: 有効")
	assert.Contains(t, c.replies[0], "Admin: 有効")
}

func TestAdminDisableEnable(t *testing.T) {
	m, c, target := adminSetup()

	m.Dispatch(context.Background(), adminCommand("!disable SalmonBot"))
	assert.False(t, target.Enabled)
	require.Len(t, c.replies, 1)
	assert.Equal(t, "SalmonBotを無効にしました", c.replies[0])

	m.Dispatch(context.Background(), adminCommand("!enable SalmonBot"))
	assert.True(t, target.Enabled)
	require.Len(t, c.replies, 2)
	assert.Equal(t, "SalmonBotを有効にしました", c.replies[1])
}

func TestAdminUnknownNameStillReportsSuccess(t *testing.T) {
	m, c, _ := adminSetup()

	m.Dispatch(context.Background(), adminCommand("!enable NoSuchBot"))

	require.Len(t, c.replies, 1)
	assert.Equal(t, "NoSuchBotを有効にしました", c.replies[0])
}

func TestAdminIgnoresNonReplies(t *testing.T) {
	m, c, _ := adminSetup()

	// no p-tag for the bot: not addressed to us
	m.Dispatch(context.Background(), textEvent("!bots"))
	assert.Empty(t, c.replies)
}
