package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/ojisan-dev/nostrbot/internal/nostr"
)

// Admin returns the management handler: text commands addressed as
// replies to the bot's own identity.
//
//	!bots            list every handler and its state
//	!enable <name>   turn a handler on
//	!disable <name>  turn a handler off
//
// Toggling always reports success, even for unknown names.
func Admin(m *Manager) *Handler {
	return &Handler{
		Name: "Admin",
		Filter: And(
			ReplyToSelf(),
			FilterFunc(func(ev *nostr.Event, _ Client) bool {
				return strings.HasPrefix(strings.TrimSpace(ev.Content), "!")
			}),
		),
		Action:  ActionFunc(m.handleCommand),
		Enabled: true,
	}
}

func (m *Manager) handleCommand(ctx context.Context, ev *nostr.Event, c Client) error {
	text := strings.TrimSpace(ev.Content)
	cmd, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "!bots":
		var rows []string
		for _, h := range m.Handlers() {
			state := "無効"
			if h.Enabled {
				state = "有効"
			}
			rows = append(rows, fmt.Sprintf("%s: %s", h.Name, state))
		}
		return c.Reply(ctx, "Bot状態:\n"+strings.Join(rows, "\n"), ev)

	case "!enable":
		if arg == "" {
			return c.Reply(ctx, "usage: !enable <name>", ev)
		}
		m.SetEnabled(arg, true)
		return c.Reply(ctx, fmt.Sprintf("%sを有効にしました", arg), ev)

	case "!disable":
		if arg == "" {
			return c.Reply(ctx, "usage: !disable <name>", ev)
		}
		m.SetEnabled(arg, false)
		return c.Reply(ctx, fmt.Sprintf("%sを無効にしました", arg), ev)
	}
	return nil
}
