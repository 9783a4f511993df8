package bots

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ojisan-dev/nostrbot/internal/bot"
	"github.com/ojisan-dev/nostrbot/internal/calendar"
	"github.com/ojisan-dev/nostrbot/internal/nostr"
)

// Calendar reacts to 予定-prefixed mentions addressed to the bot and
// replies with a Google Calendar template link.
func Calendar(pipeline *calendar.Pipeline) *bot.Handler {
	return &bot.Handler{
		Name: "CalendarBot",
		Filter: bot.And(
			bot.ReplyToSelf(),
			bot.FilterFunc(commandFilter),
		),
		Action:  &calendarAction{pipeline: pipeline},
		Enabled: true,
	}
}

func commandFilter(ev *nostr.Event, c bot.Client) bool {
	pattern := fmt.Sprintf(`^(nostr:%s\s+)?予定 .*`, regexp.QuoteMeta(c.Npub()))
	matched, _ := regexp.MatchString(pattern, ev.Content)
	return matched
}

type calendarAction struct {
	pipeline *calendar.Pipeline
}

func (a *calendarAction) Execute(ctx context.Context, ev *nostr.Event, c bot.Client) error {
	resolved := a.pipeline.Resolve(ctx, ev.Content, time.Now())
	if resolved == nil {
		return c.Reply(ctx, "予定の解析に失敗しました。もう一度分かりやすく教えてください。", ev)
	}

	var b strings.Builder
	b.WriteString("📅 カレンダー登録用URLを作成しました！\n\n")
	fmt.Fprintf(&b, "📝 タイトル: %s\n", resolved.Title)
	fmt.Fprintf(&b, "⏰ 日時: %s\n", resolved.Start.Format("2006/01/02 15:04"))
	if resolved.Location != "" {
		fmt.Fprintf(&b, "📍 場所: %s\n", resolved.Location)
	}
	b.WriteString("\n🔗 下のリンクをクリックしてカレンダーに追加してください：\n")
	b.WriteString(calendar.GoogleURL(resolved))

	return c.Reply(ctx, b.String(), ev)
}
