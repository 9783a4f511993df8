package bots

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ojisan-dev/nostrbot/internal/bot"
	"github.com/ojisan-dev/nostrbot/internal/influx"
	"github.com/ojisan-dev/nostrbot/internal/nostr"
)

// RoomSource provides the latest sensor readings; satisfied by
// *influx.Client.
type RoomSource interface {
	RoomData(ctx context.Context) ([]influx.Reading, error)
}

// the exact word only; a bare substring test would fire inside
// compound words
var myRoomRe = regexp.MustCompile(`^まいへや$`)

// MyRoom answers まいへや posts from allowed authors with the current
// room temperature and humidity. An empty author list allows everyone.
func MyRoom(source RoomSource, authors []string) *bot.Handler {
	allowed := map[string]bool{}
	for _, a := range authors {
		a = strings.TrimSpace(a)
		if a != "" {
			allowed[a] = true
		}
	}

	filter := bot.FilterFunc(func(ev *nostr.Event, _ bot.Client) bool {
		if len(allowed) > 0 && !allowed[ev.PubKey] {
			return false
		}
		return myRoomRe.MatchString(strings.TrimSpace(ev.Content))
	})

	return &bot.Handler{
		Name:    "MyRoomBot",
		Filter:  filter,
		Action:  &myRoomAction{source: source},
		Enabled: source != nil,
	}
}

type myRoomAction struct {
	source RoomSource
}

func (a *myRoomAction) Execute(ctx context.Context, ev *nostr.Event, c bot.Client) error {
	readings, err := a.source.RoomData(ctx)
	if err != nil {
		_ = c.Reply(ctx, "⚠️ 部屋の情報取得中にエラーが発生しました。", ev)
		return fmt.Errorf("room data: %w", err)
	}
	if len(readings) == 0 {
		return c.Reply(ctx, "❌ 部屋のセンサーデータが取得できませんでした。", ev)
	}

	var b strings.Builder
	b.WriteString("🏠 部屋の現在の状況：\n")
	for _, r := range readings {
		temp := "--℃"
		if r.Temperature != nil {
			temp = fmt.Sprintf("%.1f℃", *r.Temperature)
		}
		humidity := "--%"
		if r.Humidity != nil {
			humidity = fmt.Sprintf("%.1f%%", *r.Humidity)
		}
		fmt.Fprintf(&b, "%s：%s / %s\n", r.Device, temp, humidity)
	}
	return c.Reply(ctx, b.String(), ev)
}
