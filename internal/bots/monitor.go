package bots

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ojisan-dev/nostrbot/internal/bot"
	"github.com/ojisan-dev/nostrbot/internal/discord"
	"github.com/ojisan-dev/nostrbot/internal/nostr"
)

// MonitorConfig is the watch-list: keywords, authors to watch
// (npub or hex), and npubs whose mention should trigger a notice.
type MonitorConfig struct {
	Keywords     []string
	Npubs        []string
	MentionNpubs []string
}

// NotificationSink delivers one notification; satisfied by
// *discord.Webhook.
type NotificationSink interface {
	Send(embed discord.Embed) error
}

// MonitorFilter classifies events against the watch-list. It is kept
// addressable so keywords and npubs can be appended at runtime.
type MonitorFilter struct {
	mu           sync.Mutex
	keywords     []string
	authors      map[string]string // hex pubkey -> npub it came from
	mentionNpubs []string
}

func NewMonitorFilter(cfg MonitorConfig) *MonitorFilter {
	f := &MonitorFilter{authors: map[string]string{}}
	for _, k := range cfg.Keywords {
		f.AddKeyword(k)
	}
	for _, n := range cfg.Npubs {
		f.AddNpub(n)
	}
	for _, n := range cfg.MentionNpubs {
		f.AddMentionNpub(n)
	}
	return f
}

func (f *MonitorFilter) AddKeyword(keyword string) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keywords = append(f.keywords, keyword)
}

// AddNpub watches an author. npub entries are normalized to hex; raw
// hex keys are accepted as-is.
func (f *MonitorFilter) AddNpub(npub string) {
	npub = strings.TrimSpace(npub)
	if npub == "" {
		return
	}
	hexKey := npub
	if strings.HasPrefix(npub, "npub1") {
		if decoded, err := nostr.DecodeNpub(npub); err == nil {
			hexKey = decoded
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authors[hexKey] = npub
}

func (f *MonitorFilter) AddMentionNpub(npub string) {
	npub = strings.TrimSpace(npub)
	if npub == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mentionNpubs = append(f.mentionNpubs, npub)
}

func (f *MonitorFilter) Matches(ev *nostr.Event, c bot.Client) bool {
	// never notify about our own posts
	if ev.PubKey == c.PublicKey() {
		return false
	}
	return len(f.Reasons(ev)) > 0
}

// Reasons lists every trigger that fired, not just the first.
func (f *MonitorFilter) Reasons(ev *nostr.Event) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var reasons []string
	content := strings.ToLower(ev.Content)

	for _, keyword := range f.keywords {
		if strings.Contains(content, strings.ToLower(keyword)) {
			reasons = append(reasons, fmt.Sprintf("🔍 キーワード: %q", keyword))
		}
	}
	for hexKey, src := range f.authors {
		if ev.PubKey == hexKey {
			reasons = append(reasons, fmt.Sprintf("👤 監視対象からの投稿: %q", shorten(src)))
		}
	}
	for _, npub := range f.mentionNpubs {
		// mention-by-substring heuristic, not a parsed tag
		if strings.Contains(content, strings.ToLower(npub)) {
			reasons = append(reasons, fmt.Sprintf("💬 メンション検出: %q", shorten(npub)))
		}
	}
	return reasons
}

// Monitor forwards watch-list matches to the notification sink with
// every reason that fired. Delivery failures are logged upstream by
// the dispatcher and never propagate further.
func Monitor(filter *MonitorFilter, sink NotificationSink, profiles ProfileSource) *bot.Handler {
	return &bot.Handler{
		Name:    "MonitorBot",
		Filter:  filter,
		Action:  &monitorAction{filter: filter, sink: sink, profiles: profiles},
		Enabled: sink != nil,
	}
}

// ProfileSource resolves a display name for the embed title;
// satisfied by *nostr.Client.
type ProfileSource interface {
	Profile(ctx context.Context, pubkey string) (nostr.Profile, error)
}

type monitorAction struct {
	filter   *MonitorFilter
	sink     NotificationSink
	profiles ProfileSource
}

func (a *monitorAction) Execute(ctx context.Context, ev *nostr.Event, c bot.Client) error {
	title := shorten(ev.PubKey)
	if a.profiles != nil {
		if p, err := a.profiles.Profile(ctx, ev.PubKey); err == nil {
			title = p.BestName(ev.PubKey)
		}
	}

	note, err := nostr.EncodeNote(ev.ID)
	if err != nil {
		return fmt.Errorf("encode note id: %w", err)
	}

	at := time.Unix(ev.CreatedAt, 0)
	embed := discord.Embed{
		Title:       title,
		Description: truncateRunes(ev.Content, 1000),
		Fields: []discord.Field{
			{Name: "日時", Value: at.In(jst()).Format("2006/01/02 15:04:05"), Inline: true},
			{Name: "🎯 検出理由", Value: strings.Join(a.filter.Reasons(ev), "\n")},
			{Name: "Nostterで開く", Value: fmt.Sprintf("[nostter.app](https://nostter.app/%s)", note), Inline: true},
			{Name: "Nostxで開く", Value: fmt.Sprintf("[nostx.io](https://nostx.io/%s)", note), Inline: true},
		},
		Footer:    &discord.Footer{Text: "Nostrタイムライン通知Bot"},
		Timestamp: at.UTC().Format(time.RFC3339),
	}

	if err := a.sink.Send(embed); err != nil {
		return fmt.Errorf("discord notification: %w", err)
	}
	return nil
}

func shorten(s string) string {
	if len(s) > 16 {
		return s[:16] + "..."
	}
	return s
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

var jstOnce = sync.OnceValue(func() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
})

func jst() *time.Location { return jstOnce() }
