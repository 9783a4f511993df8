package bots

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ojisan-dev/nostrbot/internal/bot"
	"github.com/ojisan-dev/nostrbot/internal/nostr"
)

// Completer generates the persona reply; satisfied by *llm.Client.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ReplySigner posts a reply signed with a caller-supplied key;
// satisfied by *nostr.Client.
type ReplySigner interface {
	ReplyAs(ctx context.Context, privHex, content string, target *nostr.Event) error
}

var ojisanPhrases = []string{
	"そうだねぇ〜😊",
	"なるほどなるほど💡",
	"いいねいいね👍",
	"そんな感じだよね〜😄",
	"その通りだよ〜✨",
}

// PhraseReplies is the offline generator used when no model is
// configured: a fixed phrase picked at random.
type PhraseReplies struct {
	Random func() float64
}

func (p PhraseReplies) Complete(_ context.Context, _ string) (string, error) {
	i := int(p.Random() * float64(len(ojisanPhrases)))
	if i >= len(ojisanPhrases) {
		i = len(ojisanPhrases) - 1
	}
	return ojisanPhrases[i], nil
}

const (
	ojisanChance    = 0.06
	ojisanMinLength = 10
	ojisanCooldown  = 10
)

const ojisanPrompt = `あなたは40〜60代の男性であり、親しみやすくも少しウザい「おじ構文」を使ってSNSの返信をするAIです。
ユーザーの投稿内容をもとに、おじ構文で返信してください。
ただし、あまりしつこいと嫌われるのでさっぱり目がいいです。文脈が読み取れないときは名前をいれなくてもいいですよ

【おじ構文の特徴】
- 過剰な絵文字・顔文字（😊✨👍😂🤣💖）
- 句読点や改行の多用
- 語尾のクセが強い（「〜だねぇ」「〜しちゃうなぁ」「おじさんもやってみようかな(笑)」）
- 余計な心配（「ちゃんとご飯食べた？」「無理しすぎないでね」）
- 上から目線 or 過剰な褒め（「さすが%sちゃん！」「大人っぽいねぇ👍」）

【入力】
- Post: %s
- Name: %s`

// Ojisan reacts to a small random share of sufficiently long posts
// with a generated persona reply, posted under its own key rather
// than the main bot identity. The random source is injected so tests
// can pin it; the cooldown keeps it from pestering one author.
func Ojisan(model Completer, key string, sender ReplySigner, random func() float64, log *slog.Logger) (*bot.Handler, error) {
	pub, err := nostr.PublicKeyHex(key)
	if err != nil {
		return nil, fmt.Errorf("ojisan key: %w", err)
	}

	cooldown := bot.NewCooldown(ojisanCooldown)

	filter := bot.FilterFunc(func(ev *nostr.Event, c bot.Client) bool {
		// never react to its own notes
		if ev.PubKey == pub {
			return false
		}
		if len([]rune(ev.Content)) < ojisanMinLength {
			return false
		}
		if cooldown.ShouldSuppress(ev.PubKey) {
			return false
		}
		return random() < ojisanChance
	})

	action := bot.ActionFunc(func(ctx context.Context, ev *nostr.Event, c bot.Client) error {
		name := ""
		if profile, err := c.Profile(ctx, ev.PubKey); err == nil {
			name = profile.BestName(ev.PubKey)
		}

		reply, err := model.Complete(ctx, fmt.Sprintf(ojisanPrompt, name, ev.Content, name))
		if err != nil {
			return fmt.Errorf("generate reply: %w", err)
		}

		cooldown.Record(ev.PubKey)
		log.Info("ojisan reacting", "author", ev.PubKey)
		return sender.ReplyAs(ctx, key, reply, ev)
	})

	return &bot.Handler{
		Name:    "OjisanBot",
		Filter:  filter,
		Action:  action,
		Enabled: false, // opt-in via !enable
	}, nil
}
