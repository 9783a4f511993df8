package bot

import (
	"context"
	"regexp"

	"github.com/ojisan-dev/nostrbot/internal/nostr"
)

// Client is the surface of the relay client that filters and actions
// see. *nostr.Client implements it; tests stub it.
type Client interface {
	PublicKey() string
	Npub() string
	IsReplyToMe(ev *nostr.Event) bool
	Reply(ctx context.Context, content string, target *nostr.Event) error
	Profile(ctx context.Context, pubkey string) (nostr.Profile, error)
}

// Filter decides whether an event is interesting. Must be pure: no
// side effects, no errors.
type Filter interface {
	Matches(ev *nostr.Event, c Client) bool
}

// Action reacts to a matched event. Failures are isolated per handler
// by the manager.
type Action interface {
	Execute(ctx context.Context, ev *nostr.Event, c Client) error
}

// Handler is the unit of registration: a named filter/action pair with
// a runtime on/off switch.
type Handler struct {
	Name    string
	Filter  Filter
	Action  Action
	Enabled bool
}

// FilterFunc adapts a plain predicate.
type FilterFunc func(ev *nostr.Event, c Client) bool

func (f FilterFunc) Matches(ev *nostr.Event, c Client) bool { return f(ev, c) }

// ActionFunc adapts a plain function.
type ActionFunc func(ctx context.Context, ev *nostr.Event, c Client) error

func (f ActionFunc) Execute(ctx context.Context, ev *nostr.Event, c Client) error {
	return f(ctx, ev, c)
}

// Regex matches the event content against a pattern. Callers anchor
// the pattern themselves when exact-match semantics are needed.
func Regex(pattern string) Filter {
	re := regexp.MustCompile(pattern)
	return FilterFunc(func(ev *nostr.Event, _ Client) bool {
		return re.MatchString(ev.Content)
	})
}

// ReplyToSelf matches events that reference the bot's own identity.
func ReplyToSelf() Filter {
	return FilterFunc(func(ev *nostr.Event, c Client) bool {
		return c.IsReplyToMe(ev)
	})
}

type andFilter struct{ children []Filter }

// And matches iff every child matches, in order, stopping at the
// first non-match.
func And(children ...Filter) Filter { return andFilter{children} }

func (f andFilter) Matches(ev *nostr.Event, c Client) bool {
	for _, child := range f.children {
		if !child.Matches(ev, c) {
			return false
		}
	}
	return true
}

type orFilter struct{ children []Filter }

// Or matches iff any child matches, stopping at the first match.
func Or(children ...Filter) Filter { return orFilter{children} }

func (f orFilter) Matches(ev *nostr.Event, c Client) bool {
	for _, child := range f.children {
		if child.Matches(ev, c) {
			return true
		}
	}
	return false
}

// TextReply replies with a fixed string.
func TextReply(text string) Action {
	return ActionFunc(func(ctx context.Context, ev *nostr.Event, c Client) error {
		return c.Reply(ctx, text, ev)
	})
}
