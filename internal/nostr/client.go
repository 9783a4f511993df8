package nostr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	lru "github.com/hashicorp/golang-lru/v2"
)

var errNotConnected = errors.New("relay not connected")

// Config holds everything the relay client needs. Built once at startup.
type Config struct {
	PrivateKey string
	Relays     []string
	// TestMode logs outgoing notes instead of publishing them.
	TestMode bool
}

// Profile is the subset of kind-0 metadata the bots read.
type Profile struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	About       string `json:"about"`
	Picture     string `json:"picture"`
}

// BestName returns the display name, falling back to name, then a
// truncated public key.
func (p Profile) BestName(pubkey string) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if p.Name != "" {
		return p.Name
	}
	if len(pubkey) > 8 {
		return pubkey[:8] + "..."
	}
	return pubkey
}

// Client multiplexes one identity over a set of relays: a realtime
// kind-1 subscription in, signed notes out, plus kind-0 profile lookups.
type Client struct {
	cfg  Config
	log  *slog.Logger
	priv *secp256k1.PrivateKey
	pub  string
	npub string

	relays []*relay

	mu       sync.Mutex
	handlers map[string]func(*Event)
	eose     map[string]chan struct{}
	oks      map[string]chan struct{}

	seen     *lru.Cache[string, struct{}]
	profiles *lru.Cache[string, Profile]

	subSeq atomic.Uint64
}

func New(cfg Config, log *slog.Logger) (*Client, error) {
	priv, err := ParseKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	if len(cfg.Relays) == 0 {
		return nil, errors.New("no relays configured")
	}

	pub, _ := PublicKeyHex(cfg.PrivateKey)
	npub, err := EncodeNpub(pub)
	if err != nil {
		return nil, err
	}

	seen, _ := lru.New[string, struct{}](4096)
	profiles, _ := lru.New[string, Profile](512)

	c := &Client{
		cfg:      cfg,
		log:      log,
		priv:     priv,
		pub:      pub,
		npub:     npub,
		handlers: map[string]func(*Event){},
		eose:     map[string]chan struct{}{},
		oks:      map[string]chan struct{}{},
		seen:     seen,
		profiles: profiles,
	}

	for _, u := range cfg.Relays {
		r := newRelay(u, log)
		r.onEvent = c.routeEvent
		r.onOK = c.routeOK
		r.onEOSE = c.routeEOSE
		c.relays = append(c.relays, r)
	}
	return c, nil
}

// Run connects every relay and blocks until ctx is cancelled.
func (c *Client) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, r := range c.relays {
		wg.Add(1)
		go func(r *relay) {
			defer wg.Done()
			r.run(ctx)
		}(r)
	}
	wg.Wait()
}

func (c *Client) PublicKey() string { return c.pub }
func (c *Client) Npub() string      { return c.npub }

// IsReplyToMe reports whether the event carries a p-tag for our key.
func (c *Client) IsReplyToMe(ev *Event) bool {
	for _, v := range ev.TagValues("p") {
		if v == c.pub {
			return true
		}
	}
	return false
}

// SubscribeText starts a realtime kind-1 subscription from now on every
// relay. Duplicate events arriving from several relays are delivered once.
func (c *Client) SubscribeText(handler func(*Event)) {
	subID := c.nextSubID("live")
	since := time.Now().Unix()

	c.mu.Lock()
	c.handlers[subID] = func(ev *Event) {
		if _, dup := c.seen.Get(ev.ID); dup {
			return
		}
		c.seen.Add(ev.ID, struct{}{})
		handler(ev)
	}
	c.mu.Unlock()

	for _, r := range c.relays {
		r.subscribe(subID, Filter{Kinds: []int{KindText}, Since: &since})
	}
}

// Publish signs the event with the client key and sends it to all
// relays, returning once any relay acknowledges it. Fire-and-forget
// beyond that: no delivery guarantee.
func (c *Client) Publish(ctx context.Context, ev *Event) error {
	return c.publishSigned(ctx, c.priv, ev)
}

// PublishAs signs with a different key. Used by features that post
// under their own identity.
func (c *Client) PublishAs(ctx context.Context, privHex string, ev *Event) error {
	priv, err := ParseKey(privHex)
	if err != nil {
		return err
	}
	return c.publishSigned(ctx, priv, ev)
}

func (c *Client) publishSigned(ctx context.Context, priv *secp256k1.PrivateKey, ev *Event) error {
	if err := ev.Sign(priv); err != nil {
		return err
	}

	if c.cfg.TestMode {
		c.log.Info("test mode: suppressed publish", "content", ev.Content, "tags", ev.Tags)
		return nil
	}

	okCh := make(chan struct{}, 1)
	c.mu.Lock()
	c.oks[ev.ID] = okCh
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.oks, ev.ID)
		c.mu.Unlock()
	}()

	sent := 0
	for _, r := range c.relays {
		if err := r.publish(ev); err == nil {
			sent++
		}
	}
	if sent == 0 {
		return errNotConnected
	}

	select {
	case <-okCh:
		return nil
	case <-time.After(10 * time.Second):
		return fmt.Errorf("no relay acknowledged event %s", ev.ID[:8])
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reply posts a kind-1 note. With a target, e/p tags reference it and
// created_at is bumped past the target's timestamp.
func (c *Client) Reply(ctx context.Context, content string, target *Event) error {
	return c.Publish(ctx, replyEvent(content, target))
}

// ReplyAs is Reply signed with a different key, for features that
// answer under their own identity.
func (c *Client) ReplyAs(ctx context.Context, privHex, content string, target *Event) error {
	return c.PublishAs(ctx, privHex, replyEvent(content, target))
}

func replyEvent(content string, target *Event) *Event {
	ev := &Event{
		Kind:      KindText,
		Content:   content,
		CreatedAt: time.Now().Unix(),
		Tags:      [][]string{},
	}
	if target != nil {
		ev.CreatedAt = target.CreatedAt + 1
		ev.Tags = append(ev.Tags, []string{"e", target.ID}, []string{"p", target.PubKey})
	}
	return ev
}

// Profile fetches kind-0 metadata for a pubkey, with an LRU cache in
// front of the relays.
func (c *Client) Profile(ctx context.Context, pubkey string) (Profile, error) {
	if p, ok := c.profiles.Get(pubkey); ok {
		return p, nil
	}

	subID := c.nextSubID("prof")
	got := make(chan Profile, 1)
	eose := make(chan struct{}, len(c.relays))

	c.mu.Lock()
	c.handlers[subID] = func(ev *Event) {
		var p Profile
		if err := json.Unmarshal([]byte(ev.Content), &p); err != nil {
			return
		}
		select {
		case got <- p:
		default:
		}
	}
	c.eose[subID] = eose
	c.mu.Unlock()

	for _, r := range c.relays {
		r.subscribe(subID, Filter{Kinds: []int{KindProfile}, Authors: []string{pubkey}, Limit: 1})
	}
	defer func() {
		for _, r := range c.relays {
			r.unsubscribe(subID)
		}
		c.mu.Lock()
		delete(c.handlers, subID)
		delete(c.eose, subID)
		c.mu.Unlock()
	}()

	deadline := time.After(5 * time.Second)
	remaining := len(c.relays)
	for {
		select {
		case p := <-got:
			c.profiles.Add(pubkey, p)
			return p, nil
		case <-eose:
			remaining--
			if remaining <= 0 {
				return Profile{}, fmt.Errorf("no profile found for %s", pubkey[:8])
			}
		case <-deadline:
			return Profile{}, fmt.Errorf("profile lookup timed out for %s", pubkey[:8])
		case <-ctx.Done():
			return Profile{}, ctx.Err()
		}
	}
}

func (c *Client) routeEvent(subID string, ev *Event) {
	c.mu.Lock()
	h := c.handlers[subID]
	c.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

func (c *Client) routeOK(eventID string, ok bool, reason string) {
	if !ok {
		c.log.Warn("relay rejected event", "id", eventID, "reason", reason)
		return
	}
	c.mu.Lock()
	ch := c.oks[eventID]
	c.mu.Unlock()
	if ch != nil {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (c *Client) routeEOSE(subID string) {
	c.mu.Lock()
	ch := c.eose[subID]
	c.mu.Unlock()
	if ch != nil {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (c *Client) nextSubID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, c.subSeq.Add(1))
}
