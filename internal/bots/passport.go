package bots

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ojisan-dev/nostrbot/internal/nostr"
)

// Passport posts a daily attestation note under its own key, outside
// the event-driven dispatch path.
type Passport struct {
	client     *nostr.Client
	log        *slog.Logger
	privateKey string
	targetNpub string
	targetHex  string
}

func NewPassport(client *nostr.Client, privateKey, targetNpub string, log *slog.Logger) (*Passport, error) {
	targetHex, err := nostr.DecodeNpub(targetNpub)
	if err != nil {
		return nil, fmt.Errorf("passport target: %w", err)
	}
	return &Passport{
		client:     client,
		log:        log,
		privateKey: privateKey,
		targetNpub: targetNpub,
		targetHex:  targetHex,
	}, nil
}

// Send publishes one passport note.
func (p *Passport) Send(ctx context.Context) error {
	ev := &nostr.Event{
		Kind:      nostr.KindText,
		CreatedAt: time.Now().Unix(),
		Content:   fmt.Sprintf("nostr:%s passport", p.targetNpub),
		Tags:      [][]string{{"p", p.targetHex}},
	}
	return p.client.PublishAs(ctx, p.privateKey, ev)
}

// Run sends at the given interval until ctx is cancelled.
func (p *Passport) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := p.Send(ctx); err != nil {
				p.log.Error("passport send failed", "err", err)
			}
		}
	}
}
