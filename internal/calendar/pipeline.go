// Package calendar turns free-form Japanese text into a structured
// calendar event. A probabilistic extractor runs first, gated by a
// confidence threshold; a deterministic offline parser backs it up so
// the feature degrades instead of failing.
package calendar

import (
	"context"
	"log/slog"
	"regexp"
	"time"
)

// confidence below this discards the probabilistic result.
const confidenceThreshold = 0.7

// Event is a resolved calendar entry. End is intended to be after
// Start; the extractors are trusted to keep that.
type Event struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Location    string
}

// ParseResult is what the probabilistic extractor hands back.
type ParseResult struct {
	Title      string
	Start      time.Time
	End        time.Time
	Location   string
	Confidence float64
}

// Extractor is the probabilistic path. Any error is treated as a
// miss, never surfaced.
type Extractor interface {
	Extract(ctx context.Context, text string, ref time.Time) (*ParseResult, error)
}

// command marker, with an optional leading mention of the bot itself
var markerRe = regexp.MustCompile(`^(?s)(?:nostr:npub1[02-9ac-hj-np-z]+\s+)?予定\s+(.+)$`)

type Pipeline struct {
	extractor Extractor
	log       *slog.Logger
	loc       *time.Location
}

// New builds a pipeline. extractor may be nil, leaving only the
// deterministic path.
func New(extractor Extractor, log *slog.Logger) *Pipeline {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		loc = time.FixedZone("JST", 9*60*60)
	}
	return &Pipeline{extractor: extractor, log: log, loc: loc}
}

// Resolve maps a post body and a reference instant to an event. It
// returns nil only when the 予定 marker is missing; otherwise it always
// produces something and never fails.
func (p *Pipeline) Resolve(ctx context.Context, content string, ref time.Time) *Event {
	m := markerRe.FindStringSubmatch(content)
	if m == nil {
		return nil
	}
	desc := m[1]

	if p.extractor != nil {
		res, err := p.extractor.Extract(ctx, desc, ref)
		switch {
		case err != nil:
			p.log.Warn("extractor miss", "err", err)
		case res.Confidence < confidenceThreshold:
			p.log.Info("extractor below confidence gate", "confidence", res.Confidence)
		default:
			return &Event{
				Title:       res.Title,
				Description: desc,
				Start:       res.Start.In(p.loc),
				End:         res.End.In(p.loc),
				Location:    res.Location,
			}
		}
	}

	return p.fallback(desc, ref)
}
