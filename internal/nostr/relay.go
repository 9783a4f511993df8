package nostr

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Filter is a NIP-01 subscription filter.
type Filter struct {
	Kinds   []int    `json:"kinds,omitempty"`
	Authors []string `json:"authors,omitempty"`
	Since   *int64   `json:"since,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// relay is a single persistent connection to one relay. Reads run in
// readLoop; on error the loop reconnects with exponential backoff and
// replays active subscriptions.
type relay struct {
	url string
	log *slog.Logger

	// routed back into the owning Client
	onEvent func(subID string, ev *Event)
	onOK    func(eventID string, ok bool, reason string)
	onEOSE  func(subID string)

	wmu    sync.Mutex
	conn   *websocket.Conn
	closed atomic.Bool

	mu   sync.Mutex
	subs map[string]Filter
}

func newRelay(url string, log *slog.Logger) *relay {
	return &relay{
		url:  url,
		log:  log.With("relay", url),
		subs: map[string]Filter{},
	}
}

func (r *relay) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(1 << 20)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	})
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	return conn, nil
}

func (r *relay) run(ctx context.Context) {
	defer r.closeConn()

	go func() {
		<-ctx.Done()
		r.closed.Store(true)
		r.closeConn()
	}()

	backoff := time.Second

	for !r.closed.Load() {
		conn, err := r.dial(ctx)
		if err != nil {
			r.log.Warn("dialing failed", "err", err, "backoff", backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		r.wmu.Lock()
		r.conn = conn
		r.wmu.Unlock()
		r.log.Info("connected")

		r.replaySubs()
		stopPing := r.startPing(conn)

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if !r.closed.Load() {
					r.log.Warn("read failed", "err", err)
				}
				break
			}
			_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
			r.handleFrame(data)
		}

		close(stopPing)
		r.closeConn()

		// a relay that accepts and immediately drops the connection
		// would otherwise cause a tight reconnect spin
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

func (r *relay) startPing(conn *websocket.Conn) chan struct{} {
	stop := make(chan struct{})
	go func() {
		t := time.NewTicker(30 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				r.wmu.Lock()
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
				r.wmu.Unlock()
			}
		}
	}()
	return stop
}

func (r *relay) handleFrame(data []byte) {
	var frame []json.RawMessage
	if err := json.Unmarshal(data, &frame); err != nil || len(frame) < 2 {
		r.log.Warn("bad frame", "err", err)
		return
	}
	var label string
	if err := json.Unmarshal(frame[0], &label); err != nil {
		return
	}

	switch label {
	case "EVENT":
		if len(frame) < 3 {
			return
		}
		var subID string
		var ev Event
		if err := json.Unmarshal(frame[1], &subID); err != nil {
			return
		}
		if err := json.Unmarshal(frame[2], &ev); err != nil {
			r.log.Warn("bad event payload", "err", err)
			return
		}
		if r.onEvent != nil {
			r.onEvent(subID, &ev)
		}
	case "OK":
		if len(frame) < 3 {
			return
		}
		var eventID, reason string
		var accepted bool
		_ = json.Unmarshal(frame[1], &eventID)
		_ = json.Unmarshal(frame[2], &accepted)
		if len(frame) > 3 {
			_ = json.Unmarshal(frame[3], &reason)
		}
		if r.onOK != nil {
			r.onOK(eventID, accepted, reason)
		}
	case "EOSE":
		var subID string
		_ = json.Unmarshal(frame[1], &subID)
		if r.onEOSE != nil {
			r.onEOSE(subID)
		}
	case "NOTICE":
		var msg string
		_ = json.Unmarshal(frame[1], &msg)
		r.log.Info("relay notice", "msg", msg)
	}
}

// subscribe registers the filter and sends REQ if connected. The filter
// is replayed after every reconnect.
func (r *relay) subscribe(subID string, f Filter) {
	r.mu.Lock()
	r.subs[subID] = f
	r.mu.Unlock()
	_ = r.writeFrame("REQ", subID, f)
}

func (r *relay) unsubscribe(subID string) {
	r.mu.Lock()
	delete(r.subs, subID)
	r.mu.Unlock()
	_ = r.writeFrame("CLOSE", subID)
}

func (r *relay) publish(ev *Event) error {
	return r.writeFrame("EVENT", ev)
}

func (r *relay) replaySubs() {
	r.mu.Lock()
	subs := make(map[string]Filter, len(r.subs))
	for id, f := range r.subs {
		// live subscriptions restart from now, no backfill
		if f.Since != nil {
			now := time.Now().Unix()
			f.Since = &now
		}
		subs[id] = f
	}
	r.mu.Unlock()

	for id, f := range subs {
		_ = r.writeFrame("REQ", id, f)
	}
}

func (r *relay) writeFrame(parts ...any) error {
	r.wmu.Lock()
	defer r.wmu.Unlock()
	if r.conn == nil {
		return errNotConnected
	}
	return r.conn.WriteJSON(parts)
}

func (r *relay) closeConn() {
	r.wmu.Lock()
	defer r.wmu.Unlock()
	if r.conn != nil {
		_ = r.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closing"),
			time.Now().Add(500*time.Millisecond))
		_ = r.conn.Close()
		r.conn = nil
	}
}
