package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ojisan-dev/nostrbot/internal/nostr"
)

// Manager owns the registered handlers and fans inbound events out to
// them. Evaluation order is registration order; one handler's failure
// never reaches the next.
type Manager struct {
	client Client
	log    *slog.Logger

	mu       sync.Mutex
	handlers []*Handler
}

func NewManager(client Client, log *slog.Logger) *Manager {
	return &Manager{client: client, log: log}
}

// Register appends a handler. Names are not checked for uniqueness;
// Unregister and SetEnabled apply to every/first match respectively.
func (m *Manager) Register(h *Handler) {
	m.mu.Lock()
	m.handlers = append(m.handlers, h)
	m.mu.Unlock()
	m.log.Info("bot registered", "name", h.Name, "enabled", h.Enabled)
}

// Unregister removes all handlers with the given name.
func (m *Manager) Unregister(name string) {
	m.mu.Lock()
	kept := m.handlers[:0]
	for _, h := range m.handlers {
		if h.Name != name {
			kept = append(kept, h)
		}
	}
	m.handlers = kept
	m.mu.Unlock()
	m.log.Info("bot unregistered", "name", name)
}

// SetEnabled toggles the first handler with the given name. Missing
// names are a no-op.
func (m *Manager) SetEnabled(name string, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.handlers {
		if h.Name == name {
			h.Enabled = enabled
			m.log.Info("bot toggled", "name", name, "enabled", enabled)
			return
		}
	}
}

// Handlers returns a snapshot of the registration list.
func (m *Manager) Handlers() []*Handler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Handler(nil), m.handlers...)
}

// Dispatch runs every enabled handler whose filter matches, in
// registration order. Action errors and panics are logged with the
// handler name and swallowed; Dispatch itself never fails.
func (m *Manager) Dispatch(ctx context.Context, ev *nostr.Event) {
	eventsReceived.Inc()

	for _, h := range m.Handlers() {
		if !h.Enabled {
			continue
		}
		m.runOne(ctx, h, ev)
	}
}

func (m *Manager) runOne(ctx context.Context, h *Handler, ev *nostr.Event) {
	defer func() {
		if r := recover(); r != nil {
			handlerErrors.WithLabelValues(h.Name).Inc()
			m.log.Error("bot panicked", "name", h.Name, "panic", fmt.Sprint(r))
		}
	}()

	if !h.Filter.Matches(ev, m.client) {
		return
	}
	handlerMatches.WithLabelValues(h.Name).Inc()
	m.log.Info("event matched", "name", h.Name, "event", ev.ID)

	if err := h.Action.Execute(ctx, ev, m.client); err != nil {
		handlerErrors.WithLabelValues(h.Name).Inc()
		m.log.Error("bot action failed", "name", h.Name, "err", err)
	}
}
