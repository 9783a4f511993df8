package bot

import "sync"

// Cooldown remembers the last N authors a probabilistic handler
// reacted to, so the same user is not spammed twice in a row. FIFO:
// the oldest entry is evicted first, regardless of hits.
type Cooldown struct {
	mu      sync.Mutex
	cap     int
	authors []string
}

func NewCooldown(capacity int) *Cooldown {
	return &Cooldown{cap: capacity}
}

// ShouldSuppress reports whether the author is still in the window.
func (c *Cooldown) ShouldSuppress(author string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.authors {
		if a == author {
			return true
		}
	}
	return false
}

// Record appends the author, evicting the oldest entry when full.
func (c *Cooldown) Record(author string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authors = append(c.authors, author)
	if len(c.authors) > c.cap {
		c.authors = c.authors[1:]
	}
}
