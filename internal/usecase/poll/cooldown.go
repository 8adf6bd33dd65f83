// Package poll implements the periodic check cycle: for every tracked artist
// and content kind, fetch current platform state, run the change detector, and
// deliver notifications with exactly-once commit semantics (ledger and
// watermark advance only after a confirmed send).
package poll

import (
	"log/slog"
	"sync"
	"time"

	"release-radar/internal/domain/entity"
)

// Cooldown tracks per-platform suppression windows. After a platform returns
// a rate-limit signal, every check against it is skipped until the window
// elapses, across poll cycles. Held in memory: a restart resets the window,
// which at worst costs one extra rate-limited request.
type Cooldown struct {
	mu    sync.Mutex
	until map[entity.Platform]time.Time
	now   func() time.Time
}

// NewCooldown creates an empty cooldown registry.
func NewCooldown() *Cooldown {
	return &Cooldown{
		until: make(map[entity.Platform]time.Time),
		now:   time.Now,
	}
}

// Open starts (or extends) the suppression window for a platform.
func (c *Cooldown) Open(platform entity.Platform, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiry := c.now().Add(d)
	if expiry.After(c.until[platform]) {
		c.until[platform] = expiry
		slog.Warn("platform cooldown opened",
			slog.String("platform", string(platform)),
			slog.Time("until", expiry))
	}
}

// Active reports whether the platform is currently suppressed.
func (c *Cooldown) Active(platform entity.Platform) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().Before(c.until[platform])
}

// Until returns the end of the suppression window and whether one is active.
func (c *Cooldown) Until(platform entity.Platform) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiry, ok := c.until[platform]
	if !ok || !c.now().Before(expiry) {
		return time.Time{}, false
	}
	return expiry, true
}
