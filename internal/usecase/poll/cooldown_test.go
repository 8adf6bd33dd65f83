package poll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"release-radar/internal/domain/entity"
)

func TestCooldown_OpenAndExpire(t *testing.T) {
	now := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	c := NewCooldown()
	c.now = func() time.Time { return now }

	assert.False(t, c.Active(entity.PlatformSoundCloud))

	c.Open(entity.PlatformSoundCloud, 12*time.Hour)
	assert.True(t, c.Active(entity.PlatformSoundCloud))
	assert.False(t, c.Active(entity.PlatformSpotify))

	until, ok := c.Until(entity.PlatformSoundCloud)
	assert.True(t, ok)
	assert.Equal(t, now.Add(12*time.Hour), until)

	// Just before expiry: still suppressed.
	now = now.Add(12*time.Hour - time.Second)
	assert.True(t, c.Active(entity.PlatformSoundCloud))

	// At expiry: released.
	now = now.Add(time.Second)
	assert.False(t, c.Active(entity.PlatformSoundCloud))
	_, ok = c.Until(entity.PlatformSoundCloud)
	assert.False(t, ok)
}

func TestCooldown_OpenDoesNotShortenWindow(t *testing.T) {
	now := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	c := NewCooldown()
	c.now = func() time.Time { return now }

	c.Open(entity.PlatformSoundCloud, 12*time.Hour)
	c.Open(entity.PlatformSoundCloud, 1*time.Hour)

	until, ok := c.Until(entity.PlatformSoundCloud)
	assert.True(t, ok)
	assert.Equal(t, now.Add(12*time.Hour), until)
}
