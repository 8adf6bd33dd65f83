package repository

import (
	"context"

	"release-radar/internal/domain/entity"
)

// NotificationChannel is the delivery target configured for a guild and
// platform: a Discord webhook URL.
type NotificationChannel struct {
	GuildID    string
	Platform   entity.Platform
	WebhookURL string
}

// ChannelRepository persists per-guild, per-platform notification channels.
type ChannelRepository interface {
	// Get returns the configured channel, or nil if none is configured.
	Get(ctx context.Context, guildID string, platform entity.Platform) (*NotificationChannel, error)

	// Set creates or replaces the channel for (guild, platform).
	Set(ctx context.Context, channel *NotificationChannel) error
}
