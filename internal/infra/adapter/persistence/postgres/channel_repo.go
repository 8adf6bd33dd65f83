package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"release-radar/internal/domain/entity"
	"release-radar/internal/repository"
)

type ChannelRepo struct{ db *sql.DB }

func NewChannelRepo(db *sql.DB) repository.ChannelRepository {
	return &ChannelRepo{db: db}
}

func (repo *ChannelRepo) Get(ctx context.Context, guildID string, platform entity.Platform) (*repository.NotificationChannel, error) {
	const query = `
SELECT guild_id, platform, webhook_url
FROM channels
WHERE guild_id = $1 AND platform = $2
LIMIT 1`
	var ch repository.NotificationChannel
	err := repo.db.QueryRowContext(ctx, query, guildID, platform).Scan(
		&ch.GuildID, &ch.Platform, &ch.WebhookURL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &ch, nil
}

func (repo *ChannelRepo) Set(ctx context.Context, channel *repository.NotificationChannel) error {
	const query = `
INSERT INTO channels (guild_id, platform, webhook_url)
VALUES ($1, $2, $3)
ON CONFLICT (guild_id, platform) DO UPDATE SET webhook_url = EXCLUDED.webhook_url`
	_, err := repo.db.ExecContext(ctx, query, channel.GuildID, channel.Platform, channel.WebhookURL)
	if err != nil {
		return fmt.Errorf("Set: %w", err)
	}
	return nil
}
