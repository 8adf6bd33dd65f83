package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"release-radar/internal/domain/entity"
	"release-radar/internal/repository"
)

type LedgerRepo struct{ db *sql.DB }

func NewLedgerRepo(db *sql.DB) repository.LedgerRepository {
	return &LedgerRepo{db: db}
}

func (repo *LedgerRepo) IsNotified(ctx context.Context, key entity.DedupKey) (bool, error) {
	const query = `
SELECT 1 FROM notified_items
WHERE artist_id = $1 AND guild_id = $2 AND platform = $3 AND content_kind = $4 AND content_id = $5
LIMIT 1`
	var one int
	err := repo.db.QueryRowContext(ctx, query,
		key.ArtistID, key.GuildID, key.Platform, key.Kind, key.ContentID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("IsNotified: %w", err)
	}
	return true, nil
}

func (repo *LedgerRepo) IsNotifiedBatch(ctx context.Context, key entity.DedupKey, contentIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(contentIDs))
	for _, id := range contentIDs {
		result[id] = false
	}
	if len(contentIDs) == 0 {
		return result, nil
	}

	const query = `
SELECT content_id FROM notified_items
WHERE artist_id = $1 AND guild_id = $2 AND platform = $3 AND content_kind = $4
  AND content_id = ANY($5)`
	rows, err := repo.db.QueryContext(ctx, query,
		key.ArtistID, key.GuildID, key.Platform, key.Kind, contentIDs)
	if err != nil {
		return nil, fmt.Errorf("IsNotifiedBatch: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("IsNotifiedBatch: %w", err)
		}
		result[id] = true
	}
	return result, rows.Err()
}

// MarkNotified records a sent notification. ON CONFLICT DO NOTHING gives the
// insert-if-absent semantics the ledger requires: concurrent marks for the
// same key resolve to "already marked" instead of erroring.
func (repo *LedgerRepo) MarkNotified(ctx context.Context, key entity.DedupKey) error {
	const query = `
INSERT INTO notified_items (artist_id, guild_id, platform, content_kind, content_id)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (artist_id, guild_id, platform, content_kind, content_id) DO NOTHING`
	_, err := repo.db.ExecContext(ctx, query,
		key.ArtistID, key.GuildID, key.Platform, key.Kind, key.ContentID)
	if err != nil {
		return fmt.Errorf("MarkNotified: %w", err)
	}
	return nil
}
