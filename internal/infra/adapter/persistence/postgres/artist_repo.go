// Package postgres implements the repository interfaces on PostgreSQL via the
// pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"release-radar/internal/domain/entity"
	"release-radar/internal/repository"
)

type ArtistRepo struct{ db *sql.DB }

func NewArtistRepo(db *sql.DB) repository.ArtistRepository {
	return &ArtistRepo{db: db}
}

const artistColumns = `platform, artist_id, owner_id, guild_id, artist_name, artist_url, genres,
last_release_date, last_playlist_date, last_repost_date, last_like_date, created_at`

// scanArtist is a helper function to scan an artist row including genres.
func scanArtist(rows *sql.Rows) (*entity.TrackedArtist, error) {
	var artist entity.TrackedArtist
	var genresJSON []byte
	if err := rows.Scan(
		&artist.Platform, &artist.ArtistID, &artist.OwnerID, &artist.GuildID,
		&artist.Name, &artist.URL, &genresJSON,
		&artist.LastReleaseDate, &artist.LastPlaylistDate,
		&artist.LastRepostDate, &artist.LastLikeDate,
		&artist.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(genresJSON) > 0 {
		if err := json.Unmarshal(genresJSON, &artist.Genres); err != nil {
			return nil, fmt.Errorf("unmarshal genres: %w", err)
		}
	}
	return &artist, nil
}

func (repo *ArtistRepo) Get(ctx context.Context, platform entity.Platform, artistID, ownerID, guildID string) (*entity.TrackedArtist, error) {
	query := `
SELECT ` + artistColumns + `
FROM artists
WHERE platform = $1 AND artist_id = $2 AND owner_id = $3 AND guild_id = $4
LIMIT 1`
	var artist entity.TrackedArtist
	var genresJSON []byte
	err := repo.db.QueryRowContext(ctx, query, platform, artistID, ownerID, guildID).Scan(
		&artist.Platform, &artist.ArtistID, &artist.OwnerID, &artist.GuildID,
		&artist.Name, &artist.URL, &genresJSON,
		&artist.LastReleaseDate, &artist.LastPlaylistDate,
		&artist.LastRepostDate, &artist.LastLikeDate,
		&artist.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	if len(genresJSON) > 0 {
		if err := json.Unmarshal(genresJSON, &artist.Genres); err != nil {
			return nil, fmt.Errorf("Get: unmarshal genres: %w", err)
		}
	}
	return &artist, nil
}

func (repo *ArtistRepo) ListTracked(ctx context.Context, filter repository.ArtistFilter) ([]*entity.TrackedArtist, error) {
	query := `
SELECT ` + artistColumns + `
FROM artists
WHERE ($1 = '' OR platform = $1)
  AND ($2 = '' OR owner_id = $2)
  AND ($3 = '' OR guild_id = $3)
ORDER BY platform, artist_name ASC`
	rows, err := repo.db.QueryContext(ctx, query, string(filter.Platform), filter.OwnerID, filter.GuildID)
	if err != nil {
		return nil, fmt.Errorf("ListTracked: %w", err)
	}
	defer func() { _ = rows.Close() }()

	artists := make([]*entity.TrackedArtist, 0, 50)
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, fmt.Errorf("ListTracked: %w", err)
		}
		artists = append(artists, artist)
	}
	return artists, rows.Err()
}

func (repo *ArtistRepo) Create(ctx context.Context, artist *entity.TrackedArtist) error {
	var genresJSON []byte
	if artist.Genres != nil {
		var err error
		genresJSON, err = json.Marshal(artist.Genres)
		if err != nil {
			return fmt.Errorf("Create: marshal genres: %w", err)
		}
	}

	const query = `
INSERT INTO artists (platform, artist_id, owner_id, guild_id, artist_name, artist_url, genres,
                     last_release_date, last_playlist_date, last_repost_date, last_like_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (platform, artist_id, owner_id, guild_id) DO NOTHING`
	res, err := repo.db.ExecContext(ctx, query,
		artist.Platform, artist.ArtistID, artist.OwnerID, artist.GuildID,
		artist.Name, artist.URL, genresJSON,
		artist.LastReleaseDate, artist.LastPlaylistDate,
		artist.LastRepostDate, artist.LastLikeDate,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrAlreadyTracked
	}
	return nil
}

func (repo *ArtistRepo) Delete(ctx context.Context, platform entity.Platform, artistID, ownerID, guildID string) error {
	const query = `
DELETE FROM artists
WHERE platform = $1 AND artist_id = $2 AND owner_id = $3 AND guild_id = $4`
	res, err := repo.db.ExecContext(ctx, query, platform, artistID, ownerID, guildID)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

// watermarkColumn maps a content kind to its column. The switch keeps the
// column name out of caller control.
func watermarkColumn(kind entity.ContentKind) (string, error) {
	switch kind {
	case entity.KindRelease:
		return "last_release_date", nil
	case entity.KindPlaylist:
		return "last_playlist_date", nil
	case entity.KindRepost:
		return "last_repost_date", nil
	case entity.KindLike:
		return "last_like_date", nil
	}
	return "", fmt.Errorf("unknown content kind %q", kind)
}

func (repo *ArtistRepo) GetWatermark(ctx context.Context, artist *entity.TrackedArtist, kind entity.ContentKind) (*time.Time, error) {
	column, err := watermarkColumn(kind)
	if err != nil {
		return nil, fmt.Errorf("GetWatermark: %w", err)
	}
	query := `
SELECT ` + column + `
FROM artists
WHERE platform = $1 AND artist_id = $2 AND owner_id = $3 AND guild_id = $4
LIMIT 1`
	var t *time.Time
	err = repo.db.QueryRowContext(ctx, query,
		artist.Platform, artist.ArtistID, artist.OwnerID, artist.GuildID,
	).Scan(&t)
	if err == sql.ErrNoRows {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetWatermark: %w", err)
	}
	return t, nil
}

func (repo *ArtistRepo) SetWatermark(ctx context.Context, artist *entity.TrackedArtist, kind entity.ContentKind, t time.Time) error {
	column, err := watermarkColumn(kind)
	if err != nil {
		return fmt.Errorf("SetWatermark: %w", err)
	}
	query := `
UPDATE artists SET ` + column + ` = $1
WHERE platform = $2 AND artist_id = $3 AND owner_id = $4 AND guild_id = $5`
	res, err := repo.db.ExecContext(ctx, query, t.UTC(),
		artist.Platform, artist.ArtistID, artist.OwnerID, artist.GuildID)
	if err != nil {
		return fmt.Errorf("SetWatermark: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}
