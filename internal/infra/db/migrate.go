package db

import "database/sql"

// MigrateUp creates the schema. All statements are idempotent so the migration
// can run at every API startup.
//
// Watermark columns are NULLable on purpose: NULL means "never polled", which
// must stay distinct from any real timestamp. The notified_items composite
// primary key is the uniqueness constraint that serializes concurrent
// MarkNotified calls.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS users (
    user_id       TEXT PRIMARY KEY,
    username      TEXT NOT NULL,
    registered_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS artists (
    platform           TEXT NOT NULL,
    artist_id          TEXT NOT NULL,
    owner_id           TEXT NOT NULL,
    guild_id           TEXT NOT NULL,
    artist_name        TEXT NOT NULL,
    artist_url         TEXT NOT NULL,
    genres             TEXT,
    last_release_date  TIMESTAMPTZ,
    last_playlist_date TIMESTAMPTZ,
    last_repost_date   TIMESTAMPTZ,
    last_like_date     TIMESTAMPTZ,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (platform, artist_id, owner_id, guild_id)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS notified_items (
    artist_id    TEXT NOT NULL,
    guild_id     TEXT NOT NULL,
    platform     TEXT NOT NULL,
    content_kind TEXT NOT NULL,
    content_id   TEXT NOT NULL,
    notified_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (artist_id, guild_id, platform, content_kind, content_id)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS channels (
    guild_id    TEXT NOT NULL,
    platform    TEXT NOT NULL,
    webhook_url TEXT NOT NULL,
    PRIMARY KEY (guild_id, platform)
)`); err != nil {
		return err
	}

	indexes := []string{
		// Roster scan per cycle filters by platform
		`CREATE INDEX IF NOT EXISTS idx_artists_platform ON artists(platform)`,
		// Owner listing for the command surface
		`CREATE INDEX IF NOT EXISTS idx_artists_owner ON artists(owner_id)`,
		// Ledger lookups are always scoped to artist+guild
		`CREATE INDEX IF NOT EXISTS idx_notified_items_scope ON notified_items(artist_id, guild_id, content_kind)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	_, _ = db.Exec(`
DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM pg_constraint
        WHERE conname = 'chk_artist_platform'
    ) THEN
        ALTER TABLE artists ADD CONSTRAINT chk_artist_platform
        CHECK (platform IN ('soundcloud', 'spotify'));
    END IF;
END $$;
`)

	_, _ = db.Exec(`
DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM pg_constraint
        WHERE conname = 'chk_notified_content_kind'
    ) THEN
        ALTER TABLE notified_items ADD CONSTRAINT chk_notified_content_kind
        CHECK (content_kind IN ('release', 'playlist', 'repost', 'like'));
    END IF;
END $$;
`)

	return nil
}

// MigrateDown rolls back the schema. Use with caution: this deletes all data.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS notified_items`,
		`DROP TABLE IF EXISTS channels`,
		`DROP TABLE IF EXISTS artists`,
		`DROP TABLE IF EXISTS users`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
