package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"release-radar/internal/domain/entity"
)

// passthroughConverter accepts any argument value. The pgx driver handles
// slice parameters (content_id = ANY($5)) itself, so the mock must not
// reject them the way database/sql's default converter would.
type passthroughConverter struct{}

func (passthroughConverter) ConvertValue(v interface{}) (driver.Value, error) { return v, nil }

func ledgerKey(contentID string) entity.DedupKey {
	return entity.DedupKey{
		ArtistID:  "a1",
		GuildID:   "guild-1",
		Platform:  entity.PlatformSoundCloud,
		Kind:      entity.KindRelease,
		ContentID: contentID,
	}
}

func TestLedgerRepo_MarkNotified_InsertIfAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewLedgerRepo(db)

	// ON CONFLICT DO NOTHING is the insert-if-absent contract: a concurrent
	// mark for the same key must not error.
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO notified_items`)).
		WithArgs("a1", "guild-1", entity.PlatformSoundCloud, entity.KindRelease, "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkNotified(context.Background(), ledgerKey("c1")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_MarkNotified_DuplicateIsNotAnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewLedgerRepo(db)

	// Zero rows affected means the conflict clause swallowed the insert.
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO notified_items`)).
		WithArgs("a1", "guild-1", entity.PlatformSoundCloud, entity.KindRelease, "c1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.MarkNotified(context.Background(), ledgerKey("c1")))
}

func TestLedgerRepo_IsNotified(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewLedgerRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM notified_items`)).
		WithArgs("a1", "guild-1", entity.PlatformSoundCloud, entity.KindRelease, "hit").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM notified_items`)).
		WithArgs("a1", "guild-1", entity.PlatformSoundCloud, entity.KindRelease, "miss").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	hit, err := repo.IsNotified(context.Background(), ledgerKey("hit"))
	require.NoError(t, err)
	assert.True(t, hit)

	miss, err := repo.IsNotified(context.Background(), ledgerKey("miss"))
	require.NoError(t, err)
	assert.False(t, miss)
}

func TestLedgerRepo_IsNotifiedBatch(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(passthroughConverter{}))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewLedgerRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT content_id FROM notified_items`)).
		WillReturnRows(sqlmock.NewRows([]string{"content_id"}).AddRow("c2"))

	result, err := repo.IsNotifiedBatch(context.Background(), ledgerKey(""), []string{"c1", "c2", "c3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"c1": false, "c2": true, "c3": false}, result)
}

func TestLedgerRepo_IsNotifiedBatch_EmptyInputSkipsQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewLedgerRepo(db)

	result, err := repo.IsNotifiedBatch(context.Background(), ledgerKey(""), nil)
	require.NoError(t, err)
	assert.Empty(t, result)
	// No expectation registered: any query would have failed the mock.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_IsNotifiedBatch_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(passthroughConverter{}))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewLedgerRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT content_id FROM notified_items`)).
		WillReturnError(errors.New("db down"))

	_, err = repo.IsNotifiedBatch(context.Background(), ledgerKey(""), []string{"c1"})
	require.Error(t, err)
}
