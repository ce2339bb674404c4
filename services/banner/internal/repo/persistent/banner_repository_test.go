package persistent

import (
	"context"
	"regexp"
	"testing"

	"avto-sawda/pkg/apperr"
	"avto-sawda/services/banner/internal/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func q(sql string) string { return regexp.QuoteMeta(sql) }

func TestBannerRepository_ListActive(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows([]string{"id", "title", "image", "link", "sort_order", "is_active"}).
		AddRow("b1", "First", "/1.jpg", "/cars", 1, true).
		AddRow("b2", "Second", "/2.jpg", "", 2, true)
	mock.ExpectQuery(q(`SELECT * FROM "banners" WHERE is_active = $1 ORDER BY sort_order ASC,created_at ASC`)).
		WithArgs(true).
		WillReturnRows(rows)

	banners, err := NewBannerRepository(db).ListActive(context.Background())

	require.NoError(t, err)
	require.Len(t, banners, 2)
	assert.Equal(t, 1, banners[0].Order)
	assert.Equal(t, "/cars", banners[0].Link)
	assert.True(t, banners[1].IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBannerRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(q(`SELECT * FROM "banners" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewBannerRepository(db).GetByID(context.Background(), "missing")

	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestBannerRepository_UpdateWritesOnlyPatchedColumns(t *testing.T) {
	db, mock := newMockDB(t)
	order := 5
	mock.ExpectExec(q(`UPDATE "banners" SET "sort_order"=$1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q(`SELECT * FROM "banners" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "sort_order", "is_active"}).AddRow("b1", "T", 5, false))

	b, err := NewBannerRepository(db).Update(context.Background(), "b1", entity.Patch{Order: &order})

	require.NoError(t, err)
	assert.Equal(t, 5, b.Order)
	assert.False(t, b.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBannerRepository_UpdateMissing(t *testing.T) {
	db, mock := newMockDB(t)
	active := true
	mock.ExpectExec(q(`UPDATE "banners" SET`)).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := NewBannerRepository(db).Update(context.Background(), "gone", entity.Patch{IsActive: &active})

	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestBannerRepository_DeleteMissing(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(q(`DELETE FROM "banners" WHERE id = $1`)).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewBannerRepository(db).Delete(context.Background(), "gone")

	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatchColumns(t *testing.T) {
	title, link := "T", ""
	cols := patchColumns(entity.Patch{Title: &title, Link: &link})

	assert.Equal(t, map[string]interface{}{"title": "T", "link": ""}, cols)
	assert.True(t, entity.Patch{}.Empty())
}
