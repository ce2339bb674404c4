package persistent

import (
	"context"
	"regexp"
	"testing"
	"time"

	"avto-sawda/pkg/apperr"
	"avto-sawda/services/auth/internal/entity"

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

func TestUserRepository_GetByPhone(t *testing.T) {
	db, mock := newMockDB(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "phone", "password", "role", "saved_listings", "created_at"}).
		AddRow("u1", "Aziz", "Karimov", "+998901234567", "hash", "admin", "{l1,l2}", created)
	mock.ExpectQuery(q(`SELECT * FROM "users" WHERE phone = $1`)).
		WillReturnRows(rows)

	u, err := NewUserRepository(db).GetByPhone(context.Background(), "+998901234567")

	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "hash", u.PasswordHash)
	assert.Equal(t, entity.RoleAdmin, u.Role)
	assert.Equal(t, []string{"l1", "l2"}, u.SavedListings)
	assert.Equal(t, created, u.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(q(`SELECT * FROM "users" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewUserRepository(db).GetByID(context.Background(), "missing")

	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(q(`UPDATE "users" SET`)).WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewUserRepository(db).Update(context.Background(), &entity.User{ID: "gone", Phone: "+1"})

	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateDuplicatePhone(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(q(`UPDATE "users" SET`)).WillReturnError(gorm.ErrDuplicatedKey)

	err := NewUserRepository(db).Update(context.Background(), &entity.User{ID: "u1", Phone: "+1"})

	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestUserRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(q(`SELECT count(*) FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(31))
	mock.ExpectQuery(q(`SELECT * FROM "users" ORDER BY created_at DESC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "phone"}).AddRow("u2", "+2").AddRow("u1", "+1"))

	users, total, err := NewUserRepository(db).List(context.Background(), 15, 15)

	require.NoError(t, err)
	assert.Equal(t, int64(31), total)
	require.Len(t, users, 2)
	assert.Equal(t, "u2", users[0].ID)
	assert.Equal(t, []string{}, users[0].SavedListings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapper_RoundTripKeepsEmptySaved(t *testing.T) {
	m := ToUserModel(&entity.User{ID: "u1", Role: entity.RoleUser})
	assert.NotNil(t, m.SavedListings)
	assert.Equal(t, "user", string(m.Role))

	e := ToUserEntity(m)
	assert.Equal(t, []string{}, e.SavedListings)
	assert.Nil(t, ToUserEntity(nil))
}
