package usecase

import (
	"context"
	"testing"

	"avto-sawda/pkg/apperr"
	"avto-sawda/services/listing/internal/entity"
	"avto-sawda/services/listing/internal/syndication"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAccountFixture(t *testing.T) (*memListings, *memUsers, *fakeTasks, AccountUseCase) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	posted := seeded("c1", "u-owner", 100)
	posted.TelegramPosts = entity.Registry{{ChannelID: "@cars", PostID: "1"}}
	listings := newMemListings(posted, seeded("c2", "u-owner", 200), seeded("c3", "u-other", 300))
	users := newMemUsers(
		&entity.User{ID: "u-owner", PasswordHash: string(hash), Role: entity.RoleUser},
		&entity.User{ID: "u-other", Role: entity.RoleUser, SavedListings: []string{"c1", "c3"}},
		&entity.User{ID: "u-admin", Role: entity.RoleAdmin, SavedListings: []string{"c2"}},
	)
	tasks := &fakeTasks{}
	return listings, users, tasks, NewAccountUseCase(listings, users, &fakeObjects{}, tasks, testLogger())
}

func TestSaved_ResolvesListings(t *testing.T) {
	_, _, _, uc := newAccountFixture(t)

	saved, err := uc.Saved(context.Background(), "u-other")

	require.NoError(t, err)
	ids := make([]string, 0, len(saved))
	for _, l := range saved {
		ids = append(ids, l.ID)
	}
	assert.ElementsMatch(t, []string{"c1", "c3"}, ids)
}

func TestDeleteAccount_WrongPassword(t *testing.T) {
	listings, users, _, uc := newAccountFixture(t)

	err := uc.DeleteAccount(context.Background(), "u-owner", "guess")

	assert.True(t, apperr.Is(err, apperr.KindAuthorization))
	assert.Len(t, listings.rows, 3)
	assert.Len(t, users.rows, 3)
}

func TestDeleteAccount_CascadesOwnedListings(t *testing.T) {
	listings, users, tasks, uc := newAccountFixture(t)
	ctx := context.Background()

	require.NoError(t, uc.DeleteAccount(ctx, "u-owner", "secret"))

	assert.NotContains(t, users.rows, "u-owner")
	assert.Equal(t, []string{"c3"}, keys(listings))
	other, _ := users.GetByID(ctx, "u-other")
	adm, _ := users.GetByID(ctx, "u-admin")
	assert.Equal(t, []string{"c3"}, other.SavedListings)
	assert.Empty(t, adm.SavedListings)
	require.Len(t, tasks.tasks, 1)
	assert.Equal(t, syndication.TaskDelete, tasks.tasks[0].Kind)
	assert.Equal(t, "c1", tasks.tasks[0].ListingID)
}

func TestDeleteUser_Rules(t *testing.T) {
	_, users, _, uc := newAccountFixture(t)
	ctx := context.Background()

	assert.True(t, apperr.Is(uc.DeleteUser(ctx, entity.Actor{UserID: "u-other", Role: entity.RoleUser}, "u-owner"), apperr.KindAuthorization))
	assert.True(t, apperr.Is(uc.DeleteUser(ctx, admin, "u-admin"), apperr.KindValidation))
	assert.True(t, apperr.Is(uc.DeleteUser(ctx, admin, "nobody"), apperr.KindNotFound))

	require.NoError(t, uc.DeleteUser(ctx, admin, "u-owner"))
	assert.NotContains(t, users.rows, "u-owner")
}

func keys(m *memListings) []string {
	out := make([]string, 0, len(m.rows))
	for id := range m.rows {
		out = append(out, id)
	}
	return out
}
