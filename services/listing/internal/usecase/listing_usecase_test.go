package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"avto-sawda/pkg/apperr"
	"avto-sawda/pkg/imaging"
	"avto-sawda/services/listing/internal/entity"
	"avto-sawda/services/listing/internal/syndication"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listingFixture struct {
	listings *memListings
	users    *memUsers
	images   *fakeImages
	objects  *fakeObjects
	tasks    *fakeTasks
	uc       *listingUseCase
}

func newListingFixture(ls ...*entity.Listing) *listingFixture {
	f := &listingFixture{
		listings: newMemListings(ls...),
		users:    newMemUsers(),
		images:   &fakeImages{},
		objects:  &fakeObjects{},
		tasks:    &fakeTasks{},
	}
	f.uc = NewListingUseCase(f.listings, f.users, f.images, f.objects, f.tasks, nil, testLogger()).(*listingUseCase)
	return f
}

var (
	owner    = entity.Actor{UserID: "u-owner", Role: entity.RoleUser}
	stranger = entity.Actor{UserID: "u-other", Role: entity.RoleUser}
	admin    = entity.Actor{UserID: "u-admin", Role: entity.RoleAdmin}
)

func TestCreate_RequiresAnImage(t *testing.T) {
	f := newListingFixture()

	_, err := f.uc.Create(context.Background(), owner, CreateInput{Attributes: validAttributes()})

	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Zero(t, f.images.calls)
	assert.Empty(t, f.listings.rows)
}

func TestCreate_ValidatesBeforeStoringImages(t *testing.T) {
	f := newListingFixture()
	attrs := validAttributes()
	attrs.Brand = ""
	attrs.Transmission = "steam"

	_, err := f.uc.Create(context.Background(), owner, CreateInput{Attributes: attrs, Files: files("a.jpg")})

	require.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "brand is required")
	assert.Contains(t, err.Error(), "transmission must be one of")
	assert.Zero(t, f.images.calls)
}

func TestCreate_StoresImagesAndQueuesPost(t *testing.T) {
	f := newListingFixture()

	l, err := f.uc.Create(context.Background(), owner, CreateInput{Attributes: validAttributes(), Files: files("a.jpg", "b.png")})

	require.NoError(t, err)
	assert.Equal(t, "u-owner", l.OwnerID)
	assert.Equal(t, entity.StatusSale, l.Status)
	assert.Equal(t, []string{"https://cdn.test/cars/u-owner/a.jpg", "https://cdn.test/cars/u-owner/b.png"}, l.Images)
	assert.Equal(t, []string{"https://cdn.test/cars/u-owner/thumb_a.jpg", "https://cdn.test/cars/u-owner/thumb_b.png"}, l.Thumbnails)
	assert.Equal(t, []syndication.Task{{Kind: syndication.TaskPost, ListingID: l.ID}}, f.tasks.tasks)
}

func TestCreate_NotForSaleIsNotPosted(t *testing.T) {
	f := newListingFixture()
	attrs := validAttributes()
	attrs.Status = entity.StatusSold

	_, err := f.uc.Create(context.Background(), owner, CreateInput{Attributes: attrs, Files: files("a.jpg")})

	require.NoError(t, err)
	assert.Empty(t, f.tasks.tasks)
}

func TestCreate_RejectsNonImages(t *testing.T) {
	f := newListingFixture()
	f.images.err = fmt.Errorf("notes.txt: %w", imaging.ErrNotAnImage)

	_, err := f.uc.Create(context.Background(), owner, CreateInput{Attributes: validAttributes(), Files: files("notes.txt")})

	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdate_NonOwnerIsRejected(t *testing.T) {
	f := newListingFixture(seeded("c1", "u-owner", 100))

	_, err := f.uc.Update(context.Background(), stranger, "c1", UpdateInput{Patch: json.RawMessage(`{"price":1}`)})

	assert.True(t, apperr.Is(err, apperr.KindAuthorization))
	assert.Equal(t, int64(100), f.listings.rows["c1"].PriceValue())
}

func TestUpdate_MergesPatchOverCurrentAttributes(t *testing.T) {
	f := newListingFixture(seeded("c1", "u-owner", 100))

	l, err := f.uc.Update(context.Background(), admin, "c1", UpdateInput{Patch: json.RawMessage(`{"price":250,"color":"white"}`)})

	require.NoError(t, err)
	assert.Equal(t, int64(250), l.PriceValue())
	assert.Equal(t, "white", l.Color)
	assert.Equal(t, "Chevrolet", l.Brand)
	assert.Equal(t, entity.StatusSale, l.Status)
	assert.Len(t, l.Images, 1)
	assert.Empty(t, f.tasks.tasks, "listings never posted are not edited")
}

func TestUpdate_InvalidPatch(t *testing.T) {
	f := newListingFixture(seeded("c1", "u-owner", 100))

	_, err := f.uc.Update(context.Background(), owner, "c1", UpdateInput{Patch: json.RawMessage(`{"fuelType":"coal"}`)})

	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdate_ReplacesImagesAndRemovesDropped(t *testing.T) {
	l := seeded("c1", "u-owner", 100)
	l.Images = []string{"https://cdn.test/c1/1.jpg", "https://cdn.test/c1/2.jpg"}
	l.Thumbnails = []string{"https://cdn.test/c1/1_thumb.jpg", "https://cdn.test/c1/2_thumb.jpg"}
	l.TelegramPosts = entity.Registry{{ChannelID: "@cars", PostID: "7", Media: true}}
	f := newListingFixture(l)

	out, err := f.uc.Update(context.Background(), owner, "c1", UpdateInput{
		ExistingImages: []string{"https://cdn.test/c1/2.jpg"},
		Files:          files("3.jpg"),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.test/c1/2.jpg", "https://cdn.test/cars/u-owner/3.jpg"}, out.Images)
	assert.Equal(t, []string{"https://cdn.test/c1/2_thumb.jpg", "https://cdn.test/cars/u-owner/thumb_3.jpg"}, out.Thumbnails)
	assert.ElementsMatch(t, []string{"c1/1.jpg", "c1/1_thumb.jpg"}, f.objects.deleted)
	assert.Equal(t, []syndication.Task{{Kind: syndication.TaskUpdate, ListingID: "c1"}}, f.tasks.tasks)
}

func TestUpdate_StoreFailureRemovesUploads(t *testing.T) {
	l := seeded("c1", "u-owner", 100)
	l.Images = []string{"https://cdn.test/c1/1.jpg"}
	l.Thumbnails = []string{"https://cdn.test/c1/1_thumb.jpg"}
	f := newListingFixture(l)
	f.listings.updateErr = errors.New("db down")

	_, err := f.uc.Update(context.Background(), owner, "c1", UpdateInput{
		ExistingImages: []string{},
		Files:          files("3.jpg"),
	})

	assert.Error(t, err)
	assert.ElementsMatch(t, []string{"cars/u-owner/3.jpg", "cars/u-owner/thumb_3.jpg"}, f.objects.deleted)
	assert.Equal(t, []string{"https://cdn.test/c1/1.jpg"}, f.listings.rows["c1"].Images)
	assert.Empty(t, f.tasks.tasks)
}

func TestUpdate_CannotDropEveryImage(t *testing.T) {
	f := newListingFixture(seeded("c1", "u-owner", 100))

	_, err := f.uc.Update(context.Background(), owner, "c1", UpdateInput{ExistingImages: []string{}})

	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Empty(t, f.objects.deleted)
}

func TestRetainImages(t *testing.T) {
	images := []string{"a", "b", "c"}
	thumbs := []string{"ta", "", "tc"}

	outImages, outThumbs, dropped := retainImages(images, thumbs, []string{"c", "zzz", "a", "c"})
	assert.Equal(t, []string{"c", "a"}, outImages)
	assert.Equal(t, []string{"tc", "ta"}, outThumbs)
	assert.Equal(t, []string{"b"}, dropped)

	outImages, outThumbs, dropped = retainImages(images, thumbs, nil)
	assert.Equal(t, images, outImages)
	assert.Equal(t, []string{"ta", "b", "tc"}, outThumbs)
	assert.Nil(t, dropped)
}

func TestDelete_PurgesSavedSetsAndPosts(t *testing.T) {
	l := seeded("c1", "u-owner", 100)
	l.TelegramPosts = entity.Registry{{ChannelID: "@cars", PostID: "7"}}
	f := newListingFixture(l, seeded("c2", "u-owner", 200))
	f.users = newMemUsers(
		&entity.User{ID: "u1", SavedListings: []string{"c1", "c2"}},
		&entity.User{ID: "u2", SavedListings: []string{"c1"}},
	)
	f.uc.users = f.users

	require.True(t, apperr.Is(f.uc.Delete(context.Background(), stranger, "c1"), apperr.KindAuthorization))
	require.NoError(t, f.uc.Delete(context.Background(), owner, "c1"))

	u1, _ := f.users.GetByID(context.Background(), "u1")
	u2, _ := f.users.GetByID(context.Background(), "u2")
	assert.Equal(t, []string{"c2"}, u1.SavedListings)
	assert.Empty(t, u2.SavedListings)
	assert.NotContains(t, f.listings.rows, "c1")
	assert.Equal(t, []syndication.Task{{Kind: syndication.TaskDelete, ListingID: "c1", Posts: l.TelegramPosts}}, f.tasks.tasks)
	assert.ElementsMatch(t, []string{"c1/1.jpg", "c1/1_thumb.jpg"}, f.objects.deleted)

	_, _, err := f.uc.Get(context.Background(), "c1")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteAll_AdminOnly(t *testing.T) {
	f := newListingFixture(seeded("c1", "a", 1), seeded("c2", "b", 2))

	_, err := f.uc.DeleteAll(context.Background(), owner)
	require.True(t, apperr.Is(err, apperr.KindAuthorization))

	n, err := f.uc.DeleteAll(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, f.listings.rows)
}

func TestSave_ConflictAndUnsave(t *testing.T) {
	f := newListingFixture(seeded("c1", "u-owner", 100))
	f.users = newMemUsers(&entity.User{ID: "u1"})
	f.uc.users = f.users
	ctx := context.Background()

	require.NoError(t, f.uc.Save(ctx, "u1", "c1"))
	assert.True(t, apperr.Is(f.uc.Save(ctx, "u1", "c1"), apperr.KindConflict))
	assert.True(t, apperr.Is(f.uc.Save(ctx, "u1", "missing"), apperr.KindNotFound))

	require.NoError(t, f.uc.Unsave(ctx, "u1", "c1"))
	require.NoError(t, f.uc.Unsave(ctx, "u1", "c1"))
	u, _ := f.users.GetByID(ctx, "u1")
	assert.Empty(t, u.SavedListings)
}

func TestPromote(t *testing.T) {
	f := newListingFixture(seeded("c1", "u-owner", 100))
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.uc.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := f.uc.Promote(ctx, owner, "c1", 7)
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))

	_, err = f.uc.Promote(ctx, admin, "c1", 0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.uc.Promote(ctx, admin, "c1", 200000)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.False(t, f.listings.rows["c1"].IsPremium)

	_, err = f.uc.Promote(ctx, admin, "missing", 3)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	l, err := f.uc.Promote(ctx, admin, "c1", 7)
	require.NoError(t, err)
	assert.True(t, l.IsPremium)
	require.NotNil(t, l.PremiumExpiresAt)
	assert.Equal(t, now.Add(7*24*time.Hour), *l.PremiumExpiresAt)

	l, err = f.uc.Promote(ctx, admin, "c1", MaxPremiumDays)
	require.NoError(t, err)
	assert.True(t, l.PremiumExpiresAt.After(now))
	assert.Equal(t, now.AddDate(0, 0, MaxPremiumDays), *l.PremiumExpiresAt)
}

func TestGet_ClearsLapsedPremiumAndCountsView(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	l := seeded("c1", "u-owner", 100)
	l.IsPremium, l.PremiumExpiresAt, l.Views = true, &past, 4
	f := newListingFixture(l, seeded("c2", "x", 200), seeded("c3", "x", 300))

	got, rank, err := f.uc.Get(context.Background(), "c1")

	require.NoError(t, err)
	assert.False(t, got.IsPremium)
	assert.Nil(t, got.PremiumExpiresAt)
	assert.Equal(t, 5, got.Views)
	assert.False(t, f.listings.rows["c1"].IsPremium)
	assert.Equal(t, 5, f.listings.rows["c1"].Views)

	require.NotNil(t, rank)
	assert.Equal(t, 3, rank.PeerCount)
	assert.Equal(t, int64(100), rank.MinPrice)
	assert.Equal(t, int64(300), rank.MaxPrice)
	assert.Equal(t, 100, rank.Percentile)
}

func TestGet_UnpricedHasNoRank(t *testing.T) {
	f := newListingFixture(seeded("c1", "u-owner", 0), seeded("c2", "x", 200))

	_, rank, err := f.uc.Get(context.Background(), "c1")

	require.NoError(t, err)
	assert.Nil(t, rank)
}

func TestSimilar(t *testing.T) {
	other := seeded("bmw", "x", 100)
	other.Brand = "BMW"
	sold := seeded("sold", "x", 100)
	sold.Status = entity.StatusSold
	list := []*entity.Listing{
		seeded("target", "x", 100),
		seeded("near", "x", 125),
		seeded("far", "x", 200),
		seeded("free", "x", 0),
		other,
		sold,
	}
	for i := 0; i < 10; i++ {
		list = append(list, seeded(fmt.Sprintf("z%02d", i), "x", 90))
	}
	f := newListingFixture(list...)

	out, err := f.uc.Similar(context.Background(), "target")

	require.NoError(t, err)
	assert.Len(t, out, SimilarLimit)
	for _, l := range out {
		assert.NotContains(t, []string{"target", "far", "bmw", "sold"}, l.ID)
	}
}

func TestSimilar_UnpricedTargetAcceptsAnyPrice(t *testing.T) {
	f := newListingFixture(seeded("target", "x", 0), seeded("a", "x", 10), seeded("b", "x", 999999))

	out, err := f.uc.Similar(context.Background(), "target")

	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestSearch_PagesFilteredResults(t *testing.T) {
	var list []*entity.Listing
	for i := 0; i < 5; i++ {
		list = append(list, seeded(fmt.Sprintf("c%d", i), "x", int64(100*(i+1))))
	}
	f := newListingFixture(list...)

	res, err := f.uc.Search(context.Background(), map[string]string{"minPrice": "200", "limit": "2", "page": "2"})

	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Total)
	assert.Equal(t, 2, res.Page.Page)
	assert.Len(t, res.Listings, 2)
}
