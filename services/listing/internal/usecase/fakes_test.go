package usecase

import (
	"context"
	"fmt"
	"mime/multipart"
	"sort"
	"sync"
	"time"

	"avto-sawda/pkg/apperr"
	"avto-sawda/pkg/imaging"
	"avto-sawda/pkg/logger"
	"avto-sawda/services/listing/internal/entity"
	"avto-sawda/services/listing/internal/filter"
	"avto-sawda/services/listing/internal/sweep"
	"avto-sawda/services/listing/internal/syndication"

	"go.uber.org/zap"
)

type memListings struct {
	mu        sync.Mutex
	rows      map[string]*entity.Listing
	seq       int
	updateErr error
}

func newMemListings(ls ...*entity.Listing) *memListings {
	m := &memListings{rows: map[string]*entity.Listing{}}
	for _, l := range ls {
		m.rows[l.ID] = l
	}
	return m
}

func clone(l *entity.Listing) *entity.Listing {
	cp := *l
	cp.Images = append([]string(nil), l.Images...)
	cp.Thumbnails = append([]string(nil), l.Thumbnails...)
	cp.TelegramPosts = append(entity.Registry(nil), l.TelegramPosts...)
	return &cp
}

func (m *memListings) Create(_ context.Context, l *entity.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	l.ID = fmt.Sprintf("car-%d", m.seq)
	l.CreatedAt = time.Now()
	m.rows[l.ID] = clone(l)
	return nil
}

func (m *memListings) GetByID(_ context.Context, id string) (*entity.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok {
		return nil, apperr.NotFound("car not found")
	}
	return clone(l), nil
}

func (m *memListings) Update(_ context.Context, l *entity.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	cur, ok := m.rows[l.ID]
	if !ok {
		return apperr.NotFound("car not found")
	}
	next := clone(l)
	next.Views, next.TelegramPosts, next.IsPremium, next.PremiumExpiresAt = cur.Views, cur.TelegramPosts, cur.IsPremium, cur.PremiumExpiresAt
	m.rows[l.ID] = next
	return nil
}

func (m *memListings) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return apperr.NotFound("car not found")
	}
	delete(m.rows, id)
	return nil
}

func (m *memListings) deleteWhere(keep func(*entity.Listing) bool) []*entity.Listing {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Listing
	for id, l := range m.rows {
		if !keep(l) {
			out = append(out, l)
			delete(m.rows, id)
		}
	}
	return out
}

func (m *memListings) DeleteByOwner(_ context.Context, ownerID string) ([]*entity.Listing, error) {
	return m.deleteWhere(func(l *entity.Listing) bool { return l.OwnerID != ownerID }), nil
}

func (m *memListings) DeleteAll(context.Context) ([]*entity.Listing, error) {
	return m.deleteWhere(func(*entity.Listing) bool { return false }), nil
}

func (m *memListings) all(match func(*entity.Listing) bool) []*entity.Listing {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Listing
	for _, l := range m.rows {
		if match(l) {
			out = append(out, clone(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	filter.SortListings(out)
	return out
}

func (m *memListings) Search(_ context.Context, c *filter.Criteria, p filter.Page) ([]*entity.Listing, int64, error) {
	all := m.all(c.Matches)
	total := int64(len(all))
	start := min(p.Offset(), len(all))
	end := min(start+p.Limit, len(all))
	return all[start:end], total, nil
}

func (m *memListings) ListByOwner(_ context.Context, ownerID string) ([]*entity.Listing, error) {
	return m.all(func(l *entity.Listing) bool { return l.OwnerID == ownerID }), nil
}

func (m *memListings) ListByIDs(_ context.Context, ids []string) ([]*entity.Listing, error) {
	set := map[string]bool{}
	for _, id := range ids {
		set[id] = true
	}
	return m.all(func(l *entity.Listing) bool { return set[l.ID] }), nil
}

func (m *memListings) ListForSale(_ context.Context, excludeID string) ([]*entity.Listing, error) {
	return m.all(func(l *entity.Listing) bool { return l.Status == entity.StatusSale && l.ID != excludeID }), nil
}

func (m *memListings) ListPriced(context.Context) ([]*entity.Listing, error) {
	return m.all(func(l *entity.Listing) bool { return l.Status == entity.StatusSale && l.PriceValue() > 0 }), nil
}

func (m *memListings) Latest(_ context.Context, n int) ([]*entity.Listing, error) {
	all := m.all(func(*entity.Listing) bool { return true })
	return all[:min(n, len(all))], nil
}

func (m *memListings) mutate(id string, f func(*entity.Listing)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok {
		return apperr.NotFound("car not found")
	}
	f(l)
	return nil
}

func (m *memListings) IncrementViews(_ context.Context, id string) error {
	return m.mutate(id, func(l *entity.Listing) { l.Views++ })
}

func (m *memListings) AddViews(_ context.Context, n int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.rows {
		l.Views += n
	}
	return int64(len(m.rows)), nil
}

func (m *memListings) SetPremium(_ context.Context, id string, until time.Time) error {
	return m.mutate(id, func(l *entity.Listing) { l.IsPremium, l.PremiumExpiresAt = true, &until })
}

func (m *memListings) ClearPremium(_ context.Context, id string) error {
	return m.mutate(id, func(l *entity.Listing) { l.IsPremium, l.PremiumExpiresAt = false, nil })
}

func (m *memListings) SaveRegistry(_ context.Context, id string, r entity.Registry) error {
	return m.mutate(id, func(l *entity.Listing) { l.TelegramPosts = r })
}

func (m *memListings) ExpireOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

func (m *memListings) GrowFreshViews(context.Context, int, sweep.ViewRange) (int64, error) {
	return 0, nil
}

func (m *memListings) GrowMatureViews(context.Context, time.Time, int, sweep.ViewRange) (int64, error) {
	return 0, nil
}

type memUsers struct {
	mu   sync.Mutex
	rows map[string]*entity.User
}

func newMemUsers(us ...*entity.User) *memUsers {
	m := &memUsers{rows: map[string]*entity.User{}}
	for _, u := range us {
		m.rows[u.ID] = u
	}
	return m
}

func (m *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	cp := *u
	cp.SavedListings = append([]string(nil), u.SavedListings...)
	return &cp, nil
}

func (m *memUsers) AddSaved(_ context.Context, userID, listingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[userID]
	if !ok {
		return apperr.NotFound("user not found")
	}
	if u.HasSaved(listingID) {
		return apperr.Conflict("car already saved")
	}
	u.SavedListings = append(u.SavedListings, listingID)
	return nil
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (m *memUsers) RemoveSaved(_ context.Context, userID, listingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[userID]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.SavedListings = without(u.SavedListings, listingID)
	return nil
}

func (m *memUsers) PullSaved(_ context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		for _, id := range ids {
			u.SavedListings = without(u.SavedListings, id)
		}
	}
	return nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return apperr.NotFound("user not found")
	}
	delete(m.rows, id)
	return nil
}

type fakeImages struct {
	calls int
	err   error
}

func (f *fakeImages) ProcessFiles(_ context.Context, prefix string, files []*multipart.FileHeader) ([]imaging.Stored, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]imaging.Stored, 0, len(files))
	for _, fh := range files {
		out = append(out, imaging.Stored{
			Path:          "https://cdn.test/" + prefix + "/" + fh.Filename,
			ThumbnailPath: "https://cdn.test/" + prefix + "/thumb_" + fh.Filename,
		})
	}
	return out, nil
}

type fakeObjects struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeObjects) KeyFromURL(url string) (string, bool) {
	const base = "https://cdn.test/"
	if len(url) <= len(base) || url[:len(base)] != base {
		return "", false
	}
	return url[len(base):], true
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeTasks struct {
	mu    sync.Mutex
	tasks []syndication.Task
}

func (f *fakeTasks) Enqueue(_ context.Context, t syndication.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, t)
	return nil
}

func testLogger() *logger.Logger {
	return logger.FromZap(zap.NewNop())
}

func files(names ...string) []*multipart.FileHeader {
	out := make([]*multipart.FileHeader, 0, len(names))
	for _, n := range names {
		out = append(out, &multipart.FileHeader{Filename: n})
	}
	return out
}

func validAttributes() entity.Attributes {
	a := entity.Attributes{
		Brand:        "Chevrolet",
		Model:        "Cobalt",
		Year:         2020,
		Mileage:      45000,
		Transmission: "automatic",
		FuelType:     "petrol",
		Condition:    "good",
		OwnersCount:  1,
	}
	a.Contact.Phone = "+998901234567"
	return a
}

func seeded(id, owner string, price int64) *entity.Listing {
	l := &entity.Listing{ID: id, OwnerID: owner, Attributes: validAttributes(), CreatedAt: time.Now()}
	if price > 0 {
		l.Price = &price
	}
	l.Status = entity.StatusSale
	l.Images = []string{"https://cdn.test/" + id + "/1.jpg"}
	l.Thumbnails = []string{"https://cdn.test/" + id + "/1_thumb.jpg"}
	return l
}
