package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"avto-sawda/pkg/apperr"
	"avto-sawda/pkg/models"
	"avto-sawda/services/listing/internal/entity"
	"avto-sawda/services/listing/internal/filter"
	"avto-sawda/services/listing/internal/sweep"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListingRepository interface {
	Create(ctx context.Context, l *entity.Listing) error
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
	Update(ctx context.Context, l *entity.Listing) error
	Delete(ctx context.Context, id string) error
	DeleteByOwner(ctx context.Context, ownerID string) ([]*entity.Listing, error)
	DeleteAll(ctx context.Context) ([]*entity.Listing, error)

	Search(ctx context.Context, criteria *filter.Criteria, page filter.Page) ([]*entity.Listing, int64, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Listing, error)
	ListByIDs(ctx context.Context, ids []string) ([]*entity.Listing, error)
	ListForSale(ctx context.Context, excludeID string) ([]*entity.Listing, error)
	ListPriced(ctx context.Context) ([]*entity.Listing, error)
	Latest(ctx context.Context, n int) ([]*entity.Listing, error)

	IncrementViews(ctx context.Context, id string) error
	AddViews(ctx context.Context, n int) (int64, error)
	SetPremium(ctx context.Context, id string, until time.Time) error
	ClearPremium(ctx context.Context, id string) error
	SaveRegistry(ctx context.Context, id string, registry entity.Registry) error

	ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	GrowFreshViews(ctx context.Context, floor int, inc sweep.ViewRange) (int64, error)
	GrowMatureViews(ctx context.Context, createdBefore time.Time, floor int, inc sweep.ViewRange) (int64, error)
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

// Columns Update never writes; each has a dedicated writer.
var immutableColumns = []string{"id", "owner_id", "views", "telegram_posts", "is_premium", "premium_expires_at", "created_at"}

func (r *listingRepository) Create(ctx context.Context, l *entity.Listing) error {
	m := ToListingModel(l)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	*l = *ToListingEntity(m)
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	var m models.Listing
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err, "car")
	}
	return ToListingEntity(&m), nil
}

func (r *listingRepository) Update(ctx context.Context, l *entity.Listing) error {
	m := ToListingModel(l)
	res := r.db.WithContext(ctx).Model(m).Select("*").Omit(immutableColumns...).Updates(m)
	if res.Error != nil {
		return fmt.Errorf("failed to update listing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("car not found")
	}
	l.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *listingRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Listing{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete listing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("car not found")
	}
	return nil
}

func (r *listingRepository) DeleteByOwner(ctx context.Context, ownerID string) ([]*entity.Listing, error) {
	var rows []models.Listing
	err := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("owner_id = ?", ownerID).
		Delete(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to delete listings of owner: %w", err)
	}
	return toEntities(rows), nil
}

func (r *listingRepository) DeleteAll(ctx context.Context) ([]*entity.Listing, error) {
	var rows []models.Listing
	err := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("1 = 1").
		Delete(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to delete listings: %w", err)
	}
	return toEntities(rows), nil
}

func (r *listingRepository) Search(ctx context.Context, criteria *filter.Criteria, page filter.Page) ([]*entity.Listing, int64, error) {
	base := criteria.Apply(r.db.WithContext(ctx).Model(&models.Listing{})).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	var rows []models.Listing
	err := base.Order(filter.Order).
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search listings: %w", err)
	}
	return toEntities(rows), total, nil
}

func (r *listingRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Listing, error) {
	var rows []models.Listing
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list owner listings: %w", err)
	}
	return toEntities(rows), nil
}

func (r *listingRepository) ListByIDs(ctx context.Context, ids []string) ([]*entity.Listing, error) {
	if len(ids) == 0 {
		return []*entity.Listing{}, nil
	}
	var rows []models.Listing
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order(filter.Order).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return toEntities(rows), nil
}

func (r *listingRepository) ListForSale(ctx context.Context, excludeID string) ([]*entity.Listing, error) {
	q := r.db.WithContext(ctx).Where("status = ?", entity.StatusSale)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var rows []models.Listing
	if err := q.Order(filter.Order).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list listings for sale: %w", err)
	}
	return toEntities(rows), nil
}

// ListPriced loads the minimal columns ranking needs.
func (r *listingRepository) ListPriced(ctx context.Context) ([]*entity.Listing, error) {
	var rows []models.Listing
	err := r.db.WithContext(ctx).
		Select("id", "brand", "model", "price", "status").
		Where("status = ? AND price > 0", entity.StatusSale).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list priced listings: %w", err)
	}
	return toEntities(rows), nil
}

func (r *listingRepository) Latest(ctx context.Context, n int) ([]*entity.Listing, error) {
	var rows []models.Listing
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(n).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list latest listings: %w", err)
	}
	return toEntities(rows), nil
}

func (r *listingRepository) IncrementViews(ctx context.Context, id string) error {
	return r.updateColumn(ctx, id, "views", gorm.Expr("views + ?", 1))
}

func (r *listingRepository) AddViews(ctx context.Context, n int) (int64, error) {
	res := r.db.WithContext(ctx).Exec("UPDATE listings SET views = views + ?", n)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to add views: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *listingRepository) SetPremium(ctx context.Context, id string, until time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Listing{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_premium": true, "premium_expires_at": until})
	if res.Error != nil {
		return fmt.Errorf("failed to promote listing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("car not found")
	}
	return nil
}

func (r *listingRepository) ClearPremium(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Listing{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{"is_premium": false, "premium_expires_at": nil})
	if res.Error != nil {
		return fmt.Errorf("failed to clear premium: %w", res.Error)
	}
	return nil
}

func (r *listingRepository) SaveRegistry(ctx context.Context, id string, registry entity.Registry) error {
	return r.updateColumn(ctx, id, "telegram_posts", registryColumn(registry))
}

func (r *listingRepository) updateColumn(ctx context.Context, id, column string, value interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Listing{}).Where("id = ?", id).UpdateColumn(column, value)
	if res.Error != nil {
		return fmt.Errorf("failed to update %s: %w", column, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("car not found")
	}
	return nil
}

func (r *listingRepository) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		"UPDATE listings SET status = ?, updated_at = ? WHERE status = ? AND created_at < ?",
		entity.StatusExpired, time.Now(), entity.StatusSale, cutoff,
	)
	return res.RowsAffected, res.Error
}

func (r *listingRepository) GrowFreshViews(ctx context.Context, floor int, inc sweep.ViewRange) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		"UPDATE listings SET views = LEAST(views + floor(random() * ?)::int + ?, ?) WHERE status = ? AND views < ?",
		float64(inc.Max-inc.Min+1), inc.Min, floor, entity.StatusSale, floor,
	)
	return res.RowsAffected, res.Error
}

func (r *listingRepository) GrowMatureViews(ctx context.Context, createdBefore time.Time, floor int, inc sweep.ViewRange) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		"UPDATE listings SET views = views + floor(random() * ?)::int + ? WHERE status = ? AND views >= ? AND created_at < ?",
		float64(inc.Max-inc.Min+1), inc.Min, entity.StatusSale, floor, createdBefore,
	)
	return res.RowsAffected, res.Error
}

func toEntities(rows []models.Listing) []*entity.Listing {
	out := make([]*entity.Listing, 0, len(rows))
	for i := range rows {
		out = append(out, ToListingEntity(&rows[i]))
	}
	return out
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("%s not found", what)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
