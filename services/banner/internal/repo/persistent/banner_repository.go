package persistent

import (
	"context"
	"errors"
	"fmt"

	"avto-sawda/pkg/apperr"
	"avto-sawda/pkg/models"
	"avto-sawda/services/banner/internal/entity"

	"gorm.io/gorm"
)

type BannerRepository interface {
	ListActive(ctx context.Context) ([]*entity.Banner, error)
	GetByID(ctx context.Context, id string) (*entity.Banner, error)
	Create(ctx context.Context, b *entity.Banner) error
	Update(ctx context.Context, id string, p entity.Patch) (*entity.Banner, error)
	Delete(ctx context.Context, id string) error
}

type bannerRepository struct {
	db *gorm.DB
}

func NewBannerRepository(db *gorm.DB) BannerRepository {
	return &bannerRepository{db: db}
}

func (r *bannerRepository) ListActive(ctx context.Context) ([]*entity.Banner, error) {
	var rows []models.Banner
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list banners: %w", err)
	}

	banners := make([]*entity.Banner, 0, len(rows))
	for i := range rows {
		banners = append(banners, ToBannerEntity(&rows[i]))
	}
	return banners, nil
}

func (r *bannerRepository) GetByID(ctx context.Context, id string) (*entity.Banner, error) {
	var m models.Banner
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return ToBannerEntity(&m), nil
}

func (r *bannerRepository) Create(ctx context.Context, b *entity.Banner) error {
	m := ToBannerModel(b)
	// is_active has a column default, so false has to be written explicitly
	if err := r.db.WithContext(ctx).Select("*").Create(m).Error; err != nil {
		return fmt.Errorf("failed to create banner: %w", err)
	}
	*b = *ToBannerEntity(m)
	return nil
}

func (r *bannerRepository) Update(ctx context.Context, id string, p entity.Patch) (*entity.Banner, error) {
	if p.Empty() {
		return r.GetByID(ctx, id)
	}

	res := r.db.WithContext(ctx).Model(&models.Banner{ID: id}).Updates(patchColumns(p))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update banner: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("banner not found")
	}
	return r.GetByID(ctx, id)
}

func (r *bannerRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Banner{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete banner: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("banner not found")
	}
	return nil
}

func patchColumns(p entity.Patch) map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Image != nil {
		cols["image"] = *p.Image
	}
	if p.Link != nil {
		cols["link"] = *p.Link
	}
	if p.Order != nil {
		cols["sort_order"] = *p.Order
	}
	if p.IsActive != nil {
		cols["is_active"] = *p.IsActive
	}
	return cols
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("banner not found")
	}
	return fmt.Errorf("failed to load banner: %w", err)
}
