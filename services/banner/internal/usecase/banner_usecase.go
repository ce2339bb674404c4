package usecase

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"avto-sawda/pkg/apperr"
	"avto-sawda/pkg/imaging"
	"avto-sawda/pkg/logger"
	"avto-sawda/services/banner/internal/entity"
	"avto-sawda/services/banner/internal/repo/persistent"
)

const imagePrefix = "banners"

type ImageStore interface {
	ProcessFiles(ctx context.Context, prefix string, files []*multipart.FileHeader) ([]imaging.Stored, error)
}

type ObjectRemover interface {
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

// ActiveCache holds the public list between mutations.
type ActiveCache interface {
	GetActive(ctx context.Context) ([]*entity.Banner, bool, error)
	SetActive(ctx context.Context, banners []*entity.Banner) error
	Invalidate(ctx context.Context) error
}

type CreateInput struct {
	Title     string
	Link      string
	Order     int
	IsActive  *bool
	ImageURL  string
	ImageFile *multipart.FileHeader
}

type UpdateInput struct {
	Patch     entity.Patch
	ImageFile *multipart.FileHeader
}

type BannerUseCase interface {
	ListActive(ctx context.Context) ([]*entity.Banner, error)
	Get(ctx context.Context, id string) (*entity.Banner, error)
	Create(ctx context.Context, in CreateInput) (*entity.Banner, error)
	Update(ctx context.Context, id string, in UpdateInput) (*entity.Banner, error)
	Delete(ctx context.Context, id string) error
	SetOrder(ctx context.Context, id string, order int) (*entity.Banner, error)
	Toggle(ctx context.Context, id string) (*entity.Banner, error)
}

type bannerUseCase struct {
	banners persistent.BannerRepository
	cache   ActiveCache
	images  ImageStore
	objects ObjectRemover
	logger  *logger.Logger
}

func NewBannerUseCase(
	banners persistent.BannerRepository,
	cache ActiveCache,
	images ImageStore,
	objects ObjectRemover,
	logger *logger.Logger,
) BannerUseCase {
	return &bannerUseCase{
		banners: banners,
		cache:   cache,
		images:  images,
		objects: objects,
		logger:  logger,
	}
}

// ListActive serves from cache when it can. Cache failures fall through to the database.
func (uc *bannerUseCase) ListActive(ctx context.Context) ([]*entity.Banner, error) {
	if uc.cache != nil {
		banners, ok, err := uc.cache.GetActive(ctx)
		if err != nil {
			uc.logger.Warn("Banner cache read failed: %v", err)
		} else if ok {
			return banners, nil
		}
	}

	banners, err := uc.banners.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if uc.cache != nil {
		if err := uc.cache.SetActive(ctx, banners); err != nil {
			uc.logger.Warn("Banner cache write failed: %v", err)
		}
	}
	return banners, nil
}

func (uc *bannerUseCase) Get(ctx context.Context, id string) (*entity.Banner, error) {
	return uc.banners.GetByID(ctx, id)
}

func (uc *bannerUseCase) Create(ctx context.Context, in CreateInput) (*entity.Banner, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("banner title is required")
	}

	image := strings.TrimSpace(in.ImageURL)
	if in.ImageFile != nil {
		uploaded, err := uc.upload(ctx, in.ImageFile)
		if err != nil {
			return nil, err
		}
		image = uploaded
	}
	if image == "" {
		return nil, apperr.Validation("banner image is required")
	}

	b := &entity.Banner{
		Title:    title,
		Image:    image,
		Link:     strings.TrimSpace(in.Link),
		Order:    in.Order,
		IsActive: in.IsActive == nil || *in.IsActive,
	}
	if err := uc.banners.Create(ctx, b); err != nil {
		if in.ImageFile != nil {
			uc.removeImage(ctx, image)
		}
		return nil, err
	}
	uc.invalidate(ctx)
	return b, nil
}

func (uc *bannerUseCase) Update(ctx context.Context, id string, in UpdateInput) (*entity.Banner, error) {
	current, err := uc.banners.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p := in.Patch
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, apperr.Validation("banner title cannot be empty")
		}
		p.Title = &title
	}
	if p.Image != nil && strings.TrimSpace(*p.Image) == "" {
		p.Image = nil
	}
	if in.ImageFile != nil {
		uploaded, err := uc.upload(ctx, in.ImageFile)
		if err != nil {
			return nil, err
		}
		p.Image = &uploaded
	}

	updated, err := uc.banners.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if p.Image != nil && *p.Image != current.Image {
		uc.removeImage(ctx, current.Image)
	}
	uc.invalidate(ctx)
	return updated, nil
}

func (uc *bannerUseCase) Delete(ctx context.Context, id string) error {
	b, err := uc.banners.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.banners.Delete(ctx, id); err != nil {
		return err
	}
	uc.removeImage(ctx, b.Image)
	uc.invalidate(ctx)
	return nil
}

func (uc *bannerUseCase) SetOrder(ctx context.Context, id string, order int) (*entity.Banner, error) {
	b, err := uc.banners.Update(ctx, id, entity.Patch{Order: &order})
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx)
	return b, nil
}

func (uc *bannerUseCase) Toggle(ctx context.Context, id string) (*entity.Banner, error) {
	current, err := uc.banners.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	active := !current.IsActive
	b, err := uc.banners.Update(ctx, id, entity.Patch{IsActive: &active})
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx)
	return b, nil
}

func (uc *bannerUseCase) upload(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if uc.images == nil {
		return "", apperr.Validation("image uploads are not available")
	}
	stored, err := uc.images.ProcessFiles(ctx, imagePrefix, []*multipart.FileHeader{fh})
	if err != nil {
		if errors.Is(err, imaging.ErrNotAnImage) {
			return "", apperr.Validation("%v", err)
		}
		return "", fmt.Errorf("failed to store banner image: %w", err)
	}
	return stored[0].Path, nil
}

// removeImage drops the stored object and its thumbnail. Foreign URLs are left alone.
func (uc *bannerUseCase) removeImage(ctx context.Context, url string) {
	if uc.objects == nil || url == "" {
		return
	}
	key, ok := uc.objects.KeyFromURL(url)
	if !ok {
		return
	}
	for _, k := range []string{key, imaging.ThumbnailOf(key)} {
		if err := uc.objects.Delete(ctx, k); err != nil {
			uc.logger.Warn("Failed to remove banner image %s: %v", k, err)
		}
	}
}

func (uc *bannerUseCase) invalidate(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx); err != nil {
		uc.logger.Warn("Banner cache invalidation failed: %v", err)
	}
}
