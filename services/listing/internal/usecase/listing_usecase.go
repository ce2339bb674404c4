package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"time"

	"avto-sawda/pkg/apperr"
	"avto-sawda/pkg/imaging"
	"avto-sawda/pkg/logger"
	"avto-sawda/pkg/metrics"
	"avto-sawda/services/listing/internal/entity"
	"avto-sawda/services/listing/internal/filter"
	"avto-sawda/services/listing/internal/ranking"
	"avto-sawda/services/listing/internal/repo/persistent"
	"avto-sawda/services/listing/internal/similarity"
	"avto-sawda/services/listing/internal/syndication"

	"github.com/go-playground/validator/v10"
)

const (
	SimilarLimit       = 6
	SimilarPriceSpread = 0.3
	MaxPremiumDays     = 3650
)

type ImageStore interface {
	ProcessFiles(ctx context.Context, prefix string, files []*multipart.FileHeader) ([]imaging.Stored, error)
}

type ObjectRemover interface {
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

type CreateInput struct {
	Attributes entity.Attributes
	Files      []*multipart.FileHeader
}

// UpdateInput carries a partial update. Patch is a JSON object holding only the
// supplied attributes. A nil ExistingImages keeps every current image.
type UpdateInput struct {
	Patch          json.RawMessage
	ExistingImages []string
	Files          []*multipart.FileHeader
}

type SearchResult struct {
	Listings []*entity.Listing
	Total    int64
	Page     filter.Page
}

type ListingUseCase interface {
	Search(ctx context.Context, params map[string]string) (*SearchResult, error)
	Get(ctx context.Context, id string) (*entity.Listing, *ranking.PriceRank, error)
	ListMine(ctx context.Context, userID string) ([]*entity.Listing, error)
	Similar(ctx context.Context, id string) ([]*entity.Listing, error)
	Create(ctx context.Context, actor entity.Actor, in CreateInput) (*entity.Listing, error)
	Update(ctx context.Context, actor entity.Actor, id string, in UpdateInput) (*entity.Listing, error)
	Delete(ctx context.Context, actor entity.Actor, id string) error
	DeleteAll(ctx context.Context, actor entity.Actor) (int, error)
	Save(ctx context.Context, userID, listingID string) error
	Unsave(ctx context.Context, userID, listingID string) error
	Promote(ctx context.Context, actor entity.Actor, id string, days int) (*entity.Listing, error)
}

type listingUseCase struct {
	listings persistent.ListingRepository
	users    persistent.UserRepository
	images   ImageStore
	objects  ObjectRemover
	tasks    syndication.Dispatcher
	validate *validator.Validate
	metrics  *metrics.Metrics
	logger   *logger.Logger
	now      func() time.Time
}

func NewListingUseCase(
	listings persistent.ListingRepository,
	users persistent.UserRepository,
	images ImageStore,
	objects ObjectRemover,
	tasks syndication.Dispatcher,
	m *metrics.Metrics,
	logger *logger.Logger,
) ListingUseCase {
	return &listingUseCase{
		listings: listings,
		users:    users,
		images:   images,
		objects:  objects,
		tasks:    tasks,
		validate: NewValidator(),
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

func (uc *listingUseCase) Search(ctx context.Context, params map[string]string) (*SearchResult, error) {
	criteria := filter.Compile(params)
	page := filter.ParsePage(params)

	listings, total, err := uc.listings.Search(ctx, criteria, page)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Listings: listings, Total: total, Page: page}, nil
}

// Get clears a lapsed premium flag, counts the view and ranks the price. Only the
// load itself can fail the call.
func (uc *listingUseCase) Get(ctx context.Context, id string) (*entity.Listing, *ranking.PriceRank, error) {
	l, err := uc.listings.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if l.PremiumExpired(uc.now()) {
		if err := uc.listings.ClearPremium(ctx, l.ID); err != nil {
			uc.logger.Warn("Failed to clear expired premium of listing %s: %v", l.ID, err)
		} else {
			l.IsPremium = false
			l.PremiumExpiresAt = nil
		}
	}

	if err := uc.listings.IncrementViews(ctx, l.ID); err != nil {
		uc.logger.Warn("Failed to count view of listing %s: %v", l.ID, err)
	} else {
		l.Views++
	}

	var rank *ranking.PriceRank
	if l.PriceValue() > 0 {
		candidates, err := uc.listings.ListPriced(ctx)
		if err != nil {
			uc.logger.Warn("Failed to load peers of listing %s: %v", l.ID, err)
		} else {
			rank = ranking.Rank(l, candidates)
		}
	}

	return l, rank, nil
}

func (uc *listingUseCase) ListMine(ctx context.Context, userID string) ([]*entity.Listing, error) {
	return uc.listings.ListByOwner(ctx, userID)
}

// Similar returns up to SimilarLimit for-sale listings of a similar brand priced
// within SimilarPriceSpread of the target. Unpriced listings always qualify.
func (uc *listingUseCase) Similar(ctx context.Context, id string) ([]*entity.Listing, error) {
	target, err := uc.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	candidates, err := uc.listings.ListForSale(ctx, target.ID)
	if err != nil {
		return nil, err
	}

	lo, hi := int64(0), int64(math.MaxInt64)
	if p := target.PriceValue(); p > 0 {
		spread := int64(math.Round(float64(p) * SimilarPriceSpread))
		lo, hi = p-spread, p+spread
	}

	out := make([]*entity.Listing, 0, SimilarLimit)
	for _, c := range candidates {
		if c.ID == target.ID || similarity.Score(target.Brand, c.Brand) < similarity.Threshold {
			continue
		}
		if c.Price != nil && (*c.Price < lo || *c.Price > hi) {
			continue
		}
		out = append(out, c)
		if len(out) == SimilarLimit {
			break
		}
	}
	filter.SortListings(out)
	return out, nil
}

func (uc *listingUseCase) Create(ctx context.Context, actor entity.Actor, in CreateInput) (*entity.Listing, error) {
	if len(in.Files) == 0 {
		return nil, apperr.Validation("at least one image is required")
	}
	if in.Attributes.Status == "" {
		in.Attributes.Status = entity.StatusSale
	}
	if err := uc.validate.Struct(in.Attributes); err != nil {
		return nil, validationError(err)
	}

	stored, err := uc.storeImages(ctx, actor.UserID, in.Files)
	if err != nil {
		return nil, err
	}

	l := &entity.Listing{
		OwnerID:    actor.UserID,
		Attributes: in.Attributes,
	}
	for _, s := range stored {
		l.Images = append(l.Images, s.Path)
		l.Thumbnails = append(l.Thumbnails, s.ThumbnailPath)
	}

	if err := uc.listings.Create(ctx, l); err != nil {
		uc.removeObjects(ctx, append(append([]string(nil), l.Images...), l.Thumbnails...)...)
		return nil, err
	}
	uc.metrics.Listing("create")
	uc.logger.Info("Listing %s created by %s", l.ID, actor.UserID)

	if l.Status == entity.StatusSale {
		uc.enqueue(ctx, syndication.Task{Kind: syndication.TaskPost, ListingID: l.ID})
	}
	return l, nil
}

func (uc *listingUseCase) Update(ctx context.Context, actor entity.Actor, id string, in UpdateInput) (*entity.Listing, error) {
	l, err := uc.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(l) {
		return nil, apperr.Authorization("you are not allowed to modify this car")
	}

	attrs := l.Attributes
	if len(in.Patch) > 0 {
		if err := json.Unmarshal(in.Patch, &attrs); err != nil {
			return nil, apperr.Validation("invalid car fields: %v", err)
		}
	}
	if attrs.Status == "" {
		attrs.Status = l.Status
	}
	if err := uc.validate.Struct(attrs); err != nil {
		return nil, validationError(err)
	}

	images, thumbs, dropped := retainImages(l.Images, l.Thumbnails, in.ExistingImages)
	var uploaded []string
	if len(in.Files) > 0 {
		stored, err := uc.storeImages(ctx, l.OwnerID, in.Files)
		if err != nil {
			return nil, err
		}
		for _, s := range stored {
			images = append(images, s.Path)
			thumbs = append(thumbs, s.ThumbnailPath)
			uploaded = append(uploaded, s.Path, s.ThumbnailPath)
		}
	}
	if len(images) == 0 {
		return nil, apperr.Validation("at least one image is required")
	}

	l.Attributes = attrs
	l.Images, l.Thumbnails = images, thumbs
	if err := uc.listings.Update(ctx, l); err != nil {
		uc.removeObjects(ctx, uploaded...)
		return nil, err
	}
	uc.metrics.Listing("update")
	uc.removeObjects(ctx, dropped...)

	if l.Status == entity.StatusSale && len(l.TelegramPosts) > 0 {
		uc.enqueue(ctx, syndication.Task{Kind: syndication.TaskUpdate, ListingID: l.ID})
	}
	return l, nil
}

// retainImages keeps the listing images named in keep, in keep's order, with their
// thumbnails. Names that are not current images are ignored. It also returns the
// object URLs no longer referenced.
func retainImages(images, thumbs, keep []string) ([]string, []string, []string) {
	thumbOf := make(map[string]string, len(images))
	for i, img := range images {
		thumb := img
		if i < len(thumbs) && thumbs[i] != "" {
			thumb = thumbs[i]
		}
		thumbOf[img] = thumb
	}

	if keep == nil {
		outImages := append([]string(nil), images...)
		outThumbs := make([]string, len(images))
		for i, img := range images {
			outThumbs[i] = thumbOf[img]
		}
		return outImages, outThumbs, nil
	}

	var outImages, outThumbs []string
	kept := make(map[string]bool, len(keep))
	for _, img := range keep {
		thumb, ok := thumbOf[img]
		if !ok || kept[img] {
			continue
		}
		kept[img] = true
		outImages = append(outImages, img)
		outThumbs = append(outThumbs, thumb)
	}

	var dropped []string
	for i, img := range images {
		if kept[img] {
			continue
		}
		dropped = append(dropped, img)
		if i < len(thumbs) && thumbs[i] != "" && thumbs[i] != img {
			dropped = append(dropped, thumbs[i])
		}
	}
	return outImages, outThumbs, dropped
}

func (uc *listingUseCase) Delete(ctx context.Context, actor entity.Actor, id string) error {
	l, err := uc.listings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanModify(l) {
		return apperr.Authorization("you are not allowed to delete this car")
	}

	if err := uc.listings.Delete(ctx, l.ID); err != nil {
		return err
	}
	uc.metrics.Listing("delete")
	uc.logger.Info("Listing %s deleted by %s", l.ID, actor.UserID)

	return purge(ctx, uc.users, uc.tasks, uc.objects, uc.logger, []*entity.Listing{l})
}

func (uc *listingUseCase) DeleteAll(ctx context.Context, actor entity.Actor) (int, error) {
	if !actor.IsAdmin() {
		return 0, apperr.Authorization("admin access required")
	}
	deleted, err := uc.listings.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	uc.logger.Warn("All %d listings deleted by %s", len(deleted), actor.UserID)
	if err := purge(ctx, uc.users, uc.tasks, uc.objects, uc.logger, deleted); err != nil {
		return len(deleted), err
	}
	return len(deleted), nil
}

func (uc *listingUseCase) Save(ctx context.Context, userID, listingID string) error {
	if _, err := uc.listings.GetByID(ctx, listingID); err != nil {
		return err
	}
	return uc.users.AddSaved(ctx, userID, listingID)
}

func (uc *listingUseCase) Unsave(ctx context.Context, userID, listingID string) error {
	return uc.users.RemoveSaved(ctx, userID, listingID)
}

func (uc *listingUseCase) Promote(ctx context.Context, actor entity.Actor, id string, days int) (*entity.Listing, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Authorization("admin access required")
	}
	if days <= 0 {
		return nil, apperr.Validation("days must be greater than 0")
	}
	if days > MaxPremiumDays {
		return nil, apperr.Validation("days must be at most %d", MaxPremiumDays)
	}

	until := uc.now().AddDate(0, 0, days)
	if err := uc.listings.SetPremium(ctx, id, until); err != nil {
		return nil, err
	}
	uc.metrics.Listing("promote")
	return uc.listings.GetByID(ctx, id)
}

func (uc *listingUseCase) storeImages(ctx context.Context, ownerID string, files []*multipart.FileHeader) ([]imaging.Stored, error) {
	stored, err := uc.images.ProcessFiles(ctx, "cars/"+ownerID, files)
	if err != nil {
		if errors.Is(err, imaging.ErrNotAnImage) {
			return nil, apperr.Validation("%v", err)
		}
		return nil, fmt.Errorf("failed to store images: %w", err)
	}
	return stored, nil
}

func (uc *listingUseCase) enqueue(ctx context.Context, task syndication.Task) {
	if uc.tasks == nil {
		return
	}
	if err := uc.tasks.Enqueue(ctx, task); err != nil {
		uc.logger.Error("Failed to enqueue %s of listing %s: %v", task.Kind, task.ListingID, err)
	}
}

func (uc *listingUseCase) removeObjects(ctx context.Context, urls ...string) {
	removeObjects(ctx, uc.objects, uc.logger, urls...)
}
