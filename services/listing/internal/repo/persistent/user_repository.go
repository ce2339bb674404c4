package persistent

import (
	"context"
	"fmt"

	"avto-sawda/pkg/apperr"
	"avto-sawda/pkg/models"
	"avto-sawda/services/listing/internal/entity"

	"gorm.io/gorm"
)

// UserRepository covers the parts of the users table the listing service owns:
// saved sets and account removal.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	AddSaved(ctx context.Context, userID, listingID string) error
	RemoveSaved(ctx context.Context, userID, listingID string) error
	PullSaved(ctx context.Context, listingIDs ...string) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var m models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return ToUserEntity(&m), nil
}

// AddSaved appends listingID atomically. A duplicate is a conflict.
func (r *userRepository) AddSaved(ctx context.Context, userID, listingID string) error {
	res := r.db.WithContext(ctx).Exec(
		"UPDATE users SET saved_listings = array_append(saved_listings, ?) WHERE id = ? AND NOT (? = ANY(saved_listings))",
		listingID, userID, listingID,
	)
	if res.Error != nil {
		return fmt.Errorf("failed to save listing: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, userID); err != nil {
		return err
	}
	return apperr.Conflict("car already saved")
}

// RemoveSaved is a no-op when the listing is not in the set.
func (r *userRepository) RemoveSaved(ctx context.Context, userID, listingID string) error {
	res := r.db.WithContext(ctx).Exec(
		"UPDATE users SET saved_listings = array_remove(saved_listings, ?) WHERE id = ?",
		listingID, userID,
	)
	if res.Error != nil {
		return fmt.Errorf("failed to unsave listing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// PullSaved removes every given listing id from every user's saved set.
func (r *userRepository) PullSaved(ctx context.Context, listingIDs ...string) error {
	if len(listingIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range listingIDs {
			err := tx.Exec(
				"UPDATE users SET saved_listings = array_remove(saved_listings, ?) WHERE ? = ANY(saved_listings)",
				id, id,
			).Error
			if err != nil {
				return fmt.Errorf("failed to purge saved listing %s: %w", id, err)
			}
		}
		return nil
	})
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}
