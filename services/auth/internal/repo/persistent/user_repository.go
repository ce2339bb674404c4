package persistent

import (
	"context"
	"errors"
	"fmt"

	"avto-sawda/pkg/apperr"
	"avto-sawda/pkg/models"
	"avto-sawda/services/auth/internal/entity"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByPhone(ctx context.Context, phone string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	List(ctx context.Context, offset, limit int) ([]*entity.User, int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	m := ToUserModel(user)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return duplicate(err, "failed to create user")
	}
	*user = *ToUserEntity(m)
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var m models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return ToUserEntity(&m), nil
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*entity.User, error) {
	var m models.User
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return ToUserEntity(&m), nil
}

// Update writes the profile columns only. Role and saved listings are owned elsewhere.
func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	res := r.db.WithContext(ctx).Model(&models.User{ID: user.ID}).Updates(map[string]interface{}{
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"phone":      user.Phone,
		"password":   user.PasswordHash,
	})
	if res.Error != nil {
		return duplicate(res.Error, "failed to update user")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// List returns a page of users, newest first, with the overall count.
func (r *userRepository) List(ctx context.Context, offset, limit int) ([]*entity.User, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var rows []models.User
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*entity.User, 0, len(rows))
	for i := range rows {
		users = append(users, ToUserEntity(&rows[i]))
	}
	return users, total, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("user not found")
	}
	return fmt.Errorf("failed to load user: %w", err)
}

func duplicate(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("phone number already registered")
	}
	return fmt.Errorf("%s: %w", msg, err)
}
