package persistent

import (
	"avto-sawda/pkg/models"
	"avto-sawda/services/auth/internal/entity"

	"github.com/lib/pq"
)

func ToUserEntity(m *models.User) *entity.User {
	if m == nil {
		return nil
	}

	saved := []string(m.SavedListings)
	if saved == nil {
		saved = []string{}
	}
	return &entity.User{
		ID:            m.ID,
		FirstName:     m.FirstName,
		LastName:      m.LastName,
		Phone:         m.Phone,
		PasswordHash:  m.Password,
		Role:          string(m.Role),
		SavedListings: saved,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func ToUserModel(e *entity.User) *models.User {
	if e == nil {
		return nil
	}

	saved := pq.StringArray(e.SavedListings)
	if saved == nil {
		saved = pq.StringArray{}
	}
	return &models.User{
		ID:            e.ID,
		FirstName:     e.FirstName,
		LastName:      e.LastName,
		Phone:         e.Phone,
		Password:      e.PasswordHash,
		Role:          models.UserRole(e.Role),
		SavedListings: saved,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}
