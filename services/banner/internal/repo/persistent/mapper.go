package persistent

import (
	"avto-sawda/pkg/models"
	"avto-sawda/services/banner/internal/entity"
)

func ToBannerEntity(m *models.Banner) *entity.Banner {
	if m == nil {
		return nil
	}
	return &entity.Banner{
		ID:        m.ID,
		Title:     m.Title,
		Image:     m.Image,
		Link:      m.Link,
		Order:     m.Order,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func ToBannerModel(e *entity.Banner) *models.Banner {
	if e == nil {
		return nil
	}
	return &models.Banner{
		ID:        e.ID,
		Title:     e.Title,
		Image:     e.Image,
		Link:      e.Link,
		Order:     e.Order,
		IsActive:  e.IsActive,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
