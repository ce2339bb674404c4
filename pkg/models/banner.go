package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Banner struct {
	ID        string `gorm:"type:uuid;primary_key"`
	Title     string `gorm:"not null"`
	Image     string `gorm:"not null"`
	Link      string
	Order     int  `gorm:"column:sort_order;default:0;index"`
	IsActive  bool `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b *Banner) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}
