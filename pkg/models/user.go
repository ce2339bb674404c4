package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID            string         `gorm:"type:uuid;primary_key"`
	FirstName     string         `gorm:"not null"`
	LastName      string         `gorm:"not null"`
	Phone         string         `gorm:"uniqueIndex;not null"`
	Password      string         `gorm:"not null"`
	Role          UserRole       `gorm:"type:varchar(10);default:'user'"`
	SavedListings pq.StringArray `gorm:"type:text[];default:'{}'"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
