package entity

import "time"

type Banner struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Image     string    `json:"image"`
	Link      string    `json:"link"`
	Order     int       `json:"order"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Patch holds the fields an update sets. Nil fields are left as is.
type Patch struct {
	Title    *string
	Image    *string
	Link     *string
	Order    *int
	IsActive *bool
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Image == nil && p.Link == nil && p.Order == nil && p.IsActive == nil
}
