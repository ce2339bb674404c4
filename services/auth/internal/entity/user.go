package entity

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Phone         string    `json:"phone"`
	PasswordHash  string    `json:"-"`
	Role          string    `json:"role"`
	SavedListings []string  `json:"savedListings"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Profile is the partial update a user may apply to themselves. Nil fields are left as is.
type Profile struct {
	FirstName       *string
	LastName        *string
	Phone           *string
	CurrentPassword string
	NewPassword     string
}
