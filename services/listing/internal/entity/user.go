package entity

import "time"

type User struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Phone         string    `json:"phone"`
	PasswordHash  string    `json:"-"`
	Role          string    `json:"role"`
	SavedListings []string  `json:"savedListings"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (u *User) HasSaved(listingID string) bool {
	for _, id := range u.SavedListings {
		if id == listingID {
			return true
		}
	}
	return false
}
