package model

import "time"

// Link is one entry in a user's link collection.
type Link struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"` // derived from Title, not unique
	URL         string    `json:"url"`
	Description *string   `json:"description"` // nil when absent
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
