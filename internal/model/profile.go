package model

import "time"

// Profile is the public-facing identity bound one-to-one to a User.
type Profile struct {
	ID        string    `json:"id"        db:"id"`
	UserID    string    `json:"userId"    db:"user_id"`
	Username  string    `json:"username"  db:"username"` // normalised, globally unique
	Bio       string    `json:"bio"       db:"bio"`
	IsPublic  bool      `json:"isPublic"  db:"is_public"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Owner is filled by lookups that join the users table.
	Owner ProfileOwner `json:"-"`
}

// ProfileOwner carries the user columns that profile reads select alongside the profile.
type ProfileOwner struct {
	Name      string
	Email     string
	AvatarURL string
}
