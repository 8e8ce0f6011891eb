// Package model holds the domain records shared by the store, services and handlers.
package model

import "time"

// User is created on the first successful Google login and never mutated by later logins.
type User struct {
	ID         string    `json:"id"         db:"id"`
	Email      string    `json:"email"      db:"email"`       // unique
	Name       string    `json:"name"       db:"name"`        // display name from Google
	AvatarURL  string    `json:"avatarUrl"  db:"avatar_url"`  // Google picture URL (may be empty)
	Provider   string    `json:"provider"   db:"provider"`    // always "google" today
	ProviderID string    `json:"providerId" db:"provider_id"` // Google "sub"
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt"  db:"updated_at"`
}

// ProviderGoogle is the only identity provider.
const ProviderGoogle = "google"
