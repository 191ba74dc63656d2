package domain

import "time"

// User is a registered account. PasswordHash never leaves the service.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSummary is the public projection embedded in review payloads.
type UserSummary struct {
	ID    string
	Name  string
	Email string
}

// Summary returns the public projection of the user.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
