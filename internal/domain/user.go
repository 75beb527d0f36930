package domain

import "time"

// User represents a registered passenger account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        string
	Name         string
	Nationality  string
	// Age is nil when the submitted value was not a number.
	Age       *int64
	Mobile    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
