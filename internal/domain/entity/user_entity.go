package entity

import "time"

// User is read-only here: rows are created by cmd/seed and only looked
// up during login. Password holds a bcrypt hash.
type User struct {
	ID        string
	Email     string
	Password  string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
