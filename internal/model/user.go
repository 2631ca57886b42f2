// Package model defines the data structures used throughout the application.
// Structs here carry no behaviour beyond small derived-state helpers; all
// business rules live in the service layer.
package model

import "time"

// User is the owning account for persons, media, and categories.
//
// The password hash is opaque to everything except the auth package — it is
// never serialized to JSON (`json:"-"`). Username and email are unique across
// the system; both are enforced by the DB schema and pre-checked at register
// time for a friendlier error.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
