package model

import "time"

// Person is a borrower managed by an account. Persons are distinct from
// users: a user catalogs media and lends them out to persons, who never log
// in themselves.
type Person struct {
	ID        string    `json:"id"        db:"id"`
	UserID    string    `json:"userId"    db:"user_id"`
	FirstName string    `json:"firstName" db:"first_name"`
	LastName  string    `json:"lastName"  db:"last_name"`
	Address   string    `json:"address"   db:"address"`
	Email     string    `json:"email"     db:"email"`
	Phone     string    `json:"phone"     db:"phone"` // optional, may be empty
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
