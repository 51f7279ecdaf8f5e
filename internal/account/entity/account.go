package entity

import "time"

// Account is a row of the `accounts` table: the credentials a token is minted from.
// Email is the natural key and is compared case-sensitively.
type Account struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
