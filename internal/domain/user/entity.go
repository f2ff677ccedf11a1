// internal/domain/user/entity.go
package user

import "time"

// User is the authoritative account record. Balance lives here; every debit
// and credit happens in the database, never in cached state first.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Balance      int64     `json:"balance" db:"balance"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
