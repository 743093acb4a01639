package models

import (
	"time"

	"github.com/google/uuid"
)

type Tier string

const (
	TierBronze Tier = "Bronze"
	TierSilver Tier = "Silver"
	TierGold   Tier = "Gold"
)

type User struct {
	UserID      string    `db:"user_id"`
	Email       string    `db:"email"`
	Name        string    `db:"name"`
	TotalPoints int       `db:"total_points"`
	Tier        Tier      `db:"tier"`
	GoogleToken []byte    `db:"google_token"` // JSON-encoded oauth2.Token
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// CategoryOverride pins a vendor to a category for one user.
// (UserID, Vendor) is unique.
type CategoryOverride struct {
	ID        uuid.UUID `db:"id"`
	UserID    string    `db:"user_id"`
	Vendor    string    `db:"vendor"`
	Category  string    `db:"category"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
