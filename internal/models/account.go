package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq" // Required for pq.StringArray
	"gorm.io/gorm"
)

// Role determines which operations an account may perform.
type Role string

const (
	RoleStudent   Role = "student"
	RoleVendor    Role = "vendor"
	RoleCounselor Role = "counselor"
	RoleAdmin     Role = "admin"
)

// Account represents an identity in the system. Balances are moved only through
// the ledger; reputation fields are owned by the performance engine. Accounts
// are never deleted, only disabled, because complaints reference them by ID.
type Account struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"uniqueIndex" json:"email"`
	Name         string `json:"name"`
	Role         Role   `gorm:"index" json:"role"`
	PasswordHash string `json:"-"`

	// Balance is held in minor units.
	Balance int64 `json:"balance"`

	// Vendor-only fields.
	ReputationScore int            `json:"reputation_score"`
	RewardPoints    int            `json:"reward_points"`
	Badges          pq.StringArray `gorm:"type:text[]" json:"badges"`

	Disabled  bool  `json:"disabled"`
	CreatedAt int64 `gorm:"autoCreateTime:milli" json:"created_at"`
}

// BeforeCreate is a GORM hook that generates a UUID if the ID is not yet set.
func (a *Account) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return
}

// HasBadge reports whether the account already holds the named badge.
func (a *Account) HasBadge(name string) bool {
	for _, b := range a.Badges {
		if b == name {
			return true
		}
	}
	return false
}
