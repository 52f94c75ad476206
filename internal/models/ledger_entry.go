package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntryKind classifies a monetary movement.
type EntryKind string

const (
	EntryDeposit    EntryKind = "deposit"
	EntryAllocation EntryKind = "allocation"
	EntryRelease    EntryKind = "release"
	EntryPenalty    EntryKind = "penalty"
	EntryReward     EntryKind = "reward"
)

// Logical fund pools that sit beside real accounts in ledger entries.
const (
	PoolEscrow = "escrow"
	PoolSystem = "system"
	PoolAdmin  = "admin"
)

// LedgerEntry is an immutable, append-only record of a monetary movement.
// Balances are always derived by replaying entries, never edited in place.
// ComplaintID is empty for account-level grants such as reward points.
type LedgerEntry struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Kind        EntryKind `gorm:"index" json:"kind"`
	ComplaintID string    `gorm:"index" json:"complaint_id"`
	Amount      int64     `json:"amount"`
	Source      string    `gorm:"index" json:"source"`
	Destination string    `gorm:"index" json:"destination"`
	Description string    `json:"description"`
	CreatedAt   int64     `gorm:"autoCreateTime:milli" json:"created_at"`
}

// BeforeCreate is a GORM hook that generates a UUID if the ID is not yet set.
func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return
}
