// Package ledger owns the creation of ledger entries. No other component may
// fabricate a monetary movement; the lifecycle engine calls in here for every
// monetary side effect. Entries are append-only and balances are derived by
// replay, never edited in place.
package ledger

import (
	"errors"
	"fmt"

	"blockfix/backend/internal/models"
	"blockfix/backend/internal/storage"
)

// ErrValidation is returned for malformed entries: negative amounts, missing
// endpoints, or a pool endpoint that does not match the entry kind.
var ErrValidation = errors.New("invalid ledger entry")

// Ledger validates entries and delegates the atomic balance+append step to
// storage.
type Ledger struct {
	store storage.Storage
	now   func() int64
}

// New creates a ledger over the given store.
func New(store storage.Storage, now func() int64) *Ledger {
	return &Ledger{store: store, now: now}
}

// WithStore returns a ledger writing through the given store, keeping the
// clock. Used to bind entries to a storage transaction.
func (l *Ledger) WithStore(store storage.Storage) *Ledger {
	return &Ledger{store: store, now: l.now}
}

// Deposit debits the author and moves the amount into escrow, atomically.
func (l *Ledger) Deposit(authorID, complaintID string, amount int64, description string) error {
	entry := &models.LedgerEntry{
		Kind:        models.EntryDeposit,
		ComplaintID: complaintID,
		Amount:      amount,
		Source:      authorID,
		Destination: models.PoolEscrow,
		Description: description,
		CreatedAt:   l.now(),
	}
	if err := l.validate(entry); err != nil {
		return err
	}
	return l.store.DebitAccount(authorID, amount, entry)
}

// Release credits the destination account from escrow, atomically. Used both
// for vendor payouts and for deposit refunds on rejection.
func (l *Ledger) Release(complaintID, accountID string, amount int64, description string) error {
	entry := &models.LedgerEntry{
		Kind:        models.EntryRelease,
		ComplaintID: complaintID,
		Amount:      amount,
		Source:      models.PoolEscrow,
		Destination: accountID,
		Description: description,
		CreatedAt:   l.now(),
	}
	if err := l.validate(entry); err != nil {
		return err
	}
	return l.store.CreditAccount(accountID, amount, entry)
}

// Allocation records the amount an administrator designates for a vendor.
// Informational: the vendor's balance only moves on release.
func (l *Ledger) Allocation(complaintID, vendorID string, amount int64, description string) error {
	return l.record(&models.LedgerEntry{
		Kind:        models.EntryAllocation,
		ComplaintID: complaintID,
		Amount:      amount,
		Source:      models.PoolAdmin,
		Destination: vendorID,
		Description: description,
		CreatedAt:   l.now(),
	})
}

// Penalty records the withheld share of a late payout. The vendor never held
// the amount, so no balance moves.
func (l *Ledger) Penalty(complaintID, vendorID string, amount int64, description string) error {
	return l.record(&models.LedgerEntry{
		Kind:        models.EntryPenalty,
		ComplaintID: complaintID,
		Amount:      amount,
		Source:      vendorID,
		Destination: models.PoolSystem,
		Description: description,
		CreatedAt:   l.now(),
	})
}

// Reward records a reward-point grant. ComplaintID is empty: the grant is an
// account-level event.
func (l *Ledger) Reward(vendorID string, points int64, description string) error {
	return l.record(&models.LedgerEntry{
		Kind:        models.EntryReward,
		Amount:      points,
		Source:      models.PoolSystem,
		Destination: vendorID,
		Description: description,
		CreatedAt:   l.now(),
	})
}

// BalanceOf reports the authoritative balance, maintained transactionally
// alongside each balance-moving append.
func (l *Ledger) BalanceOf(accountID string) (int64, error) {
	account, err := l.store.GetAccountByID(accountID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// PoolTotal reports a pool's net holdings by replaying the ledger. For escrow
// this is the sum of undisbursed deposits.
func (l *Ledger) PoolTotal(pool string) (int64, error) {
	return l.store.PoolTotal(pool)
}

// EntriesByComplaint returns every entry referencing the complaint, oldest
// first.
func (l *Ledger) EntriesByComplaint(complaintID string) ([]models.LedgerEntry, error) {
	return l.store.LedgerEntriesByComplaint(complaintID)
}

// EntriesByAccount returns every entry touching the account, oldest first.
func (l *Ledger) EntriesByAccount(accountID string) ([]models.LedgerEntry, error) {
	return l.store.LedgerEntriesByAccount(accountID)
}

func (l *Ledger) record(entry *models.LedgerEntry) error {
	if err := l.validate(entry); err != nil {
		return err
	}
	return l.store.AppendLedgerEntry(entry)
}

// validate enforces the per-kind endpoint rules. Each kind pins its pool side,
// which is what catches unknown pool names.
func (l *Ledger) validate(entry *models.LedgerEntry) error {
	if entry.Amount < 0 {
		return fmt.Errorf("%w: negative amount %d", ErrValidation, entry.Amount)
	}
	if entry.Source == "" || entry.Destination == "" {
		return fmt.Errorf("%w: missing source or destination", ErrValidation)
	}
	switch entry.Kind {
	case models.EntryDeposit:
		if entry.Destination != models.PoolEscrow {
			return fmt.Errorf("%w: deposit must flow into %q, got %q", ErrValidation, models.PoolEscrow, entry.Destination)
		}
	case models.EntryRelease:
		if entry.Source != models.PoolEscrow {
			return fmt.Errorf("%w: release must flow out of %q, got %q", ErrValidation, models.PoolEscrow, entry.Source)
		}
	case models.EntryAllocation:
		if entry.Source != models.PoolAdmin {
			return fmt.Errorf("%w: allocation must flow from %q, got %q", ErrValidation, models.PoolAdmin, entry.Source)
		}
	case models.EntryPenalty:
		if entry.Destination != models.PoolSystem {
			return fmt.Errorf("%w: penalty must flow into %q, got %q", ErrValidation, models.PoolSystem, entry.Destination)
		}
	case models.EntryReward:
		if entry.Source != models.PoolSystem {
			return fmt.Errorf("%w: reward must flow from %q, got %q", ErrValidation, models.PoolSystem, entry.Source)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrValidation, entry.Kind)
	}
	return nil
}
