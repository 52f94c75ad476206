// Package storage defines the persistence boundary for the grievance system.
// Two implementations exist: Service (PostgreSQL via GORM plus Redis for the
// performance cache) and Memory (arena-style maps, used in tests and demos).
package storage

import (
	"errors"

	"blockfix/backend/internal/models"
)

// ErrInsufficientBalance is returned by DebitAccount when the account cannot
// cover the requested amount. The check runs inside the same transaction that
// appends the ledger entry, so a race cannot overdraw a balance.
var ErrInsufficientBalance = errors.New("insufficient account balance")

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

type Storage interface {
	// Transact runs fn against a transactional view of the store. If fn
	// returns an error, every write made through that view is rolled back.
	Transact(fn func(Storage) error) error

	CreateAccount(account *models.Account) error
	GetAccountByID(id string) (*models.Account, error)
	GetAccountByEmail(email string) (*models.Account, error)
	GetAccountsByRole(role models.Role) ([]models.Account, error)
	UpdateAccount(account *models.Account) error
	// AdjustReputation, AddRewardPoints and GrantBadge mutate only their own
	// columns so they cannot clobber a concurrent balance write.
	AdjustReputation(accountID string, delta, min, max int) error
	AddRewardPoints(accountID string, points int) (int, error)
	// GrantBadge appends the badge once the account holds at least minPoints;
	// it reports whether the badge was newly granted.
	GrantBadge(accountID, badge string, minPoints int) (bool, error)

	CreateComplaint(complaint *models.Complaint) error
	GetComplaintByID(id string) (*models.Complaint, error)
	UpdateComplaint(complaint *models.Complaint) error
	ListComplaints() ([]models.Complaint, error)
	ListComplaintsByStudent(studentID string) ([]models.Complaint, error)
	ListComplaintsByVendor(vendorID string) ([]models.Complaint, error)
	ListComplaintsByCategory(category models.Category) ([]models.Complaint, error)

	SaveRating(rating *models.Rating) error

	// AppendLedgerEntry records an informational entry that moves no account
	// balance (allocations, penalties, reward grants).
	AppendLedgerEntry(entry *models.LedgerEntry) error
	// DebitAccount and CreditAccount mutate a balance and append the entry as
	// one atomic unit.
	DebitAccount(accountID string, amount int64, entry *models.LedgerEntry) error
	CreditAccount(accountID string, amount int64, entry *models.LedgerEntry) error
	LedgerEntriesByComplaint(complaintID string) ([]models.LedgerEntry, error)
	LedgerEntriesByAccount(accountID string) ([]models.LedgerEntry, error)
	PoolTotal(pool string) (int64, error)

	// Performance snapshot cache. A nil payload with nil error means miss.
	CachePerformance(vendorID string, payload []byte) error
	CachedPerformance(vendorID string) ([]byte, error)
	InvalidatePerformance(vendorID string) error
}
