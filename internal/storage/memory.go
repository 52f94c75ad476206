package storage

import (
	"sync"

	"blockfix/backend/internal/models"

	"github.com/google/uuid"
)

// Memory is an arena-style Storage keyed by ID. It satisfies the same
// invariants as the database-backed Service and is used by the engine tests
// and the demo mode. All methods return copies so callers cannot mutate
// stored state without going through an update. Insertion order is kept for
// accounts and complaints so listings match the Service's created_at order.
type Memory struct {
	mu sync.Mutex
	// txMu serializes transactions; a rollback restores the snapshot taken
	// at entry.
	txMu sync.Mutex

	accounts     map[string]models.Account
	accountOrder []string

	complaints     map[string]models.Complaint
	complaintOrder []string

	// ratings are kept per complaint in first-rating order; a re-rate
	// replaces the row in place.
	ratings      map[string][]models.Rating
	nextRatingID uint
	entries      []models.LedgerEntry
	perfCache    map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts:   make(map[string]models.Account),
		complaints: make(map[string]models.Complaint),
		ratings:    make(map[string][]models.Rating),
		perfCache:  make(map[string][]byte),
	}
}

// Transact runs fn against the store. If fn fails, every write it made is
// rolled back by restoring the pre-transaction snapshot.
func (m *Memory) Transact(fn func(Storage) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.restoreLocked(snap)
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Memory) CreateAccount(account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	m.accounts[account.ID] = *account
	m.accountOrder = append(m.accountOrder, account.ID)
	return nil
}

func (m *Memory) GetAccountByID(id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAccount(account), nil
}

func (m *Memory) GetAccountByEmail(email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.Email == email {
			return copyAccount(account), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetAccountsByRole(role models.Role) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var accounts []models.Account
	for _, id := range m.accountOrder {
		if account := m.accounts[id]; account.Role == role {
			accounts = append(accounts, *copyAccount(account))
		}
	}
	return accounts, nil
}

func (m *Memory) UpdateAccount(account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; !ok {
		return ErrNotFound
	}
	m.accounts[account.ID] = *account
	return nil
}

func (m *Memory) AdjustReputation(accountID string, delta, min, max int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	score := account.ReputationScore + delta
	if score > max {
		score = max
	}
	if score < min {
		score = min
	}
	account.ReputationScore = score
	m.accounts[accountID] = account
	return nil
}

func (m *Memory) AddRewardPoints(accountID string, points int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[accountID]
	if !ok {
		return 0, ErrNotFound
	}
	account.RewardPoints += points
	m.accounts[accountID] = account
	return account.RewardPoints, nil
}

func (m *Memory) GrantBadge(accountID, badge string, minPoints int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[accountID]
	if !ok {
		return false, ErrNotFound
	}
	if account.RewardPoints < minPoints || account.HasBadge(badge) {
		return false, nil
	}
	account.Badges = append(append(account.Badges[:0:0], account.Badges...), badge)
	m.accounts[accountID] = account
	return true, nil
}

func (m *Memory) CreateComplaint(complaint *models.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if complaint.ID == "" {
		complaint.ID = uuid.New().String()
	}
	m.complaints[complaint.ID] = *copyComplaint(*complaint)
	m.complaintOrder = append(m.complaintOrder, complaint.ID)
	return nil
}

func (m *Memory) GetComplaintByID(id string) (*models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	complaint, ok := m.complaints[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := copyComplaint(complaint)
	c.Ratings = m.ratingsFor(id)
	return c, nil
}

func (m *Memory) UpdateComplaint(complaint *models.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.complaints[complaint.ID]; !ok {
		return ErrNotFound
	}
	m.complaints[complaint.ID] = *copyComplaint(*complaint)
	return nil
}

func (m *Memory) ListComplaints() ([]models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listLocked(func(models.Complaint) bool { return true }), nil
}

func (m *Memory) ListComplaintsByStudent(studentID string) ([]models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listLocked(func(c models.Complaint) bool { return c.StudentID == studentID }), nil
}

func (m *Memory) ListComplaintsByVendor(vendorID string) ([]models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listLocked(func(c models.Complaint) bool { return c.AssignedVendorID == vendorID }), nil
}

func (m *Memory) ListComplaintsByCategory(category models.Category) ([]models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listLocked(func(c models.Complaint) bool { return c.Category == category }), nil
}

func (m *Memory) SaveRating(rating *models.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.ratings[rating.ComplaintID]
	for i := range list {
		if list[i].StudentID == rating.StudentID {
			rating.ID = list[i].ID
			list[i] = *rating
			return nil
		}
	}
	m.nextRatingID++
	rating.ID = m.nextRatingID
	m.ratings[rating.ComplaintID] = append(list, *rating)
	return nil
}

func (m *Memory) AppendLedgerEntry(entry *models.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLocked(entry)
	return nil
}

func (m *Memory) DebitAccount(accountID string, amount int64, entry *models.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	if account.Balance < amount {
		return ErrInsufficientBalance
	}
	account.Balance -= amount
	m.accounts[accountID] = account
	m.appendLocked(entry)
	return nil
}

func (m *Memory) CreditAccount(accountID string, amount int64, entry *models.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	account.Balance += amount
	m.accounts[accountID] = account
	m.appendLocked(entry)
	return nil
}

func (m *Memory) LedgerEntriesByComplaint(complaintID string) ([]models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []models.LedgerEntry
	for _, entry := range m.entries {
		if entry.ComplaintID == complaintID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (m *Memory) LedgerEntriesByAccount(accountID string) ([]models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []models.LedgerEntry
	for _, entry := range m.entries {
		if entry.Source == accountID || entry.Destination == accountID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (m *Memory) PoolTotal(pool string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, entry := range m.entries {
		if entry.Destination == pool {
			total += entry.Amount
		}
		if entry.Source == pool {
			total -= entry.Amount
		}
	}
	return total, nil
}

func (m *Memory) CachePerformance(vendorID string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.perfCache[vendorID] = append([]byte(nil), payload...)
	return nil
}

func (m *Memory) CachedPerformance(vendorID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.perfCache[vendorID]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), payload...), nil
}

func (m *Memory) InvalidatePerformance(vendorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.perfCache, vendorID)
	return nil
}

func (m *Memory) appendLocked(entry *models.LedgerEntry) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	m.entries = append(m.entries, *entry)
}

func (m *Memory) listLocked(match func(models.Complaint) bool) []models.Complaint {
	var complaints []models.Complaint
	for _, id := range m.complaintOrder {
		complaint := m.complaints[id]
		if match(complaint) {
			c := copyComplaint(complaint)
			c.Ratings = m.ratingsFor(id)
			complaints = append(complaints, *c)
		}
	}
	return complaints
}

func (m *Memory) ratingsFor(complaintID string) []models.Rating {
	list := m.ratings[complaintID]
	if len(list) == 0 {
		return nil
	}
	return append([]models.Rating(nil), list...)
}

type memorySnapshot struct {
	accounts       map[string]models.Account
	accountOrder   []string
	complaints     map[string]models.Complaint
	complaintOrder []string
	ratings        map[string][]models.Rating
	nextRatingID   uint
	entries        []models.LedgerEntry
	perfCache      map[string][]byte
}

func (m *Memory) snapshotLocked() memorySnapshot {
	snap := memorySnapshot{
		accounts:       make(map[string]models.Account, len(m.accounts)),
		accountOrder:   append([]string(nil), m.accountOrder...),
		complaints:     make(map[string]models.Complaint, len(m.complaints)),
		complaintOrder: append([]string(nil), m.complaintOrder...),
		ratings:        make(map[string][]models.Rating, len(m.ratings)),
		nextRatingID:   m.nextRatingID,
		entries:        append([]models.LedgerEntry(nil), m.entries...),
		perfCache:      make(map[string][]byte, len(m.perfCache)),
	}
	for id, account := range m.accounts {
		snap.accounts[id] = *copyAccount(account)
	}
	for id, complaint := range m.complaints {
		snap.complaints[id] = *copyComplaint(complaint)
	}
	for id, list := range m.ratings {
		snap.ratings[id] = append([]models.Rating(nil), list...)
	}
	for id, payload := range m.perfCache {
		snap.perfCache[id] = append([]byte(nil), payload...)
	}
	return snap
}

func (m *Memory) restoreLocked(snap memorySnapshot) {
	m.accounts = snap.accounts
	m.accountOrder = snap.accountOrder
	m.complaints = snap.complaints
	m.complaintOrder = snap.complaintOrder
	m.ratings = snap.ratings
	m.nextRatingID = snap.nextRatingID
	m.entries = snap.entries
	m.perfCache = snap.perfCache
}

func copyAccount(account models.Account) *models.Account {
	account.Badges = append(account.Badges[:0:0], account.Badges...)
	return &account
}

func copyComplaint(complaint models.Complaint) *models.Complaint {
	complaint.UpvotedBy = append(complaint.UpvotedBy[:0:0], complaint.UpvotedBy...)
	complaint.Ratings = append(complaint.Ratings[:0:0], complaint.Ratings...)
	return &complaint
}
