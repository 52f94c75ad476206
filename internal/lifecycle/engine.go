// Package lifecycle owns the complaint state machine: creation, the voting
// gate, assignment, resolution, confirmation, fund release and rejection. It
// calls the ledger for every monetary side effect and the performance engine
// for every vendor-affecting outcome. It never talks to UI or notification
// collaborators; those are invoked by the caller after an operation returns.
package lifecycle

import (
	"errors"
	"sync"
	"time"

	"blockfix/backend/internal/classifier"
	"blockfix/backend/internal/ledger"
	"blockfix/backend/internal/models"
	"blockfix/backend/internal/performance"
	"blockfix/backend/internal/storage"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds for deposit")
	ErrNotFound          = errors.New("complaint or account not found")
	ErrInvalidTransition = errors.New("operation not permitted from current state")
	ErrUnauthorized      = errors.New("actor not permitted to perform operation")
	ErrAlreadyVoted      = errors.New("already upvoted this complaint")
	ErrAlreadyReleased   = errors.New("funds already released")
	ErrValidation        = errors.New("invalid input")
)

// Engine serializes every operation touching the same complaint (or, for
// creation, the same author balance) behind a per-key mutex. Operations on
// independent complaints run fully in parallel.
type Engine struct {
	store      storage.Storage
	ledger     *ledger.Ledger
	perf       *performance.Engine
	classifier classifier.Classifier

	// now returns the current time in Unix milliseconds. Injected in tests.
	now func() int64

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine wires the engine to its collaborators. No process-wide singletons:
// every dependency arrives here.
func NewEngine(store storage.Storage, led *ledger.Ledger, perf *performance.Engine, cls classifier.Classifier) *Engine {
	return &Engine{
		store:      store,
		ledger:     led,
		perf:       perf,
		classifier: cls,
		now:        func() int64 { return time.Now().UnixMilli() },
		locks:      make(map[string]*sync.Mutex),
	}
}

// SetClock replaces the engine's time source. Intended for tests.
func (e *Engine) SetClock(now func() int64) {
	e.now = now
}

// lock acquires the mutex for the given key, creating it on first use.
// Mutexes are never removed: the key space is bounded by the complaint count
// and complaints are never deleted.
func (e *Engine) lock(key string) func() {
	e.mu.Lock()
	m, ok := e.locks[key]
	if !ok {
		m = &sync.Mutex{}
		e.locks[key] = m
	}
	e.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func (e *Engine) complaint(id string) (*models.Complaint, error) {
	c, err := e.store.GetComplaintByID(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return c, err
}

func (e *Engine) account(id string) (*models.Account, error) {
	a, err := e.store.GetAccountByID(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return a, err
}

// Complaint returns one complaint by ID.
func (e *Engine) Complaint(id string) (*models.Complaint, error) {
	return e.complaint(id)
}

// MyComplaints lists the complaints raised by a student.
func (e *Engine) MyComplaints(studentID string) ([]models.Complaint, error) {
	return e.store.ListComplaintsByStudent(studentID)
}

// AllComplaints lists every complaint, oldest first.
func (e *Engine) AllComplaints() ([]models.Complaint, error) {
	return e.store.ListComplaints()
}

// VendorComplaints lists what a vendor may see: its own assignments plus
// pending complaints that cleared the voting gate. Harassment cases stay with
// admins and counselors.
func (e *Engine) VendorComplaints(vendorID string) ([]models.Complaint, error) {
	all, err := e.store.ListComplaints()
	if err != nil {
		return nil, err
	}
	var visible []models.Complaint
	for _, c := range all {
		if c.AssignedVendorID == vendorID {
			visible = append(visible, c)
			continue
		}
		if c.Status == models.StatusPending && c.Category != models.CategoryHarassment {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

// HarassmentComplaints lists harassment-category complaints for the admin and
// counselor views.
func (e *Engine) HarassmentComplaints() ([]models.Complaint, error) {
	return e.store.ListComplaintsByCategory(models.CategoryHarassment)
}

// LedgerEntries returns the audit trail for one complaint.
func (e *Engine) LedgerEntries(complaintID string) ([]models.LedgerEntry, error) {
	return e.ledger.EntriesByComplaint(complaintID)
}

// EscrowPool reports the outstanding escrow size: deposits not yet disbursed.
func (e *Engine) EscrowPool() (int64, error) {
	return e.ledger.PoolTotal(models.PoolEscrow)
}

// Stats is the dashboard aggregate over all complaints.
type Stats struct {
	TotalComplaints      int     `json:"total_complaints"`
	AwaitingVotes        int     `json:"awaiting_votes"`
	Pending              int     `json:"pending"`
	Assigned             int     `json:"assigned"`
	Resolved             int     `json:"resolved"`
	Confirmed            int     `json:"confirmed"`
	Rejected             int     `json:"rejected"`
	Harassment           int     `json:"harassment"`
	Urgent               int     `json:"urgent"`
	TotalUpvotes         int     `json:"total_upvotes"`
	EscrowPool           int64   `json:"escrow_pool"`
	AvgResolutionHours   float64 `json:"avg_resolution_hours"`
}

// ComputeStats derives the dashboard aggregate.
func (e *Engine) ComputeStats() (*Stats, error) {
	complaints, err := e.store.ListComplaints()
	if err != nil {
		return nil, err
	}
	pool, err := e.ledger.PoolTotal(models.PoolEscrow)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalComplaints: len(complaints), EscrowPool: pool}
	var resolutionMillis int64
	completed := 0
	for _, c := range complaints {
		switch c.Status {
		case models.StatusAwaitingVotes:
			stats.AwaitingVotes++
		case models.StatusPending:
			stats.Pending++
		case models.StatusAssigned, models.StatusInProgress:
			stats.Assigned++
		case models.StatusResolved:
			stats.Resolved++
		case models.StatusConfirmed:
			stats.Confirmed++
		case models.StatusRejected:
			stats.Rejected++
		}
		if c.Category == models.CategoryHarassment {
			stats.Harassment++
		}
		if c.Priority == models.PriorityUrgent {
			stats.Urgent++
		}
		stats.TotalUpvotes += c.Upvotes
		if c.Status == models.StatusConfirmed && c.CompletedAt != 0 {
			resolutionMillis += c.CompletedAt - c.CreatedAt
			completed++
		}
	}
	if completed > 0 {
		stats.AvgResolutionHours = float64(resolutionMillis) / float64(completed) / float64(time.Hour.Milliseconds())
	}
	return stats, nil
}
