package lifecycle_test

import (
	"testing"
	"time"

	"blockfix/backend/internal/classifier"
	"blockfix/backend/internal/config"
	"blockfix/backend/internal/ledger"
	"blockfix/backend/internal/lifecycle"
	"blockfix/backend/internal/models"
	"blockfix/backend/internal/performance"
	"blockfix/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// env wires an engine over the in-memory store with a controllable clock.
type env struct {
	store storage.Storage
	led   *ledger.Ledger
	perf  *performance.Engine
	eng   *lifecycle.Engine
	now   int64
}

func newEnv(t *testing.T) *env {
	return newEnvWith(t, storage.NewMemory())
}

func newEnvWith(t *testing.T, store storage.Storage) *env {
	t.Helper()
	e := &env{store: store, now: 1700000000000}
	clock := func() int64 { return e.now }
	e.led = ledger.New(e.store, clock)
	e.perf = performance.NewEngine(e.store)
	e.eng = lifecycle.NewEngine(e.store, e.led, e.perf, classifier.NewKeyword())
	e.eng.SetClock(clock)
	return e
}

func (e *env) advance(d time.Duration) {
	e.now += d.Milliseconds()
}

func (e *env) addAccount(t *testing.T, id string, role models.Role, balance int64) {
	t.Helper()
	require.NoError(t, e.store.CreateAccount(&models.Account{
		ID:              id,
		Email:           id + "@test.com",
		Name:            id,
		Role:            role,
		Balance:         balance,
		ReputationScore: config.InitialReputation,
	}))
}

func (e *env) account(t *testing.T, id string) *models.Account {
	t.Helper()
	account, err := e.store.GetAccountByID(id)
	require.NoError(t, err)
	return account
}

func (e *env) complaint(t *testing.T, id string) *models.Complaint {
	t.Helper()
	complaint, err := e.eng.Complaint(id)
	require.NoError(t, err)
	return complaint
}

// raise files a plain infrastructure complaint for the given student.
func (e *env) raise(t *testing.T, studentID string) string {
	t.Helper()
	id, err := e.eng.RaiseComplaint(studentID, "Leaking tap", "The tap in the corridor has been leaking water", "Block A", "", models.CategoryInfrastructure, "en")
	require.NoError(t, err)
	return id
}

// voteToPending pushes a complaint through the voting gate.
func (e *env) voteToPending(t *testing.T, complaintID string) {
	t.Helper()
	for i := 0; i < config.UpvoteThreshold; i++ {
		voterID := "voter-" + string(rune('a'+i))
		e.addAccount(t, voterID, models.RoleStudent, 0)
		require.NoError(t, e.eng.Upvote(complaintID, voterID))
	}
}

func TestRaiseComplaint_TakesDepositIntoEscrow(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, config.StudentStartingBalance)

	id := e.raise(t, "student-1")

	complaint := e.complaint(t, id)
	assert.Equal(t, models.StatusAwaitingVotes, complaint.Status)
	assert.Equal(t, int64(config.DefaultDeposit), complaint.DepositAmount)
	assert.Equal(t, models.CategoryInfrastructure, complaint.Category)
	assert.False(t, complaint.NeedsCounseling)

	assert.Equal(t, int64(config.StudentStartingBalance-config.DefaultDeposit), e.account(t, "student-1").Balance)

	escrow, err := e.eng.EscrowPool()
	require.NoError(t, err)
	assert.Equal(t, int64(config.DefaultDeposit), escrow)

	entries, err := e.eng.LedgerEntries(id)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.EntryDeposit, entries[0].Kind)
	assert.Equal(t, "student-1", entries[0].Source)
	assert.Equal(t, models.PoolEscrow, entries[0].Destination)
}

func TestRaiseComplaint_InsufficientFunds(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, config.DefaultDeposit-1)

	_, err := e.eng.RaiseComplaint("student-1", "Leaking tap", "water leak", "", "", models.CategoryInfrastructure, "en")
	assert.ErrorIs(t, err, lifecycle.ErrInsufficientFunds)

	// Nothing was written.
	assert.Equal(t, int64(config.DefaultDeposit-1), e.account(t, "student-1").Balance)
	complaints, err := e.eng.AllComplaints()
	require.NoError(t, err)
	assert.Empty(t, complaints)
}

func TestRaiseComplaint_Validation(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)

	_, err := e.eng.RaiseComplaint("student-1", "", "description", "", "", models.CategoryOther, "en")
	assert.ErrorIs(t, err, lifecycle.ErrValidation)
	_, err = e.eng.RaiseComplaint("student-1", "title", "", "", "", models.CategoryOther, "en")
	assert.ErrorIs(t, err, lifecycle.ErrValidation)
}

func TestRaiseComplaint_OnlyActiveStudents(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "vendor-1", models.RoleVendor, 100)
	_, err := e.eng.RaiseComplaint("vendor-1", "title", "description", "", "", models.CategoryOther, "en")
	assert.ErrorIs(t, err, lifecycle.ErrUnauthorized)

	e.addAccount(t, "student-1", models.RoleStudent, 100)
	account := e.account(t, "student-1")
	account.Disabled = true
	require.NoError(t, e.store.UpdateAccount(account))
	_, err = e.eng.RaiseComplaint("student-1", "title", "description", "", "", models.CategoryOther, "en")
	assert.ErrorIs(t, err, lifecycle.ErrUnauthorized)

	_, err = e.eng.RaiseComplaint("nobody", "title", "description", "", "", models.CategoryOther, "en")
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)
}

func TestRaiseComplaint_HarassmentBypassesVotingGate(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)

	id, err := e.eng.RaiseComplaint("student-1", "Ragging incident", "Seniors threatened me in the hostel", "", "", models.CategoryHarassment, "en")
	require.NoError(t, err)

	complaint := e.complaint(t, id)
	assert.Equal(t, models.StatusPending, complaint.Status)
	assert.Equal(t, models.PriorityUrgent, complaint.Priority)
	assert.True(t, complaint.NeedsCounseling)
}

func TestRaiseComplaint_AutoClassifiesWhenCategoryMissing(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)

	id, err := e.eng.RaiseComplaint("student-1", "Bad food", "The canteen meal was stale", "", "", "", "en")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryMess, e.complaint(t, id).Category)
}

func TestUpvote_IdempotentPerVoter(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)
	e.addAccount(t, "voter-1", models.RoleStudent, 0)
	id := e.raise(t, "student-1")

	require.NoError(t, e.eng.Upvote(id, "voter-1"))
	err := e.eng.Upvote(id, "voter-1")
	assert.ErrorIs(t, err, lifecycle.ErrAlreadyVoted)
	assert.Equal(t, 1, e.complaint(t, id).Upvotes)
}

func TestUpvote_ThresholdMovesToPending(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)
	id := e.raise(t, "student-1")

	for i := 0; i < config.UpvoteThreshold-1; i++ {
		voterID := "voter-" + string(rune('a'+i))
		e.addAccount(t, voterID, models.RoleStudent, 0)
		require.NoError(t, e.eng.Upvote(id, voterID))
	}
	assert.Equal(t, models.StatusAwaitingVotes, e.complaint(t, id).Status)

	e.addAccount(t, "voter-last", models.RoleStudent, 0)
	require.NoError(t, e.eng.Upvote(id, "voter-last"))
	complaint := e.complaint(t, id)
	assert.Equal(t, models.StatusPending, complaint.Status)
	assert.Equal(t, config.UpvoteThreshold, complaint.Upvotes)
}

func TestUpvote_PastGateKeepsCounting(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)
	id := e.raise(t, "student-1")
	e.voteToPending(t, id)

	e.addAccount(t, "late-voter", models.RoleStudent, 0)
	require.NoError(t, e.eng.Upvote(id, "late-voter"))
	complaint := e.complaint(t, id)
	assert.Equal(t, models.StatusPending, complaint.Status)
	assert.Equal(t, config.UpvoteThreshold+1, complaint.Upvotes)
}

func TestAssignVendor_StampsDeadlineAndAllocation(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)
	e.addAccount(t, "vendor-1", models.RoleVendor, 50)
	id := e.raise(t, "student-1")
	e.voteToPending(t, id)

	require.NoError(t, e.eng.AssignVendor(id, "vendor-1", 50))

	complaint := e.complaint(t, id)
	assert.Equal(t, models.StatusAssigned, complaint.Status)
	assert.Equal(t, "vendor-1", complaint.AssignedVendorID)
	assert.Equal(t, int64(50), complaint.AllocatedAmount)
	assert.Equal(t, e.now+config.ResolutionWindow.Milliseconds(), complaint.ResolutionDeadline)

	// Allocation is informational: no balance moved yet.
	assert.Equal(t, int64(50), e.account(t, "vendor-1").Balance)
	entries, err := e.eng.LedgerEntries(id)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.EntryAllocation, entries[1].Kind)
}

func TestAssignVendor_Guards(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)
	e.addAccount(t, "vendor-1", models.RoleVendor, 50)
	id := e.raise(t, "student-1")

	// Still awaiting votes.
	assert.ErrorIs(t, e.eng.AssignVendor(id, "vendor-1", 50), lifecycle.ErrInvalidTransition)

	e.voteToPending(t, id)
	assert.ErrorIs(t, e.eng.AssignVendor(id, "student-1", 50), lifecycle.ErrNotFound)
	assert.ErrorIs(t, e.eng.AssignVendor(id, "vendor-1", 0), lifecycle.ErrValidation)

	require.NoError(t, e.eng.AssignVendor(id, "vendor-1", 50))
	// Exactly one assignment may succeed.
	assert.ErrorIs(t, e.eng.AssignVendor(id, "vendor-1", 50), lifecycle.ErrInvalidTransition)
}

func TestCounseling_AssignAndAccept(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)
	e.addAccount(t, "counselor-1", models.RoleCounselor, 0)

	id, err := e.eng.RaiseComplaint("student-1", "Ragging incident", "threats in hostel", "", "", models.CategoryHarassment, "en")
	require.NoError(t, err)

	assert.ErrorIs(t, e.eng.AssignCounselor(id, "student-1"), lifecycle.ErrNotFound)
	require.NoError(t, e.eng.AssignCounselor(id, "counselor-1"))
	assert.Equal(t, "counselor-1", e.complaint(t, id).AssignedCounselorID)

	assert.ErrorIs(t, e.eng.AcceptCounseling(id, "counselor-1"), lifecycle.ErrUnauthorized)
	require.NoError(t, e.eng.AcceptCounseling(id, "student-1"))
	assert.True(t, e.complaint(t, id).CounselingAccepted)

	// Counseling is reserved for harassment cases.
	plain := e.raise(t, "student-1")
	assert.ErrorIs(t, e.eng.AssignCounselor(plain, "counselor-1"), lifecycle.ErrInvalidTransition)
}

func TestStartWork_OnlyAssignedVendor(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)
	e.addAccount(t, "vendor-1", models.RoleVendor, 0)
	e.addAccount(t, "vendor-2", models.RoleVendor, 0)
	id := e.raise(t, "student-1")

	assert.ErrorIs(t, e.eng.StartWork(id, "vendor-1"), lifecycle.ErrInvalidTransition)

	e.voteToPending(t, id)
	require.NoError(t, e.eng.AssignVendor(id, "vendor-1", 50))

	assert.ErrorIs(t, e.eng.StartWork(id, "vendor-2"), lifecycle.ErrUnauthorized)
	require.NoError(t, e.eng.StartWork(id, "vendor-1"))
	assert.Equal(t, models.StatusInProgress, e.complaint(t, id).Status)
}

func TestResolveComplaint_StampsCompletedAt(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)
	e.addAccount(t, "vendor-1", models.RoleVendor, 0)
	id := e.raise(t, "student-1")
	e.voteToPending(t, id)
	require.NoError(t, e.eng.AssignVendor(id, "vendor-1", 50))

	e.advance(2 * time.Hour)
	require.NoError(t, e.eng.ResolveComplaint(id, "vendor-1", "photo://proof"))

	complaint := e.complaint(t, id)
	assert.Equal(t, models.StatusResolved, complaint.Status)
	assert.Equal(t, "photo://proof", complaint.ProofRef)
	assert.Equal(t, e.now, complaint.CompletedAt)

	// Resolving twice is not a valid transition.
	assert.ErrorIs(t, e.eng.ResolveComplaint(id, "vendor-1", ""), lifecycle.ErrInvalidTransition)
}

func TestConfirmResolution_AuthorOnlyFromResolved(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)
	e.addAccount(t, "student-2", models.RoleStudent, 100)
	e.addAccount(t, "vendor-1", models.RoleVendor, 0)
	id := e.raise(t, "student-1")
	e.voteToPending(t, id)
	require.NoError(t, e.eng.AssignVendor(id, "vendor-1", 50))

	assert.ErrorIs(t, e.eng.ConfirmResolution(id, "student-1"), lifecycle.ErrInvalidTransition)

	require.NoError(t, e.eng.ResolveComplaint(id, "vendor-1", ""))
	assert.ErrorIs(t, e.eng.ConfirmResolution(id, "student-2"), lifecycle.ErrUnauthorized)
	require.NoError(t, e.eng.ConfirmResolution(id, "student-1"))
	assert.Equal(t, models.StatusConfirmed, e.complaint(t, id).Status)
}

func TestRateResolution_AppliesReputationDelta(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)
	e.addAccount(t, "vendor-1", models.RoleVendor, 0)
	// Start below the cap so positive deltas are observable.
	vendor := e.account(t, "vendor-1")
	vendor.ReputationScore = 80
	require.NoError(t, e.store.UpdateAccount(vendor))

	id := e.raise(t, "student-1")
	e.voteToPending(t, id)
	require.NoError(t, e.eng.AssignVendor(id, "vendor-1", 50))
	require.NoError(t, e.eng.ResolveComplaint(id, "vendor-1", ""))

	assert.ErrorIs(t, e.eng.RateResolution(id, "student-1", 0, ""), lifecycle.ErrValidation)
	assert.ErrorIs(t, e.eng.RateResolution(id, "student-1", 6, ""), lifecycle.ErrValidation)

	require.NoError(t, e.eng.RateResolution(id, "student-1", 5, "great work"))
	assert.Equal(t, 85, e.account(t, "vendor-1").ReputationScore)

	complaint := e.complaint(t, id)
	require.Len(t, complaint.Ratings, 1)
	assert.Equal(t, 5, complaint.Ratings[0].Rating)
	assert.InDelta(t, 5.0, complaint.AverageRating, 0.001)
}

func TestRateResolution_ReRateLastWriteWins(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)
	e.addAccount(t, "vendor-1", models.RoleVendor, 0)
	vendor := e.account(t, "vendor-1")
	vendor.ReputationScore = 80
	require.NoError(t, e.store.UpdateAccount(vendor))

	id := e.raise(t, "student-1")
	e.voteToPending(t, id)
	require.NoError(t, e.eng.AssignVendor(id, "vendor-1", 50))
	require.NoError(t, e.eng.ResolveComplaint(id, "vendor-1", ""))

	require.NoError(t, e.eng.RateResolution(id, "student-1", 5, "good"))
	assert.Equal(t, 85, e.account(t, "vendor-1").ReputationScore)

	// Re-rate to 1: the adjustment is the delta difference, not another -5.
	require.NoError(t, e.eng.RateResolution(id, "student-1", 1, "changed my mind"))
	assert.Equal(t, 75, e.account(t, "vendor-1").ReputationScore)

	complaint := e.complaint(t, id)
	require.Len(t, complaint.Ratings, 1)
	assert.Equal(t, 1, complaint.Ratings[0].Rating)
	assert.Equal(t, "changed my mind", complaint.Ratings[0].Comment)

	// Neutral re-rate (3) applies only the difference from -5 back to neutral.
	require.NoError(t, e.eng.RateResolution(id, "student-1", 3, "fine"))
	assert.Equal(t, 80, e.account(t, "vendor-1").ReputationScore)
}

func TestRateResolution_Guards(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)
	e.addAccount(t, "student-2", models.RoleStudent, 100)
	e.addAccount(t, "vendor-1", models.RoleVendor, 0)
	id := e.raise(t, "student-1")
	e.voteToPending(t, id)
	require.NoError(t, e.eng.AssignVendor(id, "vendor-1", 50))

	// Not yet resolved.
	assert.ErrorIs(t, e.eng.RateResolution(id, "student-1", 4, ""), lifecycle.ErrInvalidTransition)

	require.NoError(t, e.eng.ResolveComplaint(id, "vendor-1", ""))
	assert.ErrorIs(t, e.eng.RateResolution(id, "student-2", 4, ""), lifecycle.ErrUnauthorized)

	// Rating stays open after confirmation.
	require.NoError(t, e.eng.ConfirmResolution(id, "student-1"))
	require.NoError(t, e.eng.RateResolution(id, "student-1", 4, ""))
}

func TestReleaseFunds_OnTimePayout(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)
	e.addAccount(t, "vendor-1", models.RoleVendor, 50)
	e.addAccount(t, "admin-1", models.RoleAdmin, 0)

	id := e.raise(t, "student-1")
	e.voteToPending(t, id)
	require.NoError(t, e.eng.AssignVendor(id, "vendor-1", 100))
	e.advance(24 * time.Hour) // within the 48h window
	require.NoError(t, e.eng.ResolveComplaint(id, "vendor-1", ""))
	require.NoError(t, e.eng.ConfirmResolution(id, "student-1"))

	require.NoError(t, e.eng.ReleaseFunds(id, "admin-1"))

	vendor := e.account(t, "vendor-1")
	assert.Equal(t, int64(150), vendor.Balance)
	assert.Equal(t, config.OnTimeRewardPoints, vendor.RewardPoints)
	assert.Equal(t, config.InitialReputation, vendor.ReputationScore)
	assert.True(t, e.complaint(t, id).FundsReleased)

	entries, err := e.eng.LedgerEntries(id)
	require.NoError(t, err)
	// deposit, allocation, release; the reward entry is account-level.
	require.Len(t, entries, 3)
	assert.Equal(t, models.EntryRelease, entries[2].Kind)
	assert.Equal(t, int64(100), entries[2].Amount)

	rewards, err := e.led.EntriesByAccount("vendor-1")
	require.NoError(t, err)
	last := rewards[len(rewards)-1]
	assert.Equal(t, models.EntryReward, last.Kind)
	assert.Equal(t, int64(config.OnTimeRewardPoints), last.Amount)
}

func TestReleaseFunds_LatePenalty(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)
	e.addAccount(t, "vendor-1", models.RoleVendor, 0)
	e.addAccount(t, "admin-1", models.RoleAdmin, 0)

	id := e.raise(t, "student-1")
	e.voteToPending(t, id)
	require.NoError(t, e.eng.AssignVendor(id, "vendor-1", 100))
	e.advance(config.ResolutionWindow + time.Hour) // past the deadline
	require.NoError(t, e.eng.ResolveComplaint(id, "vendor-1", ""))
	require.NoError(t, e.eng.ConfirmResolution(id, "student-1"))

	require.NoError(t, e.eng.ReleaseFunds(id, "admin-1"))

	vendor := e.account(t, "vendor-1")
	assert.Equal(t, int64(80), vendor.Balance)
	assert.Equal(t, 0, vendor.RewardPoints)
	assert.Equal(t, config.InitialReputation-config.LatePenaltyReputation, vendor.ReputationScore)

	entries, err := e.eng.LedgerEntries(id)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, models.EntryPenalty, entries[2].Kind)
	assert.Equal(t, int64(20), entries[2].Amount)
	assert.Equal(t, models.PoolSystem, entries[2].Destination)
	assert.Equal(t, models.EntryRelease, entries[3].Kind)
	assert.Equal(t, int64(80), entries[3].Amount)
}

func TestReleaseFunds_Guards(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)
	e.addAccount(t, "vendor-1", models.RoleVendor, 0)
	e.addAccount(t, "admin-1", models.RoleAdmin, 0)

	id := e.raise(t, "student-1")
	e.voteToPending(t, id)
	require.NoError(t, e.eng.AssignVendor(id, "vendor-1", 50))
	require.NoError(t, e.eng.ResolveComplaint(id, "vendor-1", ""))

	// Not confirmed yet.
	assert.ErrorIs(t, e.eng.ReleaseFunds(id, "admin-1"), lifecycle.ErrInvalidTransition)

	require.NoError(t, e.eng.ConfirmResolution(id, "student-1"))
	assert.ErrorIs(t, e.eng.ReleaseFunds(id, "vendor-1"), lifecycle.ErrUnauthorized)

	require.NoError(t, e.eng.ReleaseFunds(id, "admin-1"))
	assert.ErrorIs(t, e.eng.ReleaseFunds(id, "admin-1"), lifecycle.ErrAlreadyReleased)

	// The double attempt paid nothing extra.
	assert.Equal(t, int64(50), e.account(t, "vendor-1").Balance)
}

func TestRejectComplaint_RefundsDeposit(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)
	e.addAccount(t, "admin-1", models.RoleAdmin, 0)

	id := e.raise(t, "student-1")
	e.voteToPending(t, id)

	assert.ErrorIs(t, e.eng.RejectComplaint(id, "student-1", "no"), lifecycle.ErrUnauthorized)

	require.NoError(t, e.eng.RejectComplaint(id, "admin-1", "duplicate of an earlier report"))

	complaint := e.complaint(t, id)
	assert.Equal(t, models.StatusRejected, complaint.Status)
	assert.Equal(t, "duplicate of an earlier report", complaint.RejectReason)
	assert.Equal(t, int64(100), e.account(t, "student-1").Balance)

	escrow, err := e.eng.EscrowPool()
	require.NoError(t, err)
	assert.Equal(t, int64(0), escrow)

	// Rejected is terminal.
	assert.ErrorIs(t, e.eng.RejectComplaint(id, "admin-1", "again"), lifecycle.ErrInvalidTransition)
}

func TestRejectComplaint_NotFromAwaitingVotes(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)
	e.addAccount(t, "admin-1", models.RoleAdmin, 0)
	id := e.raise(t, "student-1")

	assert.ErrorIs(t, e.eng.RejectComplaint(id, "admin-1", "no"), lifecycle.ErrInvalidTransition)
}

func TestVendorComplaints_HidesHarassmentPool(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)
	e.addAccount(t, "vendor-1", models.RoleVendor, 0)

	plain := e.raise(t, "student-1")
	e.voteToPending(t, plain)
	harassment, err := e.eng.RaiseComplaint("student-1", "Ragging incident", "threats", "", "", models.CategoryHarassment, "en")
	require.NoError(t, err)

	visible, err := e.eng.VendorComplaints("vendor-1")
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, plain, visible[0].ID)

	// Once assigned, a harassment case does appear for its vendor.
	require.NoError(t, e.eng.AssignVendor(harassment, "vendor-1", 30))
	visible, err = e.eng.VendorComplaints("vendor-1")
	require.NoError(t, err)
	assert.Len(t, visible, 2)
}

func TestComputeStats(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, 100)
	e.addAccount(t, "vendor-1", models.RoleVendor, 0)
	e.addAccount(t, "admin-1", models.RoleAdmin, 0)

	first := e.raise(t, "student-1")
	e.voteToPending(t, first)
	require.NoError(t, e.eng.AssignVendor(first, "vendor-1", 50))
	require.NoError(t, e.eng.ResolveComplaint(first, "vendor-1", ""))
	require.NoError(t, e.eng.ConfirmResolution(first, "student-1"))

	e.raise(t, "student-1")

	stats, err := e.eng.ComputeStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalComplaints)
	assert.Equal(t, 1, stats.Confirmed)
	assert.Equal(t, 1, stats.AwaitingVotes)
	assert.Equal(t, config.UpvoteThreshold, stats.TotalUpvotes)
	assert.Equal(t, int64(2*config.DefaultDeposit), stats.EscrowPool)
}

// TestEndToEnd walks the happy path with exact balances at every step.
func TestEndToEnd(t *testing.T) {
	e := newEnv(t)
	e.addAccount(t, "student-1", models.RoleStudent, config.StudentStartingBalance)
	e.addAccount(t, "vendor-1", models.RoleVendor, config.VendorStartingBalance)
	e.addAccount(t, "admin-1", models.RoleAdmin, 0)

	id := e.raise(t, "student-1")
	assert.Equal(t, int64(90), e.account(t, "student-1").Balance)

	e.voteToPending(t, id)
	assert.Equal(t, models.StatusPending, e.complaint(t, id).Status)

	require.NoError(t, e.eng.AssignVendor(id, "vendor-1", 50))
	deadline := e.complaint(t, id).ResolutionDeadline
	assert.Equal(t, e.now+config.ResolutionWindow.Milliseconds(), deadline)

	require.NoError(t, e.eng.StartWork(id, "vendor-1"))
	e.advance(12 * time.Hour)
	require.NoError(t, e.eng.ResolveComplaint(id, "vendor-1", "photo://done"))
	require.NoError(t, e.eng.ConfirmResolution(id, "student-1"))
	require.NoError(t, e.eng.RateResolution(id, "student-1", 5, "fixed quickly"))

	require.NoError(t, e.eng.ReleaseFunds(id, "admin-1"))

	vendor := e.account(t, "vendor-1")
	assert.Equal(t, int64(config.VendorStartingBalance+50), vendor.Balance)
	assert.Equal(t, config.OnTimeRewardPoints, vendor.RewardPoints)

	summary, err := e.perf.Summarize("vendor-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CompletedJobs)
	assert.Equal(t, 100, summary.OnTimeRate)
	assert.InDelta(t, 5.0, summary.AverageRating, 0.001)
}
