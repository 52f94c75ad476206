package lifecycle

import (
	"errors"
	"fmt"

	"blockfix/backend/internal/config"
	"blockfix/backend/internal/models"
	"blockfix/backend/internal/storage"

	"github.com/google/uuid"
)

// RaiseComplaint files a new complaint against the fixed deposit. The deposit
// is debited from the author and parked in escrow; the amount never changes
// after creation. Harassment complaints bypass the voting gate and start at
// pending because urgency overrides community consensus.
func (e *Engine) RaiseComplaint(authorID, title, description, location, photoRef string, category models.Category, language string) (string, error) {
	unlock := e.lock("account:" + authorID)
	defer unlock()

	author, err := e.account(authorID)
	if err != nil {
		return "", err
	}
	if author.Role != models.RoleStudent || author.Disabled {
		return "", ErrUnauthorized
	}
	if title == "" || description == "" {
		return "", fmt.Errorf("%w: title and description are required", ErrValidation)
	}
	if author.Balance < config.DefaultDeposit {
		return "", ErrInsufficientFunds
	}

	if category == "" || category == models.CategoryOther {
		category = e.classifier.Categorize(title, description)
	}
	priority := e.classifier.Priority(description, category)

	status := models.StatusAwaitingVotes
	if category == models.CategoryHarassment {
		status = models.StatusPending
	}

	complaint := &models.Complaint{
		ID:              uuid.New().String(),
		StudentID:       author.ID,
		StudentName:     author.Name,
		Title:           title,
		Description:     description,
		Location:        location,
		PhotoRef:        photoRef,
		Language:        language,
		Category:        category,
		Priority:        priority,
		Status:          status,
		DepositAmount:   config.DefaultDeposit,
		NeedsCounseling: category == models.CategoryHarassment,
		CreatedAt:       e.now(),
	}

	// The debit and the complaint row commit together; a failure mid-way
	// leaves neither behind.
	err = e.store.Transact(func(tx storage.Storage) error {
		if err := e.ledger.WithStore(tx).Deposit(author.ID, complaint.ID, config.DefaultDeposit, "Complaint deposit: "+title); err != nil {
			return err
		}
		return tx.CreateComplaint(complaint)
	})
	if errors.Is(err, storage.ErrInsufficientBalance) {
		return "", ErrInsufficientFunds
	}
	if err != nil {
		return "", err
	}
	return complaint.ID, nil
}

// Upvote adds a community vote. Voting is idempotent per voter; the second
// vote from the same account fails with ErrAlreadyVoted and changes nothing.
// The threshold crossing is evaluated strictly on write, so a complaint can
// never miss the transition to pending.
func (e *Engine) Upvote(complaintID, voterID string) error {
	unlock := e.lock(complaintID)
	defer unlock()

	complaint, err := e.complaint(complaintID)
	if err != nil {
		return err
	}
	if _, err := e.account(voterID); err != nil {
		return err
	}
	if complaint.HasUpvoted(voterID) {
		return ErrAlreadyVoted
	}

	complaint.Upvotes++
	complaint.UpvotedBy = append(complaint.UpvotedBy, voterID)
	// Complaints past the gate keep accumulating votes for ranking only.
	if complaint.Status == models.StatusAwaitingVotes && complaint.Upvotes >= config.UpvoteThreshold {
		complaint.Status = models.StatusPending
	}
	return e.store.UpdateComplaint(complaint)
}

// AssignVendor moves a pending complaint to assigned, fixes the allocation
// and stamps the 48-hour resolution deadline. Exactly one assignment may
// succeed per complaint. The allocation ledger entry is informational; the
// vendor's balance only moves on release.
func (e *Engine) AssignVendor(complaintID, vendorID string, allocatedAmount int64) error {
	unlock := e.lock(complaintID)
	defer unlock()

	complaint, err := e.complaint(complaintID)
	if err != nil {
		return err
	}
	if complaint.Status != models.StatusPending {
		return ErrInvalidTransition
	}
	vendor, err := e.account(vendorID)
	if err != nil {
		return err
	}
	if vendor.Role != models.RoleVendor {
		return ErrNotFound
	}
	if allocatedAmount <= 0 {
		return fmt.Errorf("%w: allocated amount must be positive", ErrValidation)
	}

	complaint.Status = models.StatusAssigned
	complaint.AssignedVendorID = vendor.ID
	complaint.AssignedVendorName = vendor.Name
	complaint.AllocatedAmount = allocatedAmount
	complaint.ResolutionDeadline = e.now() + config.ResolutionWindow.Milliseconds()

	desc := fmt.Sprintf("Vendor assigned with %d allocation", allocatedAmount)
	err = e.store.Transact(func(tx storage.Storage) error {
		if err := tx.UpdateComplaint(complaint); err != nil {
			return err
		}
		return e.ledger.WithStore(tx).Allocation(complaintID, vendor.ID, allocatedAmount, desc)
	})
	if err != nil {
		return err
	}
	return e.perf.Invalidate(vendor.ID)
}

// AssignCounselor attaches a counselor to a harassment case. Independent of
// the main lifecycle: status does not change, and the call may interleave
// with vendor assignment in any order.
func (e *Engine) AssignCounselor(complaintID, counselorID string) error {
	unlock := e.lock(complaintID)
	defer unlock()

	complaint, err := e.complaint(complaintID)
	if err != nil {
		return err
	}
	if !complaint.NeedsCounseling {
		return ErrInvalidTransition
	}
	counselor, err := e.account(counselorID)
	if err != nil {
		return err
	}
	if counselor.Role != models.RoleCounselor {
		return ErrNotFound
	}

	complaint.AssignedCounselorID = counselor.ID
	return e.store.UpdateComplaint(complaint)
}

// AcceptCounseling records the author's consent to counseling. One-way: there
// is no decline or reset.
func (e *Engine) AcceptCounseling(complaintID, studentID string) error {
	unlock := e.lock(complaintID)
	defer unlock()

	complaint, err := e.complaint(complaintID)
	if err != nil {
		return err
	}
	if complaint.StudentID != studentID {
		return ErrUnauthorized
	}
	if !complaint.NeedsCounseling {
		return ErrInvalidTransition
	}

	complaint.CounselingAccepted = true
	return e.store.UpdateComplaint(complaint)
}

// StartWork moves an assigned complaint to in_progress. Only the assigned
// vendor may start.
func (e *Engine) StartWork(complaintID, vendorID string) error {
	unlock := e.lock(complaintID)
	defer unlock()

	complaint, err := e.complaint(complaintID)
	if err != nil {
		return err
	}
	if complaint.Status != models.StatusAssigned {
		return ErrInvalidTransition
	}
	if complaint.AssignedVendorID != vendorID {
		return ErrUnauthorized
	}

	complaint.Status = models.StatusInProgress
	if err := e.store.UpdateComplaint(complaint); err != nil {
		return err
	}
	return e.perf.Invalidate(vendorID)
}

// ResolveComplaint records the vendor's proof of resolution and stamps
// CompletedAt. Lateness is judged against this stamp, never against the later
// confirmation or release times.
func (e *Engine) ResolveComplaint(complaintID, vendorID, proofRef string) error {
	unlock := e.lock(complaintID)
	defer unlock()

	complaint, err := e.complaint(complaintID)
	if err != nil {
		return err
	}
	if complaint.Status != models.StatusAssigned && complaint.Status != models.StatusInProgress {
		return ErrInvalidTransition
	}
	if complaint.AssignedVendorID != vendorID {
		return ErrUnauthorized
	}

	complaint.Status = models.StatusResolved
	complaint.ProofRef = proofRef
	complaint.CompletedAt = e.now()
	if err := e.store.UpdateComplaint(complaint); err != nil {
		return err
	}
	return e.perf.Invalidate(vendorID)
}

// ConfirmResolution is the author accepting the work. It moves no funds:
// release is a distinct, administrator-gated step.
func (e *Engine) ConfirmResolution(complaintID, studentID string) error {
	unlock := e.lock(complaintID)
	defer unlock()

	complaint, err := e.complaint(complaintID)
	if err != nil {
		return err
	}
	if complaint.Status != models.StatusResolved {
		return ErrInvalidTransition
	}
	if complaint.StudentID != studentID {
		return ErrUnauthorized
	}

	complaint.Status = models.StatusConfirmed
	if err := e.store.UpdateComplaint(complaint); err != nil {
		return err
	}
	return e.perf.Invalidate(complaint.AssignedVendorID)
}

// RateResolution appends the author's rating and applies the immediate
// reputation delta to the assigned vendor. One rating per student per
// complaint, last write wins: a re-rate replaces the stored row and the score
// adjustment is the difference between the new and old deltas, so the running
// score never double-counts.
func (e *Engine) RateResolution(complaintID, studentID string, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}

	unlock := e.lock(complaintID)
	defer unlock()

	complaint, err := e.complaint(complaintID)
	if err != nil {
		return err
	}
	if complaint.Status != models.StatusResolved && complaint.Status != models.StatusConfirmed {
		return ErrInvalidTransition
	}
	if complaint.StudentID != studentID {
		return ErrUnauthorized
	}

	scoreDelta := ratingDelta(rating)
	var saved models.Rating
	replaced := false
	for i := range complaint.Ratings {
		if complaint.Ratings[i].StudentID == studentID {
			scoreDelta -= ratingDelta(complaint.Ratings[i].Rating)
			complaint.Ratings[i].Rating = rating
			complaint.Ratings[i].Comment = comment
			complaint.Ratings[i].CreatedAt = e.now()
			saved = complaint.Ratings[i]
			replaced = true
			break
		}
	}
	if !replaced {
		saved = models.Rating{
			ComplaintID: complaintID,
			StudentID:   studentID,
			Rating:      rating,
			Comment:     comment,
			CreatedAt:   e.now(),
		}
		complaint.Ratings = append(complaint.Ratings, saved)
	}
	complaint.RecomputeAverageRating()
	err = e.store.Transact(func(tx storage.Storage) error {
		if err := tx.SaveRating(&saved); err != nil {
			return err
		}
		if err := tx.UpdateComplaint(complaint); err != nil {
			return err
		}
		if scoreDelta != 0 {
			return tx.AdjustReputation(complaint.AssignedVendorID, scoreDelta, config.MinReputation, config.MaxReputation)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return e.perf.Invalidate(complaint.AssignedVendorID)
}

// ReleaseFunds pays the vendor out of escrow, exactly once, and only after
// the author confirmed. A vendor that finished past the deadline forfeits 20%
// of the payout to the system pool and loses reputation; an on-time vendor
// earns reward points instead.
func (e *Engine) ReleaseFunds(complaintID, adminID string) error {
	unlock := e.lock(complaintID)
	defer unlock()

	complaint, err := e.complaint(complaintID)
	if err != nil {
		return err
	}
	admin, err := e.account(adminID)
	if err != nil {
		return err
	}
	if admin.Role != models.RoleAdmin {
		return ErrUnauthorized
	}
	if complaint.Status != models.StatusConfirmed {
		return ErrInvalidTransition
	}
	if complaint.FundsReleased {
		return ErrAlreadyReleased
	}
	if complaint.AssignedVendorID == "" {
		return ErrInvalidTransition
	}

	payout := complaint.AllocatedAmount
	if payout == 0 {
		payout = complaint.DepositAmount
	}

	late := complaint.CompletedAt != 0 && complaint.ResolutionDeadline != 0 &&
		complaint.CompletedAt > complaint.ResolutionDeadline

	finalAmount := payout
	if late {
		finalAmount = payout * int64(100-config.LatePenaltyPercent) / 100
	}

	// Every write of the release commits as one unit: a failed attempt leaves
	// no penalty entry, score change or payout behind, so a retry starts clean.
	err = e.store.Transact(func(tx storage.Storage) error {
		led := e.ledger.WithStore(tx)
		perf := e.perf.WithStore(tx)

		if late {
			withheld := payout - finalAmount
			if err := led.Penalty(complaintID, complaint.AssignedVendorID, withheld, "Penalty for late resolution"); err != nil {
				return err
			}
			if err := perf.AdjustScore(complaint.AssignedVendorID, -config.LatePenaltyReputation); err != nil {
				return err
			}
		}

		if err := led.Release(complaintID, complaint.AssignedVendorID, finalAmount, "Payment released to vendor"); err != nil {
			return err
		}

		if !late {
			if err := led.Reward(complaint.AssignedVendorID, config.OnTimeRewardPoints, "Reward points for on-time resolution"); err != nil {
				return err
			}
			if err := perf.GrantPoints(complaint.AssignedVendorID, config.OnTimeRewardPoints); err != nil {
				return err
			}
		}

		complaint.FundsReleased = true
		return tx.UpdateComplaint(complaint)
	})
	if err != nil {
		return err
	}
	return e.perf.Invalidate(complaint.AssignedVendorID)
}

// RejectComplaint is the admin-gated alternate terminal. Valid from pending
// or assigned; the deposit returns from escrow to the author.
func (e *Engine) RejectComplaint(complaintID, adminID, reason string) error {
	unlock := e.lock(complaintID)
	defer unlock()

	complaint, err := e.complaint(complaintID)
	if err != nil {
		return err
	}
	admin, err := e.account(adminID)
	if err != nil {
		return err
	}
	if admin.Role != models.RoleAdmin {
		return ErrUnauthorized
	}
	if complaint.Status != models.StatusPending && complaint.Status != models.StatusAssigned {
		return ErrInvalidTransition
	}

	complaint.Status = models.StatusRejected
	complaint.RejectReason = reason
	err = e.store.Transact(func(tx storage.Storage) error {
		if err := e.ledger.WithStore(tx).Release(complaintID, complaint.StudentID, complaint.DepositAmount, "Deposit refunded on rejection"); err != nil {
			return err
		}
		return tx.UpdateComplaint(complaint)
	})
	if err != nil {
		return err
	}
	if complaint.AssignedVendorID != "" {
		return e.perf.Invalidate(complaint.AssignedVendorID)
	}
	return nil
}

func ratingDelta(rating int) int {
	switch {
	case rating >= 4:
		return config.GoodRatingDelta
	case rating <= 2:
		return config.PoorRatingDelta
	default:
		return 0
	}
}
