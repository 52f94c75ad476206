package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Category of a complaint. Picked by the student or by the keyword classifier.
type Category string

const (
	CategoryMess           Category = "mess"
	CategoryInfrastructure Category = "infrastructure"
	CategoryHarassment     Category = "harassment"
	CategoryHygiene        Category = "hygiene"
	CategorySecurity       Category = "security"
	CategoryAcademic       Category = "academic"
	CategoryOther          Category = "other"
)

// Priority of a complaint, derived from category and urgency keywords.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Status of a complaint in its lifecycle. Transitions are owned exclusively by
// the lifecycle engine.
type Status string

const (
	StatusAwaitingVotes Status = "awaiting_votes"
	StatusPending       Status = "pending"
	StatusAssigned      Status = "assigned"
	StatusInProgress    Status = "in_progress"
	StatusResolved      Status = "resolved"
	StatusConfirmed     Status = "confirmed"
	StatusRejected      Status = "rejected"
)

// Complaint is the central entity. Created once, mutated in place through the
// lifecycle engine, never deleted (audit requirement). DepositAmount is fixed
// at creation; AllocatedAmount is fixed once set at vendor assignment.
type Complaint struct {
	ID          string `gorm:"primaryKey" json:"id"`
	StudentID   string `gorm:"index" json:"student_id"`
	StudentName string `json:"student_name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	PhotoRef    string `json:"photo_ref"`
	Language    string `json:"language"`

	Category Category `gorm:"index" json:"category"`
	Priority Priority `json:"priority"`
	Status   Status   `gorm:"index" json:"status"`

	DepositAmount   int64 `json:"deposit_amount"`
	AllocatedAmount int64 `json:"allocated_amount"`

	Upvotes   int            `json:"upvotes"`
	UpvotedBy pq.StringArray `gorm:"type:text[]" json:"upvoted_by"`

	AssignedVendorID    string `gorm:"index" json:"assigned_vendor_id"`
	AssignedVendorName  string `json:"assigned_vendor_name"`
	AssignedCounselorID string `json:"assigned_counselor_id"`

	ProofRef           string `json:"proof_ref"`
	ResolutionDeadline int64  `json:"resolution_deadline"`
	CompletedAt        int64  `json:"completed_at"`

	Ratings       []Rating `gorm:"foreignKey:ComplaintID" json:"ratings"`
	AverageRating float64  `json:"average_rating"`

	NeedsCounseling    bool `json:"needs_counseling"`
	CounselingAccepted bool `json:"counseling_accepted"`

	FundsReleased bool   `json:"funds_released"`
	RejectReason  string `json:"reject_reason"`

	CreatedAt int64 `gorm:"autoCreateTime:milli" json:"created_at"`
}

// BeforeCreate is a GORM hook that generates a UUID if the ID is not yet set.
func (c *Complaint) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// HasUpvoted reports whether the given account already voted on this complaint.
func (c *Complaint) HasUpvoted(accountID string) bool {
	for _, id := range c.UpvotedBy {
		if id == accountID {
			return true
		}
	}
	return false
}

// RecomputeAverageRating refreshes the derived average over the rating list.
func (c *Complaint) RecomputeAverageRating() {
	if len(c.Ratings) == 0 {
		c.AverageRating = 0
		return
	}
	sum := 0
	for _, r := range c.Ratings {
		sum += r.Rating
	}
	c.AverageRating = float64(sum) / float64(len(c.Ratings))
}

// Rating is a student's 1-5 verdict on a resolved complaint. One per student
// per complaint; a re-rate replaces the previous row.
type Rating struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ComplaintID string `gorm:"index:idx_rating_complaint_student,unique" json:"complaint_id"`
	StudentID   string `gorm:"index:idx_rating_complaint_student,unique" json:"student_id"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment"`
	CreatedAt   int64  `gorm:"autoCreateTime:milli" json:"created_at"`
}
