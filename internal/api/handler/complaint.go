package handler

import (
	"log"
	"net/http"
	"time"

	"blockfix/backend/internal/events"
	"blockfix/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type raiseComplaintRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Location    string `json:"location"`
	PhotoRef    string `json:"photo_ref"`
	Category    string `json:"category"`
	Language    string `json:"language"`
}

// RaiseComplaint files a complaint for the authenticated student.
func (h *Handler) RaiseComplaint(c *gin.Context) {
	var req raiseComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	authorID := c.GetString("account_id")
	id, err := h.Engine.RaiseComplaint(authorID, req.Title, req.Description,
		req.Location, req.PhotoRef, models.Category(req.Category), req.Language)
	if err != nil {
		respondError(c, err)
		return
	}

	h.publish(events.TypeRaised, id, authorID, req.Title)
	if h.Alerter != nil {
		if complaint, err := h.Engine.Complaint(id); err == nil && complaint.Priority == models.PriorityUrgent {
			h.Alerter.UrgentComplaint(complaint)
		}
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ListComplaints returns the view appropriate to the caller's role.
func (h *Handler) ListComplaints(c *gin.Context) {
	accountID := c.GetString("account_id")
	var (
		complaints []models.Complaint
		err        error
	)
	switch c.GetString("role") {
	case string(models.RoleVendor):
		complaints, err = h.Engine.VendorComplaints(accountID)
	case string(models.RoleCounselor):
		complaints, err = h.Engine.HarassmentComplaints()
	case string(models.RoleAdmin):
		complaints, err = h.Engine.AllComplaints()
	default:
		complaints, err = h.Engine.MyComplaints(accountID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, complaints)
}

// GetComplaint returns one complaint.
func (h *Handler) GetComplaint(c *gin.Context) {
	complaint, err := h.Engine.Complaint(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

// ComplaintLedger returns the audit trail for one complaint.
func (h *Handler) ComplaintLedger(c *gin.Context) {
	entries, err := h.Engine.LedgerEntries(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Upvote adds the caller's vote.
func (h *Handler) Upvote(c *gin.Context) {
	id := c.Param("id")
	voterID := c.GetString("account_id")
	if err := h.Engine.Upvote(id, voterID); err != nil {
		respondError(c, err)
		return
	}
	h.publish(events.TypeUpvoted, id, voterID, "")
	c.JSON(http.StatusOK, gin.H{"status": "upvoted"})
}

// StartWork moves an assigned complaint to in_progress for the caller vendor.
func (h *Handler) StartWork(c *gin.Context) {
	id := c.Param("id")
	vendorID := c.GetString("account_id")
	if err := h.Engine.StartWork(id, vendorID); err != nil {
		respondError(c, err)
		return
	}
	h.publish(events.TypeWorkStarted, id, vendorID, "")
	c.JSON(http.StatusOK, gin.H{"status": "in_progress"})
}

type resolveRequest struct {
	ProofRef string `json:"proof_ref" binding:"required"`
}

// ResolveComplaint records the vendor's proof and notifies the author.
func (h *Handler) ResolveComplaint(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	vendorID := c.GetString("account_id")
	if err := h.Engine.ResolveComplaint(id, vendorID, req.ProofRef); err != nil {
		respondError(c, err)
		return
	}

	h.publish(events.TypeResolved, id, vendorID, "")
	if complaint, err := h.Engine.Complaint(id); err == nil {
		if student, err := h.Directory.AccountByID(complaint.StudentID); err == nil {
			h.Email.ResolutionEmail(student, complaint)
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "resolved"})
}

// ConfirmResolution lets the author accept the work.
func (h *Handler) ConfirmResolution(c *gin.Context) {
	id := c.Param("id")
	studentID := c.GetString("account_id")
	if err := h.Engine.ConfirmResolution(id, studentID); err != nil {
		respondError(c, err)
		return
	}
	h.publish(events.TypeConfirmed, id, studentID, "")
	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}

type rateRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// RateResolution records the author's rating.
func (h *Handler) RateResolution(c *gin.Context) {
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	studentID := c.GetString("account_id")
	if err := h.Engine.RateResolution(id, studentID, req.Rating, req.Comment); err != nil {
		respondError(c, err)
		return
	}
	h.publish(events.TypeRated, id, studentID, "")
	c.JSON(http.StatusOK, gin.H{"status": "rated"})
}

// AcceptCounseling records the author's consent on a harassment case.
func (h *Handler) AcceptCounseling(c *gin.Context) {
	id := c.Param("id")
	studentID := c.GetString("account_id")
	if err := h.Engine.AcceptCounseling(id, studentID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "counseling_accepted"})
}

// VendorPerformance returns the performance summary for one vendor.
func (h *Handler) VendorPerformance(c *gin.Context) {
	summary, err := h.Perf.Summarize(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) publish(eventType, complaintID, actorID, detail string) {
	if h.Hub == nil {
		return
	}
	h.Hub.Publish(events.Event{
		Type:        eventType,
		ComplaintID: complaintID,
		ActorID:     actorID,
		Detail:      detail,
		Timestamp:   time.Now().UnixMilli(),
	})
	log.Printf("event %s complaint=%s actor=%s", eventType, complaintID, actorID)
}
