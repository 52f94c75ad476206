package handler

import (
	"net/http"

	"blockfix/backend/internal/events"
	"blockfix/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type assignVendorRequest struct {
	VendorID        string `json:"vendor_id" binding:"required"`
	AllocatedAmount int64  `json:"allocated_amount" binding:"required"`
}

// AssignVendor assigns a vendor with a fund allocation.
func (h *Handler) AssignVendor(c *gin.Context) {
	var req assignVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	if err := h.Engine.AssignVendor(id, req.VendorID, req.AllocatedAmount); err != nil {
		respondError(c, err)
		return
	}
	h.publish(events.TypeVendorAssigned, id, c.GetString("account_id"), req.VendorID)
	c.JSON(http.StatusOK, gin.H{"status": "assigned"})
}

type assignCounselorRequest struct {
	CounselorID string `json:"counselor_id" binding:"required"`
}

// AssignCounselor attaches a counselor to a harassment case.
func (h *Handler) AssignCounselor(c *gin.Context) {
	var req assignCounselorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	if err := h.Engine.AssignCounselor(id, req.CounselorID); err != nil {
		respondError(c, err)
		return
	}
	h.publish(events.TypeCounselorAssigned, id, c.GetString("account_id"), req.CounselorID)
	c.JSON(http.StatusOK, gin.H{"status": "counselor_assigned"})
}

// ReleaseFunds pays the vendor out of escrow.
func (h *Handler) ReleaseFunds(c *gin.Context) {
	id := c.Param("id")
	adminID := c.GetString("account_id")
	if err := h.Engine.ReleaseFunds(id, adminID); err != nil {
		respondError(c, err)
		return
	}
	h.publish(events.TypeFundsReleased, id, adminID, "")
	c.JSON(http.StatusOK, gin.H{"status": "released"})
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectComplaint rejects a complaint and refunds the deposit.
func (h *Handler) RejectComplaint(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	adminID := c.GetString("account_id")
	if err := h.Engine.RejectComplaint(id, adminID, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	h.publish(events.TypeRejected, id, adminID, req.Reason)
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

type provisionRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required"`
}

// AddVendor provisions a vendor account.
func (h *Handler) AddVendor(c *gin.Context) {
	var req provisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.Directory.AddVendor(req.Email, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	h.Email.RegistrationEmail(account)
	c.JSON(http.StatusCreated, account)
}

// AddCounselor provisions a counselor account.
func (h *Handler) AddCounselor(c *gin.Context) {
	var req provisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.Directory.AddCounselor(req.Email, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	h.Email.RegistrationEmail(account)
	c.JSON(http.StatusCreated, account)
}

// AccountsByRole lists accounts of the role given in the query string.
func (h *Handler) AccountsByRole(c *gin.Context) {
	role := models.Role(c.Query("role"))
	accounts, err := h.Directory.AccountsByRole(role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// DisableAccount soft-disables an account.
func (h *Handler) DisableAccount(c *gin.Context) {
	if err := h.Directory.Disable(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "disabled"})
}

// Stats returns the dashboard aggregate.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.Engine.ComputeStats()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// EscrowPool reports the outstanding escrow size.
func (h *Handler) EscrowPool(c *gin.Context) {
	total, err := h.Engine.EscrowPool()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"escrow": total})
}
