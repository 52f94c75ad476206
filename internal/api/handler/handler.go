// Package handler is the HTTP caller collaborator around the core engines.
// It translates requests into engine operations, maps sentinel errors to
// status codes, and invokes the notification sinks and the event feed after
// an operation succeeds. No business rule lives here.
package handler

import (
	"errors"
	"net/http"

	"blockfix/backend/internal/directory"
	"blockfix/backend/internal/events"
	"blockfix/backend/internal/ledger"
	"blockfix/backend/internal/lifecycle"
	"blockfix/backend/internal/notify"
	"blockfix/backend/internal/performance"

	"github.com/gin-gonic/gin"
)

// Handler carries the wired collaborators.
type Handler struct {
	Directory *directory.Service
	Engine    *lifecycle.Engine
	Perf      *performance.Engine
	Ledger    *ledger.Ledger
	Hub       *events.Hub
	Email     *notify.EmailSimulator
	Alerter   *notify.TelegramAlerter // nil when no bot token is configured

	jwtSecret []byte
}

// NewHandler creates the handler.
func NewHandler(dir *directory.Service, engine *lifecycle.Engine, perf *performance.Engine,
	led *ledger.Ledger, hub *events.Hub, email *notify.EmailSimulator,
	alerter *notify.TelegramAlerter, jwtSecret []byte) *Handler {
	return &Handler{
		Directory: dir,
		Engine:    engine,
		Perf:      perf,
		Ledger:    led,
		Hub:       hub,
		Email:     email,
		Alerter:   alerter,
		jwtSecret: jwtSecret,
	}
}

// RegisterRoutes attaches all API routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)

	auth := r.Group("/", h.AuthRequired())
	{
		auth.GET("/me", h.Me)

		auth.POST("/complaints", h.RaiseComplaint)
		auth.GET("/complaints", h.ListComplaints)
		auth.GET("/complaints/:id", h.GetComplaint)
		auth.GET("/complaints/:id/ledger", h.ComplaintLedger)
		auth.POST("/complaints/:id/upvote", h.Upvote)
		auth.POST("/complaints/:id/start", h.StartWork)
		auth.POST("/complaints/:id/resolve", h.ResolveComplaint)
		auth.POST("/complaints/:id/confirm", h.ConfirmResolution)
		auth.POST("/complaints/:id/rate", h.RateResolution)
		auth.POST("/complaints/:id/counseling/accept", h.AcceptCounseling)

		auth.GET("/vendors/:id/performance", h.VendorPerformance)
		auth.GET("/ws/events", h.ServeEventFeed)

		admin := auth.Group("/admin", h.RequireRole("admin"))
		{
			admin.POST("/complaints/:id/assign", h.AssignVendor)
			admin.POST("/complaints/:id/counselor", h.AssignCounselor)
			admin.POST("/complaints/:id/release", h.ReleaseFunds)
			admin.POST("/complaints/:id/reject", h.RejectComplaint)
			admin.POST("/vendors", h.AddVendor)
			admin.POST("/counselors", h.AddCounselor)
			admin.GET("/accounts", h.AccountsByRole)
			admin.POST("/accounts/:id/disable", h.DisableAccount)
			admin.GET("/stats", h.Stats)
			admin.GET("/escrow", h.EscrowPool)
		}
	}
}

// respondError maps sentinel errors from the core onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, lifecycle.ErrNotFound), errors.Is(err, directory.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, lifecycle.ErrInsufficientFunds):
		status = http.StatusPaymentRequired
	case errors.Is(err, lifecycle.ErrUnauthorized), errors.Is(err, directory.ErrAccountDisabled):
		status = http.StatusForbidden
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrAlreadyVoted),
		errors.Is(err, lifecycle.ErrAlreadyReleased),
		errors.Is(err, directory.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, lifecycle.ErrValidation), errors.Is(err, ledger.ErrValidation),
		errors.Is(err, directory.ErrInvalidRole):
		status = http.StatusBadRequest
	case errors.Is(err, directory.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
