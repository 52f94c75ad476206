package handler

import (
	"net/http"
	"time"

	"blockfix/backend/internal/models"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
)

// generateJWT issues a token carrying the account identity and role.
func (h *Handler) generateJWT(account *models.Account) (string, error) {
	claims := jwt.MapClaims{
		"account_id": account.ID,
		"role":       string(account.Role),
		"exp":        time.Now().Add(72 * time.Hour).Unix(),
		"iss":        "blockfix-service",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// Signup registers a student or vendor and sends the simulated welcome email.
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.Directory.Signup(req.Email, req.Password, req.Name, models.Role(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.generateJWT(account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	h.Email.RegistrationEmail(account)
	c.JSON(http.StatusCreated, gin.H{"token": token, "account": account})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks credentials and returns a JWT.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.Directory.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.generateJWT(account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "account": account})
}

// Me returns the authenticated account.
func (h *Handler) Me(c *gin.Context) {
	account, err := h.Directory.AccountByID(c.GetString("account_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}
