package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sobanshoaib/schedular-app-challenge/auth"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/login
func (h *APIHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	token, actor, expires, err := h.Auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.Logger.Info("login failed", zap.String("username", req.Username))
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		h.respondError(c, err, "Failed to log in")
		return
	}

	h.Logger.Info("login", zap.String("username", actor.Username), zap.String("role", string(actor.Role)))
	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresAt": expires.UTC(),
		"user":      actor,
	})
}

// Logout handles POST /api/logout. Tokens are stateless, so the client just
// drops its copy.
func (h *APIHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me handles GET /api/me
func (h *APIHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, h.actor(c))
}
