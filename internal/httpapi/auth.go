package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/mailaggregator/mailaggregator/internal/auth"
)

func (s *Server) handleAuthConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"username": s.bootAdminUser})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	creds, err := s.store.GetAdminCredentials(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := auth.Login(ctx, auth.Credentials{
		Username:     creds.Username,
		PasswordHash: creds.PasswordHash,
	}, req.Username, req.Password); err != nil {
		respondError(c, err)
		return
	}

	token, err := s.tokens.Issue(req.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (s *Server) handleChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	creds, err := s.store.GetAdminCredentials(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := auth.Login(ctx, auth.Credentials{
		Username:     creds.Username,
		PasswordHash: creds.PasswordHash,
	}, creds.Username, req.CurrentPassword); err != nil {
		respondError(c, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.store.SetAdminPasswordHash(ctx, string(hash)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type resetPasswordRequest struct {
	ResetToken  string `json:"reset_token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// handleResetPassword is the break-glass flow: it bypasses the current
// password entirely, gated on ADMIN_RESET_TOKEN instead.
func (s *Server) handleResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !auth.CheckBearerToken(s.adminResetToken, req.ResetToken) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid reset token"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.store.SetAdminPasswordHash(c.Request.Context(), string(hash)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
