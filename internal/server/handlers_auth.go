package server

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MustafaxCmrt/Social-Network-sub000/account"
	"github.com/MustafaxCmrt/Social-Network-sub000/middleware"
)

type registerRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type resetRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type accountResponse struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	DisplayName   string     `json:"display_name"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"email_verified"`
	MutedUntil    *time.Time `json:"muted_until,omitempty"`
}

var errAccountTaken = errors.New("username or email already taken")

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	ctx := c.Request.Context()

	hash, err := s.engine.HashPassword(req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	acc := &account.Account{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Role:         s.role,
		PasswordHash: hash,
		Active:       true,
	}
	if acc.DisplayName == "" {
		acc.DisplayName = acc.Username
	}
	if err := s.accounts.CreateAccount(ctx, acc); err != nil {
		if errors.Is(err, account.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": errAccountTaken.Error()})
			return
		}
		s.writeError(c, err)
		return
	}

	if err := s.engine.SendVerification(ctx, acc.ID); err != nil {
		s.logger.WarnContext(ctx, "verification_issue_failed",
			slog.String("account_id", acc.ID),
			slog.String("err", err.Error()),
		)
	}
	c.JSON(http.StatusCreated, gin.H{"id": acc.ID})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	pair, err := s.engine.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	pair, err := s.engine.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (s *Server) logout(c *gin.Context) {
	res, ok := middleware.GinAuthResult(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := s.engine.Logout(c.Request.Context(), res.AccountID); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// forgotPassword answers 202 whether or not the email is known.
func (s *Server) forgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := s.engine.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "if the account exists, a reset link has been sent"})
}

func (s *Server) resetPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := s.engine.ConfirmPasswordReset(c.Request.Context(), req.Token, req.Password); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) verifyEmail(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := s.engine.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) resendVerification(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := s.engine.ResendVerification(c.Request.Context(), req.Email); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "if the account needs verification, a link has been sent"})
}

// me reads the profile from the store, not from token claims.
func (s *Server) me(c *gin.Context) {
	res, ok := middleware.GinAuthResult(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ctx := c.Request.Context()

	acc, err := s.accounts.AccountByID(ctx, res.AccountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		s.writeError(c, err)
		return
	}
	out := accountResponse{
		ID:            acc.ID,
		Username:      acc.Username,
		Email:         acc.Email,
		DisplayName:   acc.DisplayName,
		Role:          acc.Role,
		EmailVerified: acc.EmailVerified,
	}

	mute, err := s.engine.MuteStatus(ctx, acc.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if mute != nil {
		until := mute.ExpiresAt
		out.MutedUntil = &until
	}
	c.JSON(http.StatusOK, out)
}

func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}
