package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MustafaxCmrt/Social-Network-sub000/auth"
	"github.com/MustafaxCmrt/Social-Network-sub000/middleware"
)

type sanctionRequest struct {
	Reason    string     `json:"reason" binding:"required"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type statusResponse struct {
	Allowed     bool       `json:"allowed"`
	Reason      string     `json:"reason,omitempty"`
	BannedUntil *time.Time `json:"banned_until,omitempty"`
	Permanent   bool       `json:"permanent_ban,omitempty"`
	MutedUntil  *time.Time `json:"muted_until,omitempty"`
}

func actorID(c *gin.Context) string {
	if res, ok := middleware.GinAuthResult(c); ok {
		return res.AccountID
	}
	return ""
}

// ban creates a ban. Omitting expires_at bans permanently.
func (s *Server) ban(c *gin.Context) {
	var req sanctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	ban, err := s.engine.BanAccount(c.Request.Context(), auth.BanRequest{
		AccountID: c.Param("id"),
		ActorID:   actorID(c),
		Reason:    req.Reason,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": ban.ID, "expires_at": ban.ExpiresAt})
}

func (s *Server) unban(c *gin.Context) {
	lifted, err := s.engine.UnbanAccount(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lifted": lifted})
}

// mute requires expires_at.
func (s *Server) mute(c *gin.Context) {
	var req sanctionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ExpiresAt == nil {
		badRequest(c)
		return
	}

	mute, err := s.engine.MuteAccount(c.Request.Context(), auth.MuteRequest{
		AccountID: c.Param("id"),
		ActorID:   actorID(c),
		Reason:    req.Reason,
		ExpiresAt: *req.ExpiresAt,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": mute.ID, "expires_at": mute.ExpiresAt})
}

func (s *Server) unmute(c *gin.Context) {
	lifted, err := s.engine.UnmuteAccount(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lifted": lifted})
}

func (s *Server) revokeSessions(c *gin.Context) {
	if err := s.engine.RevokeSessions(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) status(c *gin.Context) {
	d, err := s.engine.Evaluate(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	out := statusResponse{Allowed: d.Allowed, Reason: d.Reason}
	if d.Ban != nil {
		out.BannedUntil = d.Ban.ExpiresAt
		out.Permanent = d.Ban.Permanent()
	}
	if d.Mute != nil {
		until := d.Mute.ExpiresAt
		out.MutedUntil = &until
	}
	c.JSON(http.StatusOK, out)
}
