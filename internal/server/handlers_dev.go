package server

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
)

const devMailboxPath = "/dev/mailbox"

// devMailbox returns the newest tokens sent to ?email=. Only the socket peer
// address is checked; forwarding headers are ignored.
func (s *Server) devMailbox(c *gin.Context) {
	if ip := net.ParseIP(c.RemoteIP()); ip == nil || !ip.IsLoopback() {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	email := c.Query("email")
	if email == "" {
		badRequest(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": s.mailbox.Messages(email)})
}
