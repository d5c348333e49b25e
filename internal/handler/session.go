package handler

import (
	"net/http"

	"github.com/civicreport/api/internal/middleware"
	"github.com/civicreport/api/internal/session"
	"github.com/gin-gonic/gin"
)

// SessionHandler exposes page and tab navigation. The server decides what
// the caller may see; clients only render the returned state.
type SessionHandler struct{}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

func (h *SessionHandler) Get(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, sess.State())
}

type NavigateRequest struct {
	Page session.Page `json:"page" binding:"required"`
}

func (h *SessionHandler) Navigate(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "page is required"))
		return
	}

	t, err := sess.Navigate(req.Page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transition": t, "state": sess.State()})
}

type SelectTabRequest struct {
	Tab session.Tab `json:"tab" binding:"required"`
}

func (h *SessionHandler) SelectTab(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req SelectTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "tab is required"))
		return
	}

	t, err := sess.SelectTab(req.Tab)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transition": t, "state": sess.State()})
}
