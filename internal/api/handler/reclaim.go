package handler

import (
	"errors"
	"net/http"

	"voicepods/backend/internal/podhub"

	"github.com/gin-gonic/gin"
)

// AcceptReclaim resolves a reclaim prompt in the requester's favor. The
// caller is identified by JWT and validated inside the hub against the
// current pod row, never against what the prompt captured.
func (h *Handler) AcceptReclaim(c *gin.Context) {
	h.answerReclaim(c, h.Hub.AcceptReclaim)
}

// DenyReclaim resolves a reclaim prompt without an ownership change.
func (h *Handler) DenyReclaim(c *gin.Context) {
	h.answerReclaim(c, h.Hub.DenyReclaim)
}

func (h *Handler) answerReclaim(c *gin.Context, verb func(promptID, callerID string) error) {
	callerID, err := callerFromToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	promptID := c.Param("promptID")
	if err := verb(promptID, callerID); err != nil {
		switch {
		case errors.Is(err, podhub.ErrPromptExpired), errors.Is(err, podhub.ErrStalePrompt):
			c.JSON(http.StatusGone, gin.H{"error": err.Error()})
		case errors.Is(err, podhub.ErrNotCurrentOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reclaim failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
