package handler

import (
	"net/http"

	"voicepods/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// GetVoiceStat returns the cumulative voice-time aggregate for one user in
// one community. Users with no finalized sessions read as zeros.
func (h *Handler) GetVoiceStat(c *gin.Context) {
	userID := c.Param("userID")
	communityID := c.Param("communityID")

	stat, err := h.Storage.GetVoiceStat(userID, communityID)
	if err == storage.ErrNotFound {
		c.JSON(http.StatusOK, gin.H{
			"user_id":       userID,
			"community_id":  communityID,
			"total_seconds": 0,
			"session_count": 0,
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stat lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":       stat.UserID,
		"community_id":  stat.CommunityID,
		"total_seconds": stat.TotalSeconds,
		"session_count": stat.SessionCount,
	})
}

// GetPod returns the tracked state of one pod for inspection.
func (h *Handler) GetPod(c *gin.Context) {
	pod, err := h.Storage.GetPodByRoomID(c.Param("roomID"))
	if err == storage.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "pod not tracked"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "pod lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room_id":                 pod.RoomID,
		"community_id":            pod.CommunityID,
		"owner_id":                pod.OwnerID,
		"original_owner_id":       pod.OriginalOwnerID,
		"owner_left_at":           pod.OwnerLeftAt,
		"reclaim_request_pending": pod.ReclaimRequestPending,
	})
}
