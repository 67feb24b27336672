package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agriconnect/backend/internal/services"
)

// ActivityHandler exposes the authenticated user's audit feed.
type ActivityHandler struct {
	activityService services.IActivityService
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(activityService services.IActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// ListMyActivity handles GET /v1/activity
func (h *ActivityHandler) ListMyActivity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	entries, err := h.activityService.FindByActor(c.Request.Context(), userID, listLimit(c))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load activity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}
