package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"agriconnect/backend/internal/api/middleware"
	"agriconnect/backend/internal/services"
	"agriconnect/backend/internal/tasks"
)

// currentUserID extracts the authenticated user's ObjectID from the Gin
// context. Aborts with 401 when missing or malformed.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	idHex := c.GetString(middleware.ContextKeyUserID)
	if idHex == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user identity"})
		return primitive.NilObjectID, false
	}
	return userID, true
}

// parseObjectIDParam parses a path parameter as an ObjectID, responding 400
// on failure.
func parseObjectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " format"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// respondServiceError maps lifecycle service errors to HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrSelfRequest):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyProcessed), errors.Is(err, services.ErrAlreadyConfirmed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrQuotaExceeded), errors.Is(err, services.ErrBlocked):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidQuantity), errors.Is(err, services.ErrInvalidResolutionStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// enqueueNotification schedules a notification email. Best-effort: a full
// queue or missing client never fails the API response.
func enqueueNotification(client *asynq.Client, payload tasks.EmailTaskPayload) {
	if client == nil || payload.To == "" {
		return
	}
	task, err := tasks.NewEmailDeliveryTask(payload)
	if err != nil {
		log.Printf("WARN: failed to build notification task for %s: %v", payload.To, err)
		return
	}
	if _, err := client.Enqueue(task); err != nil {
		log.Printf("WARN: failed to enqueue notification for %s: %v", payload.To, err)
	}
}
