package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"agriconnect/backend/internal/email"
	"agriconnect/backend/internal/models"
	"agriconnect/backend/internal/services"
	"agriconnect/backend/internal/tasks"
)

// AdminHandler handles administrative endpoints. All routes assume the admin
// middleware ran first.
type AdminHandler struct {
	requestService services.IContactRequestService
	userService    services.IUserService
	taskClient     *asynq.Client
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(requestService services.IContactRequestService, userService services.IUserService, taskClient *asynq.Client) *AdminHandler {
	return &AdminHandler{
		requestService: requestService,
		userService:    userService,
		taskClient:     taskClient,
	}
}

// ListDisputedRequests handles GET /v1/admin/request/disputed
func (h *AdminHandler) ListDisputedRequests(c *gin.Context) {
	requests, err := h.requestService.ListDisputedRequests(c.Request.Context(), listLimit(c))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list disputed requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": requests})
}

type resolveDisputeRequest struct {
	FinalStatus string `json:"final_status" binding:"required"`
	AdminNote   string `json:"admin_note"`
}

// ResolveDispute handles POST /v1/admin/request/:id/resolve
func (h *AdminHandler) ResolveDispute(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var req resolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resolution payload: " + err.Error()})
		return
	}

	request, err := h.requestService.ResolveDispute(c.Request.Context(), adminID, requestID, models.RequestStatus(req.FinalStatus), req.AdminNote)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Both parties hear about the outcome
	h.notifyResolution(c, request.RequesterID, request)
	h.notifyResolution(c, request.FarmerID, request)

	c.JSON(http.StatusOK, request)
}

// TriggerExpirySweep handles POST /v1/admin/request/sweep. The sweep is
// idempotent, so running it on demand alongside the scheduled task is safe.
func (h *AdminHandler) TriggerExpirySweep(c *gin.Context) {
	count, err := h.requestService.ExpireOldRequests(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sweep failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": count})
}

// SuspendUser handles POST /v1/admin/user/:id/suspend
func (h *AdminHandler) SuspendUser(c *gin.Context) {
	userID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.userService.SuspendUser(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "suspended"})
}

// UnsuspendUser handles POST /v1/admin/user/:id/unsuspend
func (h *AdminHandler) UnsuspendUser(c *gin.Context) {
	userID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.userService.UnsuspendUser(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "active"})
}

func (h *AdminHandler) notifyResolution(c *gin.Context, recipientID primitive.ObjectID, request *models.ContactRequest) {
	if h.taskClient == nil {
		return
	}
	recipient, err := h.userService.FindUserByID(c.Request.Context(), recipientID)
	if err != nil {
		return
	}
	enqueueNotification(h.taskClient, tasks.EmailTaskPayload{
		To:   recipient.Email,
		Kind: email.NotifDisputeResolved,
		Data: map[string]string{
			"request_id":   request.ID.Hex(),
			"final_status": string(request.Status),
		},
	})
}
