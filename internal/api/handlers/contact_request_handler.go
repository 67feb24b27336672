package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"agriconnect/backend/internal/api/middleware"
	"agriconnect/backend/internal/email"
	"agriconnect/backend/internal/models"
	"agriconnect/backend/internal/services"
	"agriconnect/backend/internal/tasks"
)

// ContactRequestHandler handles the contact request lifecycle endpoints.
type ContactRequestHandler struct {
	requestService services.IContactRequestService
	userService    services.IUserService
	taskClient     *asynq.Client // Nil when no background worker is wired (tests)
}

// NewContactRequestHandler creates a new ContactRequestHandler.
func NewContactRequestHandler(requestService services.IContactRequestService, userService services.IUserService, taskClient *asynq.Client) *ContactRequestHandler {
	return &ContactRequestHandler{
		requestService: requestService,
		userService:    userService,
		taskClient:     taskClient,
	}
}

type createContactRequestRequest struct {
	ProductID         string  `json:"product_id" binding:"required"`
	RequestedQuantity float64 `json:"requested_quantity" binding:"required"`
}

// CreateRequest handles POST /v1/request
func (h *ContactRequestHandler) CreateRequest(c *gin.Context) {
	requesterID, ok := currentUserID(c)
	if !ok {
		return
	}
	role := models.Role(c.GetString(middleware.ContextKeyUserRole))

	var req createContactRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product_id format"})
		return
	}

	request, err := h.requestService.CreateRequest(c.Request.Context(), requesterID, role, productID, req.RequestedQuantity, c.ClientIP())
	if err != nil {
		// Duplicate creates surface the existing pending request
		if errors.Is(err, services.ErrDuplicatePending) && request != nil {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "A pending request already exists for this product",
				"request": request,
			})
			return
		}
		respondServiceError(c, err)
		return
	}

	h.notify(c, request.FarmerID, email.NotifRequestReceived, request)
	c.JSON(http.StatusCreated, request)
}

// ListMyRequests handles GET /v1/request/mine
func (h *ContactRequestHandler) ListMyRequests(c *gin.Context) {
	requesterID, ok := currentUserID(c)
	if !ok {
		return
	}

	requests, err := h.requestService.FindRequestsByRequester(c.Request.Context(), requesterID, listLimit(c))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": requests})
}

// ListIncomingRequests handles GET /v1/request/incoming
func (h *ContactRequestHandler) ListIncomingRequests(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}

	requests, err := h.requestService.FindRequestsByFarmer(c.Request.Context(), farmerID, listLimit(c))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": requests})
}

// GetRequestByID handles GET /v1/request/:id. Only the parties involved (or
// an admin) may read a request.
func (h *ContactRequestHandler) GetRequestByID(c *gin.Context) {
	callerID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	request, err := h.requestService.FindRequestByID(c.Request.Context(), requestID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	isAdmin := c.GetBool(middleware.ContextKeyIsAdmin)
	if !isAdmin && request.RequesterID != callerID && request.FarmerID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a party to this request"})
		return
	}

	c.JSON(http.StatusOK, request)
}

// AcceptRequest handles POST /v1/request/:id/accept
func (h *ContactRequestHandler) AcceptRequest(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	request, err := h.requestService.AcceptRequest(c.Request.Context(), farmerID, requestID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.notify(c, request.RequesterID, email.NotifRequestAccepted, request)
	c.JSON(http.StatusOK, request)
}

// RejectRequest handles POST /v1/request/:id/reject
func (h *ContactRequestHandler) RejectRequest(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	request, err := h.requestService.RejectRequest(c.Request.Context(), farmerID, requestID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.notify(c, request.RequesterID, email.NotifRequestRejected, request)
	c.JSON(http.StatusOK, request)
}

type confirmRequest struct {
	DidBuy        *bool   `json:"did_buy" binding:"required"`
	FinalQuantity float64 `json:"final_quantity"`
	FinalPrice    float64 `json:"final_price"`
	Feedback      string  `json:"feedback"`
}

func (r *confirmRequest) toConfirmation() services.Confirmation {
	return services.Confirmation{
		DidBuy:        *r.DidBuy,
		FinalQuantity: r.FinalQuantity,
		FinalPrice:    r.FinalPrice,
		Feedback:      r.Feedback,
	}
}

// ConfirmAsRequester handles POST /v1/request/:id/confirm
func (h *ContactRequestHandler) ConfirmAsRequester(c *gin.Context) {
	requesterID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid confirmation payload: " + err.Error()})
		return
	}

	request, err := h.requestService.ConfirmAsRequester(c.Request.Context(), requesterID, requestID, req.toConfirmation())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// ConfirmAsFarmer handles POST /v1/request/:id/confirm-farmer
func (h *ContactRequestHandler) ConfirmAsFarmer(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid confirmation payload: " + err.Error()})
		return
	}

	request, err := h.requestService.ConfirmAsFarmer(c.Request.Context(), farmerID, requestID, req.toConfirmation())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// notify looks up the recipient and enqueues a lifecycle notification email.
// Best-effort end to end.
func (h *ContactRequestHandler) notify(c *gin.Context, recipientID primitive.ObjectID, kind string, request *models.ContactRequest) {
	if h.taskClient == nil {
		return
	}
	recipient, err := h.userService.FindUserByID(c.Request.Context(), recipientID)
	if err != nil {
		return
	}
	enqueueNotification(h.taskClient, tasks.EmailTaskPayload{
		To:   recipient.Email,
		Kind: kind,
		Data: map[string]string{"request_id": request.ID.Hex()},
	})
}

func listLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
