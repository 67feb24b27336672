package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"agriconnect/backend/internal/services"
)

// ProductHandler handles REST requests for the product catalogue.
type ProductHandler struct {
	productService services.IProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService services.IProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

type createProductRequest struct {
	Name                 string  `json:"name" binding:"required"`
	Description          string  `json:"description"`
	Category             string  `json:"category" binding:"required"`
	Unit                 string  `json:"unit" binding:"required"`
	PricePerUnit         float64 `json:"price_per_unit" binding:"required,gt=0"`
	MinimumOrderQuantity float64 `json:"minimum_order_quantity" binding:"required,gt=0"`
	AvailableQuantity    float64 `json:"available_quantity" binding:"gte=0"`
}

// CreateProduct handles POST /v1/product
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product payload: " + err.Error()})
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), farmerID,
		req.Name, req.Description, req.Category, req.Unit,
		req.PricePerUnit, req.MinimumOrderQuantity, req.AvailableQuantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GetProductByID handles GET /v1/product/:id
func (h *ProductHandler) GetProductByID(c *gin.Context) {
	productID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.FindProductByID(c.Request.Context(), productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// SearchProducts handles GET /v1/product/search
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	category := c.Query("category")
	query := c.Query("q")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	products, err := h.productService.SearchProducts(c.Request.Context(), category, query, limit, offset)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": products})
}

// UpdateProduct handles PUT /v1/product/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update payload: " + err.Error()})
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), productID, farmerID, updates)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /v1/product/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), productID, farmerID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
