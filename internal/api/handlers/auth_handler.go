package handlers

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"agriconnect/backend/internal/auth"
	"agriconnect/backend/internal/config"
	"agriconnect/backend/internal/models"
	"agriconnect/backend/internal/services"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	userService services.IUserService
	cfg         *config.Config
	passwordRe  *regexp.Regexp
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userService services.IUserService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		cfg:         cfg,
		passwordRe:  regexp.MustCompile(cfg.PasswordRegexp),
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// Register handles POST /v1/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid registration payload: " + err.Error()})
		return
	}
	if !models.IsValidRole(models.Role(req.Role)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be one of user, vendor, farmer"})
		return
	}
	if !h.passwordRe.MatchString(req.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password does not meet requirements"})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Name, req.Email, req.Password, models.Role(req.Role))
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email address already registered"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
		return
	}

	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /v1/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid login payload: " + err.Error()})
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		case errors.Is(err, services.ErrUserSuspended):
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is suspended"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		}
		return
	}

	token, err := auth.GenerateJWT(user.ID, string(user.Role), user.IsAdmin, h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
