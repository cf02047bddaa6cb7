package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vkozak/product-catalog/internal/repository"
	"github.com/vkozak/product-catalog/internal/service"
)

// AuthController handles HTTP requests for registration and login.
type AuthController struct {
	authService *service.AuthService
}

// NewAuthController creates a new AuthController with the given auth service.
func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

// CredentialsRequest represents the request body for register and login.
type CredentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register handles the HTTP POST request for creating a new user account.
func (ac *AuthController) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingErrorResponse(c, err)
		return
	}

	user, err := ac.authService.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		var uniqueErr *repository.UniqueConstraintError
		if errors.As(err, &uniqueErr) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"username": []string{"username already taken"}}})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       user.ID.String(),
		"username": user.Username,
	})
}

// Login handles the HTTP POST request for exchanging credentials for a token.
func (ac *AuthController) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingErrorResponse(c, err)
		return
	}

	token, err := ac.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
