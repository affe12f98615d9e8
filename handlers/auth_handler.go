package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Novicer18/lexadvisor/middleware"
	"github.com/Novicer18/lexadvisor/policy"
	"github.com/Novicer18/lexadvisor/service"
)

// AuthHandler handles HTTP requests for authentication
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignUpRequest represents the request body for sign-up
type SignUpRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

// SignUp handles POST /api/auth/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.authService.SignUp(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		status := http.StatusInternalServerError
		code := "SIGNUP_FAILED"
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			status, code = http.StatusConflict, "EMAIL_TAKEN"
		case errors.Is(err, service.ErrWeakPassword):
			status, code = http.StatusBadRequest, "WEAK_PASSWORD"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result,
	})
}

// SignInRequest represents the request body for sign-in
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignIn handles POST /api/auth/signin
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_CREDENTIALS",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SIGNIN_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// SignOut handles POST /api/auth/signout
func (h *AuthHandler) SignOut(c *gin.Context) {
	ident := middleware.IdentityFrom(c)
	if ident != nil {
		h.authService.SignOut(c.Request.Context(), ident.UserID)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me handles GET /api/auth/me: the session state plus the navigation entries
// the caller's role may reach.
func (h *AuthHandler) Me(c *gin.Context) {
	ident := middleware.IdentityFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"identity":   ident,
			"navigation": policy.NavigationFor(ident.Role),
		},
	})
}
