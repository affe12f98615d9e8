package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Novicer18/lexadvisor/middleware"
	"github.com/Novicer18/lexadvisor/models"
	"github.com/Novicer18/lexadvisor/service"
)

// AdminHandler handles HTTP requests for user administration and the log viewer
type AdminHandler struct {
	adminService *service.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	ident := middleware.IdentityFrom(c)

	users, err := h.adminService.ListUsers(c.Request.Context(), ident)
	if err != nil {
		status, code := adminErrorStatus(err)
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    users,
	})
}

// ChangeRoleRequest represents the request body for a role change
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ChangeRole handles PUT /api/admin/users/:id/role
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	ident := middleware.IdentityFrom(c)

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid user ID format",
			},
		})
		return
	}

	var req ChangeRoleRequest
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

	if err := h.adminService.ChangeRole(c.Request.Context(), ident, targetID, models.Role(req.Role)); err != nil {
		status, code := adminErrorStatus(err)
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListLogs handles GET /api/admin/logs
func (h *AdminHandler) ListLogs(c *gin.Context) {
	ident := middleware.IdentityFrom(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.adminService.SystemLogs(c.Request.Context(), ident, limit, offset)
	if err != nil {
		status, code := adminErrorStatus(err)
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
	})
}

func adminErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, service.ErrUnknownRole):
		return http.StatusBadRequest, "UNKNOWN_ROLE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
