package handlers

import (
	"net/http"

	"recanto_verde_backend/internal/middleware"
	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/internal/services"
	"recanto_verde_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// UserHandler manages staff accounts.
type UserHandler struct {
	userService services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us services.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

func (h *UserHandler) GetUsers(c *gin.Context) {
	var filters models.UserFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	users, err := h.userService.GetUsers(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, "GetUsers: Error from userService.GetUsers", err, "Failed to fetch users.")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.GetUserByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetUserByID: Error from userService.GetUserByID", err, "Failed to fetch user.")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "UpdateUser", err)
		return
	}
	user, err := h.userService.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, "UpdateUser: Error from userService.UpdateUser", err, "Failed to update user.")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if c.GetInt64(middleware.ContextUserID) == id {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "You cannot delete your own account.", ""))
		return
	}
	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		respondServiceError(c, "DeleteUser: Error from userService.DeleteUser", err, "Failed to delete user.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
