package handlers

import (
	"net/http"

	"recanto_verde_backend/internal/services"
	"recanto_verde_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// RegisterUser handles user registration. Only a superadmin reaches it.
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req services.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "RegisterUser", err)
		return
	}

	user, err := h.authService.RegisterUser(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "RegisterUser: Error from authService.RegisterUser", err, "Failed to register user.")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// LoginUser handles user login.
func (h *AuthHandler) LoginUser(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "LoginUser", err)
		return
	}

	authResp, err := h.authService.LoginUser(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "LoginUser: Error from authService.LoginUser", err, "Failed to login.")
		return
	}
	utils.LogInfo("User logged in", map[string]interface{}{"user_id": authResp.User.ID, "role": authResp.User.Role})
	c.JSON(http.StatusOK, authResp)
}

// GetCurrentUser retrieves the profile of the currently authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUserProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, "GetCurrentUser: Error from authService.GetUserProfile", err, "Failed to retrieve user profile.")
		return
	}
	c.JSON(http.StatusOK, user)
}

// LogoutUser exists for client symmetry. Tokens are stateless, so the
// client discards its token and nothing is revoked server side.
func (h *AuthHandler) LogoutUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
