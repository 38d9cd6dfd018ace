package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"recanto_verde_backend/internal/middleware"
	"recanto_verde_backend/internal/services"
	"recanto_verde_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// serviceErrors maps service sentinels to responses; the first match wins.
var serviceErrors = []errorMapping{
	{services.ErrTableNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Table not found."},
	{services.ErrMenuItemNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Menu item not found."},
	{services.ErrOrderNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Order not found."},
	{services.ErrOrderItemNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Order item not found."},
	{services.ErrUserNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "User not found."},

	{services.ErrDuplicateTableNumber, http.StatusConflict, utils.ErrCodeConflict, "Table number already exists."},
	{services.ErrEmailTaken, http.StatusConflict, utils.ErrCodeConflict, "Email already exists."},
	{services.ErrTableHasOrder, http.StatusConflict, utils.ErrCodeConflict, "Table already has an open order."},
	{services.ErrTableJoined, http.StatusConflict, utils.ErrCodeConflict, "Table is part of a join."},
	{services.ErrMenuItemInUse, http.StatusConflict, utils.ErrCodeConflict, "Menu item is referenced by orders."},
	{services.ErrUserInUse, http.StatusConflict, utils.ErrCodeConflict, "User is referenced by orders."},
	{services.ErrOrderClosed, http.StatusConflict, utils.ErrCodeConflict, "Order is already closed."},
	{services.ErrInvalidPaymentTransition, http.StatusConflict, utils.ErrCodeConflict, "Payment status change not allowed."},

	{services.ErrTablesUnavailable, http.StatusBadRequest, utils.ErrCodeBadRequest, "Some tables are not available."},
	{services.ErrMixedSections, http.StatusBadRequest, utils.ErrCodeBadRequest, "Tables must be in the same section."},
	{services.ErrNotEnoughTables, http.StatusBadRequest, utils.ErrCodeBadRequest, "At least two tables are required."},
	{services.ErrNotJoined, http.StatusBadRequest, utils.ErrCodeBadRequest, "Table is not joined."},
	{services.ErrNotJoinMember, http.StatusBadRequest, utils.ErrCodeBadRequest, "Table is not part of this join."},
	{services.ErrTableNotAvailable, http.StatusBadRequest, utils.ErrCodeBadRequest, "Table is not available."},
	{services.ErrMenuItemUnavailable, http.StatusBadRequest, utils.ErrCodeBadRequest, "Menu item is not available."},
	{services.ErrOrderNotActive, http.StatusBadRequest, utils.ErrCodeBadRequest, "Order is not active."},
	{services.ErrInvalidWaiter, http.StatusBadRequest, utils.ErrCodeBadRequest, "Waiter not found or inactive."},

	{services.ErrInvalidTableStatus, http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table status."},
	{services.ErrInvalidOrderStatus, http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order status."},
	{services.ErrInvalidItemStatus, http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid item status."},
	{services.ErrInvalidPaymentStatus, http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid payment status."},
	{services.ErrEmptyOrder, http.StatusBadRequest, utils.ErrCodeValidationFailed, "Order items are invalid."},
	{services.ErrInvalidRole, http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid role."},
	{services.ErrInvalidMenuItem, http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid menu item."},
	{services.ErrInvalidUserUpdate, http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid user update."},

	{services.ErrInvalidCredentials, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid email or password."},
	{services.ErrUserInactive, http.StatusForbidden, utils.ErrCodeForbidden, "User account is inactive."},
}

// respondServiceError writes the mapped error, or a logged 500 for anything
// unknown. fallback is the message of the 500.
func respondServiceError(c *gin.Context, op string, err error, fallback string) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			utils.LogDebug(op+": request rejected", map[string]interface{}{"error": err.Error()})
			utils.RespondWithError(c, utils.NewAPIError(m.status, m.code, m.message, err.Error()))
			return
		}
	}
	utils.LogError(err, op, map[string]interface{}{"request_id": c.GetString(middleware.ContextRequestID)})
	utils.RespondInternalError(c, fallback)
}

func respondBindError(c *gin.Context, op string, err error) {
	utils.LogDebug(op+": failed to bind JSON", map[string]interface{}{"error": err.Error()})
	utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
}

// parseIDParam reads a positive int64 path parameter or responds 400.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := utils.StrToInt64(c.Param(name))
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}

func currentUserID(c *gin.Context) (int64, bool) {
	userID := c.GetInt64(middleware.ContextUserID)
	if userID == 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return 0, false
	}
	return userID, true
}

// queryLimit reads ?limit=, returning 0 when absent.
func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		utils.RespondValidationFailed(c, "limit must be a positive integer")
		return 0, false
	}
	return limit, true
}
