package handlers

import (
	"net/http"

	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/internal/services"
	"recanto_verde_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// MenuHandler holds the menu service.
type MenuHandler struct {
	menuService services.MenuService
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(ms services.MenuService) *MenuHandler {
	return &MenuHandler{menuService: ms}
}

func (h *MenuHandler) CreateMenuItem(c *gin.Context) {
	var req services.CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "CreateMenuItem", err)
		return
	}
	item, err := h.menuService.CreateMenuItem(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "CreateMenuItem: Error from menuService.CreateMenuItem", err, "Failed to create menu item.")
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *MenuHandler) GetMenuItems(c *gin.Context) {
	var filters models.MenuFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	items, err := h.menuService.GetMenuItems(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, "GetMenuItems: Error from menuService.GetMenuItems", err, "Failed to fetch menu.")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *MenuHandler) GetMenuItemByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	item, err := h.menuService.GetMenuItemByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetMenuItemByID: Error from menuService.GetMenuItemByID", err, "Failed to fetch menu item.")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) UpdateMenuItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "UpdateMenuItem", err)
		return
	}
	item, err := h.menuService.UpdateMenuItem(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, "UpdateMenuItem: Error from menuService.UpdateMenuItem", err, "Failed to update menu item.")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) DeleteMenuItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.menuService.DeleteMenuItem(c.Request.Context(), id); err != nil {
		respondServiceError(c, "DeleteMenuItem: Error from menuService.DeleteMenuItem", err, "Failed to delete menu item.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted successfully"})
}
