package handlers

import (
	"net/http"
	"time"

	"recanto_verde_backend/internal/middleware"
	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/internal/services"
	"recanto_verde_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

// CreateOrder opens an order for the calling waiter. Only a superadmin may
// open it on behalf of another waiter.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "CreateOrder", err)
		return
	}
	if req.WaiterID != nil && c.GetString(middleware.ContextUserRole) != models.RoleSuperadmin {
		req.WaiterID = nil
	}

	createdOrder, err := h.orderService.CreateOrder(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, "CreateOrder: Error from orderService.CreateOrder", err, "Failed to create order.")
		return
	}
	c.JSON(http.StatusCreated, createdOrder)
}

// bindOrderFilters reads the list query and applies paging defaults.
func bindOrderFilters(c *gin.Context) (models.OrderFilters, bool) {
	var filters models.OrderFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return filters, false
	}
	if filters.Date != nil {
		if _, err := time.Parse("2006-01-02", *filters.Date); err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid date format. Use YYYY-MM-DD.", err.Error()))
			return filters, false
		}
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = defaultPageSize
	}
	if filters.PageSize > maxPageSize {
		filters.PageSize = maxPageSize
	}
	return filters, true
}

func (h *OrderHandler) respondOrderList(c *gin.Context, filters models.OrderFilters) {
	orders, totalCount, err := h.orderService.GetOrders(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, "GetOrders: Error from orderService.GetOrders", err, "Failed to fetch orders.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      orders,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetOrders handles fetching all orders with filters
func (h *OrderHandler) GetOrders(c *gin.Context) {
	filters, ok := bindOrderFilters(c)
	if !ok {
		return
	}
	h.respondOrderList(c, filters)
}

func (h *OrderHandler) GetOrdersByTable(c *gin.Context) {
	tableID, ok := parseIDParam(c, "tableId")
	if !ok {
		return
	}
	filters, ok := bindOrderFilters(c)
	if !ok {
		return
	}
	filters.TableID = &tableID
	h.respondOrderList(c, filters)
}

func (h *OrderHandler) GetActiveOrders(c *gin.Context) {
	filters, ok := bindOrderFilters(c)
	if !ok {
		return
	}
	active := string(models.OrderStatusActive)
	filters.Status = &active
	h.respondOrderList(c, filters)
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrderByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "GetOrderByID: Error from orderService.GetOrderByID", err, "Failed to fetch order.")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "UpdateOrder", err)
		return
	}
	order, err := h.orderService.UpdateOrder(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, "UpdateOrder: Error from orderService.UpdateOrder", err, "Failed to update order.")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "UpdateOrderStatus", err)
		return
	}
	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, "UpdateOrderStatus: Error from orderService.UpdateOrderStatus", err, "Failed to update order status.")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateItemStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}
	var req services.UpdateItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "UpdateItemStatus", err)
		return
	}
	order, err := h.orderService.UpdateItemStatus(c.Request.Context(), id, itemID, req)
	if err != nil {
		respondServiceError(c, "UpdateItemStatus: Error from orderService.UpdateItemStatus", err, "Failed to update item status.")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) RequestPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.RequestPayment(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "RequestPayment: Error from orderService.RequestPayment", err, "Failed to request payment.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment requested", "order": order})
}

func (h *OrderHandler) UpdatePayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "UpdatePayment", err)
		return
	}
	order, err := h.orderService.UpdatePayment(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, "UpdatePayment: Error from orderService.UpdatePayment", err, "Failed to update payment.")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.orderService.DeleteOrder(c.Request.Context(), id); err != nil {
		respondServiceError(c, "DeleteOrder: Error from orderService.DeleteOrder", err, "Failed to delete order.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}
