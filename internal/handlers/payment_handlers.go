package handlers

import (
	"net/http"
	"time"

	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/internal/services"
	"recanto_verde_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PaymentHandler exposes orders as payment records. A payment is the
// payment side of an order; it has no table of its own.
type PaymentHandler struct {
	orderService services.OrderService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(os services.OrderService) *PaymentHandler {
	return &PaymentHandler{orderService: os}
}

type paymentRecord struct {
	OrderID       int64                `json:"order_id"`
	TableID       int64                `json:"table_id"`
	TableNumber   int                  `json:"table_number"`
	WaiterID      int64                `json:"waiter_id"`
	WaiterName    string               `json:"waiter_name"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	PaymentMethod *string              `json:"payment_method,omitempty"`
	OrderStatus   models.OrderStatus   `json:"order_status"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func toPaymentRecord(o models.Order) paymentRecord {
	return paymentRecord{
		OrderID:       o.ID,
		TableID:       o.TableID,
		TableNumber:   o.TableNumber,
		WaiterID:      o.WaiterID,
		WaiterName:    o.WaiterName,
		TotalAmount:   o.TotalAmount,
		PaymentStatus: o.PaymentStatus,
		PaymentMethod: o.PaymentMethod,
		OrderStatus:   o.Status,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// GetPayments lists payment records; ?payment_status= narrows them.
func (h *PaymentHandler) GetPayments(c *gin.Context) {
	filters, ok := bindOrderFilters(c)
	if !ok {
		return
	}
	if filters.PaymentStatus != nil && !models.IsValidPaymentStatus(*filters.PaymentStatus) {
		utils.RespondValidationFailed(c, "payment_status must be pending, paid or refunded")
		return
	}
	orders, totalCount, err := h.orderService.GetOrders(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, "GetPayments: Error from orderService.GetOrders", err, "Failed to fetch payments.")
		return
	}
	records := make([]paymentRecord, 0, len(orders))
	for _, o := range orders {
		records = append(records, toPaymentRecord(o))
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      records,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// DeletePayment hard-deletes the order behind the payment record.
func (h *PaymentHandler) DeletePayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.orderService.DeleteOrder(c.Request.Context(), id); err != nil {
		respondServiceError(c, "DeletePayment: Error from orderService.DeleteOrder", err, "Failed to delete payment.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment deleted successfully"})
}
