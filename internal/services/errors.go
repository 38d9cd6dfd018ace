package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Tables
	ErrTableNotFound        = errors.New("table not found")
	ErrDuplicateTableNumber = errors.New("table number already in use")
	ErrTablesUnavailable    = errors.New("tables not available")
	ErrMixedSections        = errors.New("tables must be in the same section")
	ErrNotEnoughTables      = errors.New("at least two distinct tables are required")
	ErrNotJoined            = errors.New("table is not the main table of a join")
	ErrNotJoinMember        = errors.New("table is not a member of this join")
	ErrTableNotAvailable    = errors.New("table is not available")
	ErrTableHasOrder        = errors.New("table has an open order")
	ErrTableJoined          = errors.New("table is part of a join")
	ErrInvalidTableStatus   = errors.New("invalid table status")

	// Menu
	ErrMenuItemNotFound    = errors.New("menu item not found")
	ErrMenuItemUnavailable = errors.New("menu item is not available")
	ErrMenuItemInUse       = errors.New("menu item is referenced by orders")

	// Orders and payments
	ErrOrderNotFound            = errors.New("order not found")
	ErrOrderClosed              = errors.New("order is already completed or cancelled")
	ErrInvalidOrderStatus       = errors.New("invalid order status")
	ErrOrderItemNotFound        = errors.New("order item not found")
	ErrInvalidItemStatus        = errors.New("invalid order item status")
	ErrInvalidPaymentStatus     = errors.New("invalid payment status")
	ErrInvalidPaymentTransition = errors.New("payment status transition not allowed")
	ErrEmptyOrder               = errors.New("order must contain at least one item")
	ErrOrderNotActive           = errors.New("order is not active")

	// Users and auth
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidWaiter      = errors.New("waiter not found or inactive")
	ErrUserInUse          = errors.New("user is referenced by orders")
	ErrInvalidUserUpdate  = errors.New("invalid user update")
)

// TablesUnavailableError names the tables that blocked a join.
type TablesUnavailableError struct {
	TableNumbers []int
}

func (e *TablesUnavailableError) Error() string {
	numbers := make([]string, len(e.TableNumbers))
	for i, n := range e.TableNumbers {
		numbers[i] = fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s: %s", ErrTablesUnavailable, strings.Join(numbers, ", "))
}

func (e *TablesUnavailableError) Is(target error) bool {
	return target == ErrTablesUnavailable
}
