package router

import (
	"recanto_verde_backend/internal/handlers"
	"recanto_verde_backend/internal/middleware"
	"recanto_verde_backend/internal/models"

	"github.com/gin-gonic/gin"
)

var (
	staffRoles = []string{models.RoleSuperadmin, models.RoleWaiter}
	adminOnly  = []string{models.RoleSuperadmin}
)

// SetupAuthRoutes sets up the authentication routes. loginLimit guards the
// only unauthenticated endpoint.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler, loginLimit gin.HandlerFunc) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/login", loginLimit, authHandler.LoginUser)

		authRequiredRoutes := authRoutes.Group("")
		authRequiredRoutes.Use(middleware.AuthMiddleware())
		{
			authRequiredRoutes.GET("/me", authHandler.GetCurrentUser)
			authRequiredRoutes.POST("/logout", authHandler.LogoutUser)
			authRequiredRoutes.POST("/register", middleware.RoleAuthMiddleware(adminOnly...), authHandler.RegisterUser)
		}
	}
}

// SetupTableRoutes sets up the floor plan routes. Waiters may change status
// and reshape joins; layout changes are superadmin only.
func SetupTableRoutes(authenticatedGroup *gin.RouterGroup, tableHandler *handlers.TableHandler) {
	tableRoutes := authenticatedGroup.Group("/tables")
	tableRoutes.Use(middleware.RoleAuthMiddleware(staffRoles...))
	{
		tableRoutes.GET("", tableHandler.GetTables)
		tableRoutes.GET("/:id", tableHandler.GetTableByID)
		tableRoutes.PUT("/:id/status", tableHandler.UpdateTableStatus)
		tableRoutes.POST("/join", tableHandler.JoinTables)
		tableRoutes.POST("/unjoin/:id", tableHandler.UnjoinTable)
		tableRoutes.POST("/:id/split", tableHandler.SplitTable)

		adminRoutes := tableRoutes.Group("")
		adminRoutes.Use(middleware.RoleAuthMiddleware(adminOnly...))
		{
			adminRoutes.POST("", tableHandler.CreateTable)
			adminRoutes.PUT("/:id", tableHandler.UpdateTable)
			adminRoutes.DELETE("/:id", tableHandler.DeleteTable)
			adminRoutes.POST("/:id/waiters", tableHandler.AssignWaiters)
		}
	}
}

// SetupMenuRoutes sets up the menu routes.
func SetupMenuRoutes(authenticatedGroup *gin.RouterGroup, menuHandler *handlers.MenuHandler) {
	menuRoutes := authenticatedGroup.Group("/menu")
	menuRoutes.Use(middleware.RoleAuthMiddleware(staffRoles...))
	{
		menuRoutes.GET("", menuHandler.GetMenuItems)
		menuRoutes.GET("/:id", menuHandler.GetMenuItemByID)
		menuRoutes.POST("", middleware.RoleAuthMiddleware(adminOnly...), menuHandler.CreateMenuItem)
		menuRoutes.PUT("/:id", middleware.RoleAuthMiddleware(adminOnly...), menuHandler.UpdateMenuItem)
		menuRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(adminOnly...), menuHandler.DeleteMenuItem)
	}
}

// SetupOrderRoutes sets up the order routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	orderRoutes.Use(middleware.RoleAuthMiddleware(staffRoles...))
	{
		orderRoutes.POST("", orderHandler.CreateOrder)
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/table/:tableId", orderHandler.GetOrdersByTable)
		orderRoutes.GET("/status/active", orderHandler.GetActiveOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.PUT("/:id", orderHandler.UpdateOrder)
		orderRoutes.PUT("/:id/status", orderHandler.UpdateOrderStatus)
		orderRoutes.PUT("/:id/items/:itemId/status", orderHandler.UpdateItemStatus)
		orderRoutes.POST("/:id/request-payment", orderHandler.RequestPayment)
		orderRoutes.PUT("/:id/payment", middleware.RoleAuthMiddleware(adminOnly...), orderHandler.UpdatePayment)
		orderRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(adminOnly...), orderHandler.DeleteOrder)
	}
}

// SetupPaymentRoutes sets up the payment record routes.
func SetupPaymentRoutes(authenticatedGroup *gin.RouterGroup, paymentHandler *handlers.PaymentHandler) {
	paymentRoutes := authenticatedGroup.Group("/payments")
	paymentRoutes.Use(middleware.RoleAuthMiddleware(adminOnly...))
	{
		paymentRoutes.GET("", paymentHandler.GetPayments)
		paymentRoutes.DELETE("/:id", paymentHandler.DeletePayment)
	}
}

// SetupUserRoutes sets up the staff account routes.
func SetupUserRoutes(authenticatedGroup *gin.RouterGroup, userHandler *handlers.UserHandler) {
	userRoutes := authenticatedGroup.Group("/users")
	userRoutes.Use(middleware.RoleAuthMiddleware(adminOnly...))
	{
		userRoutes.GET("", userHandler.GetUsers)
		userRoutes.GET("/:id", userHandler.GetUserByID)
		userRoutes.PUT("/:id", userHandler.UpdateUser)
		userRoutes.DELETE("/:id", userHandler.DeleteUser)
	}
}

// SetupAnalyticsRoutes sets up the dashboard routes.
func SetupAnalyticsRoutes(authenticatedGroup *gin.RouterGroup, analyticsHandler *handlers.AnalyticsHandler) {
	analyticsRoutes := authenticatedGroup.Group("/analytics")
	analyticsRoutes.Use(middleware.RoleAuthMiddleware(adminOnly...))
	{
		analyticsRoutes.GET("/summary", analyticsHandler.GetSummary)
		analyticsRoutes.GET("/waiters", analyticsHandler.GetWaiterRanking)
		analyticsRoutes.GET("/menu/popular", analyticsHandler.GetPopularItems)
	}
}
