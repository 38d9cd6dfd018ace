package router

import (
	"database/sql"
	"net/http"

	"recanto_verde_backend/internal/handlers"
	"recanto_verde_backend/internal/middleware"
	"recanto_verde_backend/internal/realtime"
	"recanto_verde_backend/internal/repositories"
	"recanto_verde_backend/internal/repositories/memstore"
	"recanto_verde_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Repositories is the data layer the routes are built on.
type Repositories struct {
	Tables    repositories.TableRepository
	Orders    repositories.OrderRepository
	Menu      repositories.MenuRepository
	Users     repositories.UserRepository
	Analytics repositories.AnalyticsRepository
	Tx        repositories.Transactor
}

// PostgresRepositories wires every repository to db.
func PostgresRepositories(db *sql.DB) Repositories {
	return Repositories{
		Tables:    repositories.NewTableRepository(db),
		Orders:    repositories.NewOrderRepository(db),
		Menu:      repositories.NewMenuRepository(db),
		Users:     repositories.NewUserRepository(db),
		Analytics: repositories.NewAnalyticsRepository(db),
		Tx:        repositories.NewTransactor(db),
	}
}

// MemoryRepositories serves every repository from one in-process store.
func MemoryRepositories(store *memstore.Store) Repositories {
	return Repositories{
		Tables:    store,
		Orders:    store,
		Menu:      store,
		Users:     store,
		Analytics: store,
		Tx:        store,
	}
}

// Options carries the non-repository dependencies of Setup.
type Options struct {
	Publisher      realtime.Publisher
	Hub            *realtime.Hub
	LoginRateLimit string // limiter format, e.g. "20-M"
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, repos Repositories, opts Options) error {
	loginLimit, err := middleware.RateLimit(opts.LoginRateLimit)
	if err != nil {
		return err
	}

	// Initialize Services
	authService := services.NewAuthService(repos.Users, repos.Tx)
	userService := services.NewUserService(repos.Users, repos.Tx)
	tableService := services.NewTableService(repos.Tables, repos.Users, repos.Tx, opts.Publisher)
	menuService := services.NewMenuService(repos.Menu)
	orderService := services.NewOrderService(repos.Orders, repos.Tables, repos.Menu, repos.Users, repos.Tx, opts.Publisher)
	analyticsService := services.NewAnalyticsService(repos.Analytics)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	tableHandler := handlers.NewTableHandler(tableService)
	menuHandler := handlers.NewMenuHandler(menuService)
	orderHandler := handlers.NewOrderHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(orderService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)

	engine.Use(middleware.RequestID())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Hub != nil {
		engine.GET("/ws", middleware.WSAuthMiddleware(), opts.Hub.HandleWebSocket)
	}

	apiV1 := engine.Group("/api/v1")
	SetupAuthRoutes(apiV1, authHandler, loginLimit)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupTableRoutes(authenticated, tableHandler)
		SetupMenuRoutes(authenticated, menuHandler)
		SetupOrderRoutes(authenticated, orderHandler)
		SetupPaymentRoutes(authenticated, paymentHandler)
		SetupUserRoutes(authenticated, userHandler)
		SetupAnalyticsRoutes(authenticated, analyticsHandler)
	}
	return nil
}
