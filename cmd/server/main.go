package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recanto_verde_backend/internal/config"
	"recanto_verde_backend/internal/database"
	"recanto_verde_backend/internal/realtime"
	"recanto_verde_backend/internal/repositories/memstore"
	"recanto_verde_backend/internal/router"
	"recanto_verde_backend/internal/services"
	"recanto_verde_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	utils.InitLogger(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg); err != nil {
		utils.LogError(err, "Server stopped with error")
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := utils.ConfigureJWT(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL); err != nil {
		return err
	}

	// Data layer
	var repos router.Repositories
	switch cfg.DB.Driver {
	case config.DriverMemory:
		utils.LogWarn("Using in-memory store, state is lost on restart")
		repos = router.MemoryRepositories(memstore.New())
	default:
		db, err := database.InitDB(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close()
		if cfg.DB.Migrate {
			if err := database.ApplySchema(ctx, db); err != nil {
				return err
			}
		}
		repos = router.PostgresRepositories(db)
	}

	// Event relay
	var broker realtime.Broker
	if cfg.Redis.Enabled() {
		rdb, err := database.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		// The broker owns rdb from here on.
		broker = realtime.NewRedisBroker(rdb, cfg.Redis.Channel)
	} else {
		broker = realtime.NewMemoryBroker()
	}
	defer broker.Close()

	events, err := broker.Subscribe(ctx)
	if err != nil {
		return err
	}
	hub := realtime.NewHub(cfg.WSSendBuffer)
	go hub.Run(ctx, events)

	if cfg.Seed.AdminEmail != "" {
		created, err := services.NewAuthService(repos.Users, repos.Tx).
			EnsureAdmin(ctx, cfg.Seed.AdminName, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword)
		if err != nil {
			return err
		}
		if created {
			utils.LogInfo("Seeded superadmin account", map[string]interface{}{"email": cfg.Seed.AdminEmail})
		}
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	if err := router.Setup(engine, repos, router.Options{
		Publisher:      broker,
		Hub:            hub,
		LoginRateLimit: cfg.LoginRateLimit,
	}); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "driver": cfg.DB.Driver, "redis": cfg.Redis.Enabled()})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		utils.LogInfo("Shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
