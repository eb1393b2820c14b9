package main // Entry point package

import (
	"log" // Logging library

	"github.com/labstack/echo/v4" // Echo web framework

	"backoffice-api/internal/auth"
	"backoffice-api/internal/config"
	"backoffice-api/internal/database"
	"backoffice-api/internal/handler"
	"backoffice-api/internal/middleware"
	"backoffice-api/internal/queue"
	"backoffice-api/internal/repository"
	"backoffice-api/internal/router"
)

func main() {
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client degrades the identity cache to
	// pass-through misses and disables the rate limiter.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	rbac := repository.NewRBACRepo(db)
	actionTokens := repository.NewTokenRepo(db)

	resolver := auth.NewResolver(users, rbac)
	cache := auth.NewIdentityCache(rdb, cfg.IdentityTTL)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTTLMin)
	events := queue.NewPublisher(cfg.AMQPURL) // nil when no broker is configured

	authHandler := handler.NewAuthHandler(cfg, users, actionTokens, tokens, cache, resolver, events)
	profileHandler := handler.NewProfileHandler(cfg, users, cache, resolver)
	userAdmin := handler.NewUserAdminHandler(cfg, users, rbac, cache)
	roleAdmin := handler.NewRoleAdminHandler(rbac, cache)
	permAdmin := handler.NewPermissionAdminHandler(rbac, cache)
	selects := handler.NewSelectHandler(rbac)

	authenticate := middleware.Authenticate(tokens, cache, resolver)

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e, cfg)
	router.RegisterAuth(e, authHandler, config.LoadRateLimitConfig(), rdb)
	router.RegisterProfile(e, profileHandler, authenticate)
	router.RegisterSettings(e, userAdmin, roleAdmin, permAdmin, selects, authenticate)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
