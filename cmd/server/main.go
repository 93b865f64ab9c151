package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/kavehm/workhub/internal/billing"
	"github.com/kavehm/workhub/internal/config"
	"github.com/kavehm/workhub/internal/database"
	"github.com/kavehm/workhub/internal/handler"
	"github.com/kavehm/workhub/internal/middleware"
	"github.com/kavehm/workhub/internal/queue"
	"github.com/kavehm/workhub/internal/repository"
	"github.com/kavehm/workhub/internal/router"
	"github.com/kavehm/workhub/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	platformDSN := database.MySQLDSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	platformDB, err := database.Open(platformDSN, cfg.PlatformMaxConns)
	if err != nil {
		log.Fatalf("open platform store: %v", err)
	}
	defer platformDB.Close()

	// One registry for all tenant stores; pools are created on first
	// request for a tenant and live for the process lifetime.
	registry := database.NewRegistry(database.Open, cfg.TenantMaxConns)
	defer registry.Close()

	platformUsers := repository.NewPlatformUserRepo(platformDB)
	tenants := repository.NewTenantRepo(platformDB)

	provider := billing.NewClient(cfg.BillingAPIBase, cfg.BillingAPIKey)
	subs := service.NewSubscriptionService(tenants, provider, billing.PriceTable{
		Standard:   cfg.BillingPriceStandard,
		Enterprise: cfg.BillingPriceEnterprise,
	})

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; login rate limiting disabled")
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.Register(e, router.Deps{
		JWTSecret:     cfg.JWTSecret,
		Platform:      platformUsers,
		Tenants:       tenants,
		Pools:         registry,
		LoginLimiter:  limiter,
		PlatformAuth:  handler.NewPlatformAuthHandler(cfg, platformUsers),
		TenantAuth:    handler.NewTenantAuthHandler(cfg, tenants, registry),
		TenantAdmin:   handler.NewTenantAdminHandler(cfg, tenants),
		Subscriptions: handler.NewSubscriptionHandler(subs),
		TenantUsers:   handler.NewTenantUserHandler(cfg),
		Customers:     handler.NewCustomerHandler(),
		Projects:      handler.NewProjectHandler(),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
