package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"shiftplay/config"
	"shiftplay/handlers"
	"shiftplay/middleware"
	"shiftplay/pkg/logger"
	"shiftplay/repository"
	"shiftplay/services"
	"shiftplay/utils"
	"shiftplay/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration: ", err)
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFormat, cfg.LogOutput); err != nil {
		logger.Fatal("failed to initialize logger: ", err)
	}

	db, err := repository.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database: ", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		logger.Fatal("failed to migrate database: ", err)
	}
	store := repository.NewGormStore(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway := services.NewSideShiftClient(cfg.SideShiftURL, cfg.SideShiftSecret, cfg.SideShiftAffiliateID, cfg.GatewayTimeout, cfg.GatewayRPS)
	pricer := services.NewStaticPricer(cfg.AssetUSDPrices, cfg.DefaultUSDPrice)

	userService := services.NewUserService(store)
	leaderboardService := services.NewLeaderboardService(store)
	rewardService := services.NewRewardService(store)
	swapService := services.NewSwapService(store, gateway)
	settlementService := services.NewSettlementService(store, services.NewEngine(services.DefaultProgressionRules), pricer)

	var archiver handlers.WebhookArchiver
	if cfg.R2.Enabled() {
		r2, err := utils.NewR2ArchiverFromCredentials(ctx, cfg.R2.AccountID, cfg.R2.AccessKeyID, cfg.R2.AccessKeySecret, cfg.R2.Bucket)
		if err != nil {
			logger.Fatal("failed to initialize R2 client: ", err)
		}
		archiver = r2
		logger.Infof("🗄️  Webhook archive enabled (bucket %s)", cfg.R2.Bucket)
	}

	app := fiber.New(fiber.Config{
		AppName: "shiftplay-server",
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.MetricsMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-Wallet-Address",
		ExposeHeaders: "Content-Length, Content-Type, X-Request-ID",
		MaxAge:        86400,
	}))

	handlers.SetupSystemRoutes(app)
	handlers.SetupUserRoutes(app, userService, leaderboardService, rewardService)
	handlers.SetupRewardRoutes(app, rewardService)
	handlers.SetupSideShiftRoutes(app, swapService, settlementService, archiver, cfg.WebhookSecret)

	var orderSync *workers.OrderSyncWorker
	if cfg.OrderSyncInterval > 0 {
		orderSync = workers.NewOrderSyncWorker(store, gateway, settlementService, cfg.OrderSyncInterval, cfg.OrderSyncMinAge)
		if err := orderSync.Start(); err != nil {
			logger.Fatal("failed to start order sync worker: ", err)
		}
	} else {
		logger.Warn("⚠️  ORDER_SYNC_INTERVAL is 0, pending swaps rely on webhooks only")
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Errorf("Server error: %v", err)
			stop()
		}
	}()

	logger.Infof("✅ Server running on http://localhost:%s", cfg.Port)
	logger.Infof("✅ CORS configured for origins: %s", strings.Join(cfg.AllowedOrigins, ","))

	<-ctx.Done()
	logger.Info("Shutting down server...")

	if orderSync != nil {
		if err := orderSync.Stop(); err != nil {
			logger.Warnf("order sync shutdown: %v", err)
		}
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warnf("server shutdown: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
