package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/clock"
	"go.uber.org/zap"

	"readova/catalog"
	"readova/config"
	"readova/middleware"
	"readova/models"
	"readova/routes"
	"readova/services"
	"readova/websocket"
)

func main() {
	// 加载配置（包括 .env 文件）
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化Redis（不可用时返回nil）
	rdb := config.InitializeRedis(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	// 初始化日志系统
	logger, err := middleware.InitLogger(cfg.Mode, rdb)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer middleware.FlushLogger()

	// 初始化数据库
	clk := clock.WallClock
	db, err := config.OpenDatabase(cfg.Database, cfg.IsDebug(), clk)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer config.CloseDatabase(db)

	if err := models.AutoMigrate(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// 初始化新书通知
	hub := websocket.NewHub(rdb, logger)
	if err := hub.Start(ctx); err != nil {
		logger.Fatal("failed to start notification hub", zap.Error(err))
	}
	defer hub.Close()

	// 外部书目源
	provider, err := catalog.NewGoogleBooks(ctx, cfg.Catalog.GoogleAPIKey, cfg.Catalog.GoogleEndpoint)
	if err != nil {
		logger.Fatal("failed to create catalog provider", zap.Error(err))
	}
	pricing := catalog.NewPricingPolicy(cfg.Catalog.DefaultPrice, cfg.Catalog.CategoryPrices)

	jwtService := config.NewJWTService(cfg.JWT, clk)
	deps := &services.Deps{DB: db, Redis: rdb, Clock: clk, Logger: logger}
	svcs := services.NewServices(deps, jwtService, cfg.Auth, provider, pricing, hub)

	if err := svcs.Auth.EnsureAdmin(ctx, cfg.Admin); err != nil {
		logger.Fatal("failed to create admin account", zap.Error(err))
	}

	// 定时刷新书目（可选）
	if cfg.Catalog.RefreshSchedule != "" && len(cfg.Catalog.RefreshQueries) > 0 {
		refresher, err := services.NewCatalogRefresher(svcs.Books, cfg.Catalog.RefreshSchedule, cfg.Catalog.RefreshQueries, cfg.Catalog.RefreshMax, logger)
		if err != nil {
			logger.Fatal("failed to schedule catalog refresh", zap.Error(err))
		}
		refresher.Start()
		defer refresher.Stop()
	}

	// 设置路由
	r := config.SetupRouter(cfg.Mode, db, rdb)
	routes.SetupRoutes(r, svcs, hub, jwtService, rdb, routes.Options{
		AllowOrigins:    cfg.Server.AllowOrigins,
		IngestRateLimit: cfg.Catalog.IngestRateLimit,
	})

	if err := config.StartServer(ctx, cfg.Server, r); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
	}
}
