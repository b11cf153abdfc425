package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/nimo-repair/internal/config"
	"github.com/bitfantasy/nimo-repair/internal/handler"
	"github.com/bitfantasy/nimo-repair/internal/middleware"
	"github.com/bitfantasy/nimo-repair/internal/model/entity"
	"github.com/bitfantasy/nimo-repair/internal/repository"
	"github.com/bitfantasy/nimo-repair/internal/service"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting nimo-repair service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to auto-migrate tables", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	// 初始化Redis（工单号序列）
	rdb := initRedis(cfg.Redis)

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, rdb)
	handlers := handler.NewHandlers(services)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())

	// 健康检查
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "nimo-repair"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "nimo-repair"})
	})

	// 版本信息
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    "nimo-repair",
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func registerRoutes(router *gin.Engine, handlers *handler.Handlers, cfg *config.Config) {
	v1 := router.Group("/api/v1")
	v1.Use(gzip.Gzip(gzip.DefaultCompression))
	v1.Use(middleware.JWTAuth(cfg.JWT.Secret))

	// 工单
	jobcards := v1.Group("/jobcards")
	{
		jobcards.GET("", handlers.JobCard.List)
		jobcards.POST("", handlers.JobCard.Create)
		jobcards.GET("/export", handlers.JobCard.Export)
		jobcards.GET("/:id", handlers.JobCard.Get)
		jobcards.DELETE("/:id", handlers.JobCard.Delete)
		jobcards.POST("/:id/verify", handlers.JobCard.CustomerVerify)
		jobcards.POST("/:id/approve", middleware.RequireRole("supervisor"), handlers.JobCard.SupervisorApprove)
		jobcards.POST("/:id/reject", middleware.RequireRole("supervisor"), handlers.JobCard.SupervisorReject)
		jobcards.POST("/:id/archive", middleware.RequireRole("supervisor"), handlers.Archive.RejectAndArchive)

		// 工项
		jobcards.POST("/:id/items/:itemId/workers", handlers.JobCard.AssignWorker)
		jobcards.POST("/:id/items/:itemId/complete", handlers.JobCard.CompleteItem)
		jobcards.POST("/:id/items/:itemId/quality", handlers.JobCard.QualityDecision)
		jobcards.POST("/:id/items/:itemId/consumables/:cid/use", handlers.JobCard.UseConsumable)

		// 计时
		jobcards.POST("/:id/items/:itemId/workers/:workerId/start", handlers.Timer.StartWorker)
		jobcards.POST("/:id/items/:itemId/workers/:workerId/pause", handlers.Timer.PauseWorker)
		jobcards.POST("/:id/items/:itemId/workers/:workerId/end", handlers.Timer.EndWorker)
		jobcards.POST("/:id/items/:itemId/machines/:machineId/start", handlers.Timer.StartMachine)
		jobcards.POST("/:id/items/:itemId/machines/:machineId/end", handlers.Timer.EndMachine)
	}

	// 设备台账
	machines := v1.Group("/machines")
	{
		machines.GET("", handlers.Machine.List)
		machines.POST("", handlers.Machine.Create)
		machines.GET("/:id", handlers.Machine.Get)
	}

	categories := v1.Group("/machine-categories")
	{
		categories.GET("", handlers.Machine.ListCategories)
		categories.POST("", handlers.Machine.CreateCategory)
	}

	// 基础数据
	shops := v1.Group("/shops")
	{
		shops.POST("", handlers.Catalog.CreateShop)
		shops.GET("/:id", handlers.Catalog.GetShop)
	}
	customers := v1.Group("/customers")
	{
		customers.POST("", handlers.Catalog.CreateCustomer)
		customers.GET("/:id", handlers.Catalog.GetCustomer)
	}
	workers := v1.Group("/workers")
	{
		workers.GET("", handlers.Catalog.ListWorkers)
		workers.POST("", handlers.Catalog.CreateWorker)
	}

	// 模板
	templates := v1.Group("/templates")
	{
		templates.GET("", handlers.Template.List)
		templates.POST("", handlers.Template.Create)
		templates.GET("/:id", handlers.Template.Get)
	}

	// 归档
	archives := v1.Group("/archives")
	{
		archives.GET("", handlers.Archive.List)
		archives.GET("/:id", handlers.Archive.Get)
	}
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}
	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	if cfg.Host == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}
