package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"avto-sawda/pkg/cache"
	"avto-sawda/pkg/config"
	"avto-sawda/pkg/database"
	"avto-sawda/pkg/imaging"
	"avto-sawda/pkg/jwt"
	"avto-sawda/pkg/logger"
	"avto-sawda/pkg/metrics"
	"avto-sawda/pkg/middleware"
	"avto-sawda/pkg/s3"
	"avto-sawda/pkg/tracer"
	bannerHTTP "avto-sawda/services/banner/internal/controller/http"
	bannerCache "avto-sawda/services/banner/internal/repo/cache"
	"avto-sawda/services/banner/internal/repo/persistent"
	"avto-sawda/services/banner/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "avto-sawda/services/banner/docs" // Swagger docs
)

const (
	serviceName     = "banner"
	shutdownTimeout = 5 * time.Second
)

type App struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *gorm.DB
	redisClient *redis.Client
	s3Client    *s3.Client
	jwtService  *jwt.Service
	metrics     *metrics.Metrics
	httpServer  *http.Server
	stopTracer  func(context.Context) error
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.NewWithLevel(cfg.LogLevel)

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		return nil, err
	}

	redisClient := cache.NewRedisClient(cfg)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warn("Redis unavailable, banners are served uncached: %v", err)
	}

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Error("Failed to create S3 client: %v", err)
		return nil, err
	}

	return &App{
		cfg:         cfg,
		log:         log,
		db:          db,
		redisClient: redisClient,
		s3Client:    s3Client,
		jwtService:  jwt.NewServiceWithTTL(cfg.JWTSecret, cfg.JWTTTL),
		metrics:     metrics.New(serviceName),
		stopTracer:  tracer.Init(context.Background(), cfg, serviceName, log),
	}, nil
}

func (a *App) Run() error {
	bannerRepo := persistent.NewBannerRepository(a.db)
	bannerUseCase := usecase.NewBannerUseCase(
		bannerRepo,
		bannerCache.NewBannerCache(a.redisClient),
		imaging.NewProcessor(a.s3Client),
		a.s3Client,
		a.log,
	)
	bannerHandler := bannerHTTP.NewBannerHandler(bannerUseCase, a.log)

	if a.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middleware.MetricsMiddleware(a.metrics))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})
	r.GET("/metrics", gin.WrapH(a.metrics.Handler()))

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1/banners")
	api.Use(middleware.RateLimitMiddleware(a.redisClient, a.cfg.RateLimit, a.cfg.RateLimitWindow, a.log))
	{
		api.GET("", bannerHandler.ListBanners)
		api.GET("/:id", bannerHandler.GetBanner)

		admin := api.Group("")
		admin.Use(middleware.AuthMiddleware(a.jwtService), middleware.AdminOnly())
		{
			admin.POST("", bannerHandler.CreateBanner)
			admin.PUT("/:id", bannerHandler.UpdateBanner)
			admin.DELETE("/:id", bannerHandler.DeleteBanner)
			admin.PUT("/:id/order", bannerHandler.SetOrder)
			admin.PUT("/:id/toggle", bannerHandler.ToggleBanner)
		}
	}

	a.httpServer = &http.Server{
		Addr:              ":" + a.cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		a.log.Info("Banner service starting on port %s", a.cfg.ServerPort)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	return nil
}

func (a *App) Wait() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.log.Info("Shutting down banner service...")
}

func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var serverErr error
	if a.httpServer != nil {
		if serverErr = a.httpServer.Shutdown(ctx); serverErr != nil {
			a.log.Error("Server forced to shutdown: %v", serverErr)
		}
	}

	if err := a.redisClient.Close(); err != nil {
		a.log.Error("Error closing Redis: %v", err)
	}

	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Error("Error closing database: %v", err)
		}
	}

	if err := a.stopTracer(ctx); err != nil {
		a.log.Warn("Tracer shutdown: %v", err)
	}

	a.log.Info("Banner service exited")
	_ = a.log.Sync()
	return serverErr
}
