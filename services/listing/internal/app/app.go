package internal

import (
	"context"
	"errors"
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
	"avto-sawda/pkg/queue"
	"avto-sawda/pkg/s3"
	"avto-sawda/pkg/tracer"
	listingHTTP "avto-sawda/services/listing/internal/controller/http"
	"avto-sawda/services/listing/internal/repo/persistent"
	"avto-sawda/services/listing/internal/sweep"
	"avto-sawda/services/listing/internal/syndication"
	"avto-sawda/services/listing/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "avto-sawda/services/listing/docs" // Swagger docs
)

const (
	serviceName       = "listing"
	localQueueSize    = 256
	shutdownTimeout   = 10 * time.Second
	tracerStopTimeout = 5 * time.Second
)

type App struct {
	cfg            *config.Config
	log            *logger.Logger
	db             *gorm.DB
	redisClient    *redis.Client
	s3Client       *s3.Client
	jwtService     *jwt.Service
	queueClient    *queue.Client
	localQueue     *syndication.LocalDispatcher
	metrics        *metrics.Metrics
	httpServer     *http.Server
	stopTracer     func(context.Context) error
	stopBackground context.CancelFunc
	background     chan struct{}
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
		log.Warn("Redis unavailable, rate limits and sweep locks degrade: %v", err)
	}

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Error("Failed to create S3 client: %v", err)
		return nil, err
	}

	a := &App{
		cfg:         cfg,
		log:         log,
		db:          db,
		redisClient: redisClient,
		s3Client:    s3Client,
		jwtService:  jwt.NewServiceWithTTL(cfg.JWTSecret, cfg.JWTTTL),
		metrics:     metrics.New(serviceName),
		stopTracer:  tracer.Init(context.Background(), cfg, serviceName, log),
	}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Warn("Failed to connect to RabbitMQ: %v (syndicating in process)", err)
		a.localQueue = syndication.NewLocalDispatcher(localQueueSize, log)
	} else {
		a.queueClient = queueClient
	}

	return a, nil
}

func (a *App) dispatcher() syndication.Dispatcher {
	if a.queueClient != nil {
		return syndication.NewQueueDispatcher(a.queueClient)
	}
	return a.localQueue
}

func (a *App) Run() error {
	// Initialize repositories
	listingRepo := persistent.NewListingRepository(a.db)
	userRepo := persistent.NewUserRepository(a.db)

	// Syndication
	tasks := a.dispatcher()
	messenger := syndication.NewTelegramMessenger(a.cfg.TelegramBotToken, a.log)
	pipeline := syndication.NewPipeline(messenger, listingRepo, syndication.RenderOptions{
		FrontendURL:  a.cfg.FrontendURL,
		MediaBaseURL: a.cfg.MediaBaseURL,
	}, a.metrics, a.log)
	worker := syndication.NewWorker(pipeline, listingRepo, a.cfg.TelegramChannels, tasks, a.log)

	// Initialize use cases
	images := imaging.NewProcessor(a.s3Client)
	listingUseCase := usecase.NewListingUseCase(listingRepo, userRepo, images, a.s3Client, tasks, a.metrics, a.log)
	accountUseCase := usecase.NewAccountUseCase(listingRepo, userRepo, a.s3Client, tasks, a.log)

	// Initialize HTTP handlers
	listingHandler := listingHTTP.NewListingHandler(listingUseCase, a.log)
	accountHandler := listingHTTP.NewAccountHandler(accountUseCase, a.log)

	// Background work
	ctx, cancel := context.WithCancel(context.Background())
	a.stopBackground = cancel
	if a.queueClient != nil {
		if err := a.queueClient.Consume(ctx, worker.HandleMessage); err != nil {
			cancel()
			return err
		}
	} else {
		a.localQueue.Start(ctx, worker.Handle)
	}

	scheduler := sweep.NewScheduler(sweep.NewRedisLocker(a.redisClient), a.log,
		sweep.Job{Name: "expiry", Interval: a.cfg.ExpirySweepInterval, Run: sweep.NewExpirySweeper(listingRepo, a.metrics, a.log).Run},
		sweep.Job{Name: "views", Interval: a.cfg.ViewsGrowthInterval, Run: sweep.NewViewsGrower(listingRepo, a.metrics, a.log).Run},
	)
	a.background = make(chan struct{})
	go func() {
		defer close(a.background)
		if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error("Sweep scheduler stopped: %v", err)
		}
	}()

	// Setup router
	if a.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middleware.MetricsMiddleware(a.metrics))

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
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

	api := r.Group("/api/v1")
	api.Use(middleware.OptionalAuthMiddleware(a.jwtService))
	api.Use(middleware.RateLimitMiddleware(a.redisClient, a.cfg.RateLimit, a.cfg.RateLimitWindow, a.log))
	{
		api.GET("/cars", listingHandler.ListCars)
		api.GET("/cars/:id", listingHandler.GetCar)
		api.GET("/cars/:id/similar", listingHandler.SimilarCars)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(a.jwtService))
		{
			protected.GET("/cars/my", listingHandler.ListMyCars)
			protected.POST("/cars", listingHandler.CreateCar)
			protected.PUT("/cars/:id", listingHandler.UpdateCar)
			protected.DELETE("/cars/:id", listingHandler.DeleteCar)
			protected.POST("/cars/:id/save", listingHandler.SaveCar)
			protected.DELETE("/cars/:id/save", listingHandler.UnsaveCar)

			protected.GET("/account/saved", accountHandler.SavedCars)
			protected.DELETE("/account", accountHandler.DeleteAccount)
		}

		admin := api.Group("")
		admin.Use(middleware.AuthMiddleware(a.jwtService), middleware.AdminOnly())
		{
			admin.DELETE("/cars/all", listingHandler.DeleteAllCars)
			admin.PUT("/cars/:id/premium", listingHandler.PromoteCar)
			admin.DELETE("/users/:id", accountHandler.DeleteUser)
		}
	}

	// Create HTTP server
	a.httpServer = &http.Server{
		Addr:              ":" + a.cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		a.log.Info("Listing service starting on port %s", a.cfg.ServerPort)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	return nil
}

func (a *App) Wait() {
	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.log.Info("Shutting down listing service...")
}

func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Stop accepting requests first so no new tasks are queued
	var serverErr error
	if a.httpServer != nil {
		if serverErr = a.httpServer.Shutdown(ctx); serverErr != nil {
			a.log.Error("Server forced to shutdown: %v", serverErr)
		}
	}

	if a.localQueue != nil {
		a.localQueue.Close()
	}
	if a.stopBackground != nil {
		a.stopBackground()
		<-a.background
	}

	// Close RabbitMQ connection
	if a.queueClient != nil {
		if err := a.queueClient.Close(); err != nil {
			a.log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	// Close Redis connection
	if err := a.redisClient.Close(); err != nil {
		a.log.Error("Error closing Redis: %v", err)
	}

	// Close database connection
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Error("Error closing database: %v", err)
		}
	}

	tctx, tcancel := context.WithTimeout(context.Background(), tracerStopTimeout)
	defer tcancel()
	if err := a.stopTracer(tctx); err != nil {
		a.log.Warn("Tracer shutdown: %v", err)
	}

	a.log.Info("Listing service exited")
	_ = a.log.Sync()
	return serverErr
}
