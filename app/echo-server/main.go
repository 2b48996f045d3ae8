package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripmatch/app/echo-server/router"
	"tripmatch/business/ranker"
	"tripmatch/internal/middleware"
	"tripmatch/internal/repository/memory"
	psqlRepo "tripmatch/internal/repository/postgres"
	redisRepo "tripmatch/internal/repository/redis"
	"tripmatch/internal/rest"
	"tripmatch/pkg/config"
	"tripmatch/pkg/database"
	redisdb "tripmatch/pkg/database/redis"
	"tripmatch/pkg/logger"
	"tripmatch/pkg/metrics"
	jsonres "tripmatch/pkg/response"
	"tripmatch/pkg/utils"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	defer logger.Sync()
	logger.Info("Starting TripMatch Ranker", "version", cfg.App.Version)

	metrics.Init()
	utils.InitJWT(cfg.JWT.SecretKey)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	logger.Info("Database connected successfully")

	// Score cache: Redis when reachable, in-process LRU otherwise.
	var scoreCache ranker.ScoreCache
	redisClient, err := redisdb.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, using in-process cache", "error", err)
		scoreCache = memory.NewLRUCache(cfg.Cache.ScoreCapacity, cfg.Cache.ScoreTTL, cfg.Cache.PreferencesTTL)
	} else {
		scoreCache = redisRepo.NewRankerCache(redisClient, cfg.Cache.ScoreTTL, cfg.Cache.PreferencesTTL)
		defer redisdb.CloseRedisClient(redisClient)
	}

	// Init repo
	tripRepo := psqlRepo.NewTripRepository(db)
	exampleRepo := psqlRepo.NewTrainingExampleRepository(db)
	weightRepo := psqlRepo.NewWeightRepository(db)

	// Init weight store, pipeline, serving path
	store := ranker.NewWeightStore(weightRepo)
	if err := store.Load(context.Background()); err != nil {
		logger.Fatal("Failed to load weight history", "error", err)
	}

	pipeline := ranker.NewPipeline(exampleRepo, store, ranker.TrainingConfig{
		WindowDays:       cfg.Training.WindowDays,
		Epochs:           cfg.Training.Epochs,
		LearningRate:     cfg.Training.LearningRate,
		MinExamples:      cfg.Training.MinExamples,
		PromoteTolerance: cfg.Training.PromoteTolerance,
		MaxDwell:         cfg.Training.MaxDwell,
	})

	schedCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	pipeline.Start(schedCtx, cfg.Training.Interval)

	selector := ranker.NewSelector(store, scoreCache, cfg.Ranker.ScoringWorkers)
	rankerService := ranker.NewRankerService(
		tripRepo,
		exampleRepo,
		selector,
		store,
		pipeline,
		scoreCache,
		cfg.Ranker.DefaultK,
		cfg.Ranker.MaxK,
	)

	// Init handler
	rankHandler := rest.NewRankHandler(rankerService)
	eventHandler := rest.NewEventHandler(rankerService)
	adminHandler := rest.NewAdminHandler(rankerService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = middleware.ErrorHandler

	e.Use(echomiddleware.Recover())
	e.Use(middleware.TraceMiddleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Setup routes
	api := e.Group("/api/v1")
	router.SetRankRoutes(api, rankHandler)
	router.SetEventRoutes(api, eventHandler)
	router.SetAdminRoutes(api, adminHandler)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, jsonres.Success("ok", echo.Map{"version": cfg.App.Version}))
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
