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

	"shopsense/app/echo-server/router"
	"shopsense/business/digest"
	"shopsense/business/experiment"
	"shopsense/business/recommend"
	"shopsense/domain"
	"shopsense/internal/middleware"
	"shopsense/internal/repository/notification"
	psqlRepo "shopsense/internal/repository/postgres"
	redisRepo "shopsense/internal/repository/redis"
	"shopsense/internal/rest"
	"shopsense/pkg/config"
	"shopsense/pkg/database"
	redisdb "shopsense/pkg/database/redis"
	"shopsense/pkg/logger"
	"shopsense/pkg/metrics"

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
	logger.Info("Starting ShopSense", "version", cfg.App.Version)

	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	redisClient, err := redisdb.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to redis", "error", err)
	}
	defer redisdb.CloseRedisClient(redisClient)

	logger.Info("Redis connected successfully")

	// Init notification from mailjet
	mailjetEmail := notification.NewMailjetRepository(
		notification.MailjetConfig{
			MailjetBaseURL:           cfg.Mailjet.MailjetBaseUrl,
			MailjetBasicAuthUsername: cfg.Mailjet.MailjetBasicAuthUsername,
			MailjetBasicAuthPassword: cfg.Mailjet.MailjetBasicAuthPassword,
			MailjetSenderEmail:       cfg.Mailjet.MailjetSenderEmail,
			MailjetSenderName:        cfg.Mailjet.MailjetSenderName,
		},
	)

	// Init repo
	productRepo := psqlRepo.NewProductRepository(db)
	interactionRepo := psqlRepo.NewInteractionRepository(db)
	experimentRepo := psqlRepo.NewExperimentRepository(db)
	assignmentRepo := psqlRepo.NewAssignmentRepository(db)
	counterRepo := psqlRepo.NewCounterRepository(db)
	scoreCache := redisRepo.NewScoreCache(redisClient)
	trendingStore := redisRepo.NewTrendingStore(redisClient)

	// Init scorers, collaborative and content-based behind the score cache
	scorers := []recommend.Scorer{
		recommend.WithCache(
			recommend.NewCollaborativeScorer(interactionRepo),
			scoreCache,
			recommend.UserCacheKey(domain.SignalCollaborative),
			cfg.Recommend.CFCacheTTL,
		),
		recommend.WithCache(
			recommend.NewContentBasedScorer(interactionRepo, productRepo),
			scoreCache,
			recommend.UserCacheKey(domain.SignalContentBased),
			cfg.Recommend.CBCacheTTL,
		),
		recommend.NewContextualScorer(interactionRepo),
		recommend.WithCache(
			recommend.NewTrendingScorer(trendingStore),
			scoreCache,
			recommend.ContextCacheKey(domain.SignalTrending),
			cfg.Recommend.TrendCacheTTL,
		),
	}

	baseline := cfg.Recommend.Baseline()

	// Init service
	recommendService := recommend.NewService(
		productRepo,
		interactionRepo,
		trendingStore,
		scorers,
		cfg.Recommend.ScorerTimeout,
		cfg.Recommend.MMRLambda,
	)
	experimentManager := experiment.NewManager(experimentRepo, assignmentRepo, counterRepo, baseline)
	digestService := digest.NewService(recommendService, mailjetEmail, baseline)

	// Init handler
	recommendHandler := rest.NewRecommendHandler(recommendService, experimentManager, cfg.Recommend.ExperimentID)
	trendingHandler := rest.NewTrendingHandler(recommendService)
	trackHandler := rest.NewTrackHandler(recommendService, experimentManager)
	experimentAdminHandler := rest.NewExperimentAdminHandler(experimentManager, experimentRepo)
	catalogAdminHandler := rest.NewCatalogAdminHandler(productRepo)
	digestHandler := rest.NewDigestHandler(digestService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-API-Key"},
	}))

	// Health and metrics
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": cfg.App.Version})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Auth middleware
	apiKeyAuth := middleware.APIKeyAuth(cfg.API.Keys)
	authRequired := middleware.AuthMiddleware(cfg.JWT.SecretKey)
	adminOnly := middleware.AdminOnly()

	// Setup routes
	api := e.Group("/api/v1")
	router.SetupRecommendationRoutes(api, recommendHandler, trendingHandler, apiKeyAuth)
	router.SetupTrackingRoutes(api, trackHandler, apiKeyAuth)
	router.SetupExperimentAdminRoutes(api, experimentAdminHandler, authRequired, adminOnly)
	router.SetupCatalogAdminRoutes(api, catalogAdminHandler, authRequired, adminOnly)
	router.SetupDigestRoutes(api, digestHandler, authRequired, adminOnly)

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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
