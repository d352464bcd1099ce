package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"certprep_backend/internal/config"
	"certprep_backend/internal/controller"
	"certprep_backend/internal/repository"
	"certprep_backend/internal/service"
	"certprep_backend/pkg/configwatcher"
	"certprep_backend/pkg/database"
	"certprep_backend/pkg/logger"
	"certprep_backend/pkg/monitoring"
	"certprep_backend/pkg/security"
	"certprep_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
}

type repositories struct {
	user         *repository.UserRepository
	category     *repository.CategoryRepository
	question     *repository.QuestionRepository
	exam         *repository.ExamRepository
	attempt      *repository.AttemptRepository
	answer       *repository.AnswerRepository
	subscription *repository.SubscriptionRepository
}

type services struct {
	auth         *service.AuthService
	storage      *service.StorageService
	category     *service.CategoryService
	question     *service.QuestionService
	exam         *service.ExamService
	access       *service.AccessService
	allocation   *service.AllocationService
	grading      *service.GradingService
	autosave     *service.AutosaveService
	attempt      *service.AttemptService
	subscription *service.SubscriptionService
}

type controllers struct {
	auth         *controller.AuthController
	question     *controller.QuestionController
	exam         *controller.ExamController
	attempt      *controller.AttemptController
	subscription *controller.SubscriptionController
	health       *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		category:     repository.NewCategoryRepository(db),
		question:     repository.NewQuestionRepository(db),
		exam:         repository.NewExamRepository(db),
		attempt:      repository.NewAttemptRepository(db),
		answer:       repository.NewAnswerRepository(db),
		subscription: repository.NewSubscriptionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.category = service.NewCategoryService(repos.category)
	s.question = service.NewQuestionService(repos.question, repos.category, s.storage)
	s.access = service.NewAccessService(repos.exam, repos.attempt, repos.subscription, rdb)
	s.exam = service.NewExamService(repos.exam, s.access)
	s.allocation = service.NewAllocationService(repos.question, repos.category)
	s.grading = service.NewGradingService(repos.question, repos.answer)
	s.autosave = service.NewAutosaveService(repos.question, repos.answer, db)
	s.attempt = service.NewAttemptService(
		repos.attempt, repos.answer, repos.exam,
		s.allocation, s.grading, s.autosave,
		rdb, db,
	)
	s.subscription = service.NewSubscriptionService(repos.subscription)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		question:     controller.NewQuestionController(s.question, s.category),
		exam:         controller.NewExamController(s.exam),
		attempt:      controller.NewAttemptController(s.attempt, s.access, s.exam),
		subscription: controller.NewSubscriptionController(s.subscription),
		health:       controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 600
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("certprep-platform", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	// Hot-reload config edits without a restart. Only settings read per
	// request pick up the new values; middleware wiring stays as booted.
	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(newCfg interface{}) {
		if reloaded, ok := newCfg.(*config.Config); ok {
			*app.Config = *reloaded
			logger.Log.Info("Configuration reloaded")
		}
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
