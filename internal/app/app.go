package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"tutorhub_backend/internal/config"
	"tutorhub_backend/internal/controller"
	"tutorhub_backend/internal/repository"
	"tutorhub_backend/internal/service"
	"tutorhub_backend/pkg/configwatcher"
	"tutorhub_backend/pkg/database"
	"tutorhub_backend/pkg/logger"
	"tutorhub_backend/pkg/monitoring"
	"tutorhub_backend/pkg/security"
	"tutorhub_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	services *services
	tracer   *sdktrace.TracerProvider

	// 后台清理任务读取的 TTL，配置热更新时原子替换
	attemptTTL atomic.Int64
}

type repositories struct {
	user      *repository.UserRepository
	quiz      *repository.QuizRepository
	question  *repository.QuestionRepository
	attempt   *repository.AttemptRepository
	flashcard *repository.FlashcardRepository
}

type services struct {
	auth      *service.AuthService
	quiz      *service.QuizService
	question  *service.QuestionService
	attempt   *service.AttemptService
	flashcard *service.FlashcardService
}

type controllers struct {
	auth      *controller.AuthController
	quiz      *controller.QuizController
	question  *controller.QuestionController
	attempt   *controller.AttemptController
	flashcard *controller.FlashcardController
	health    *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:      repository.NewUserRepository(db),
		quiz:      repository.NewQuizRepository(db),
		question:  repository.NewQuestionRepository(db),
		attempt:   repository.NewAttemptRepository(db),
		flashcard: repository.NewFlashcardRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	return &services{
		auth:      service.NewAuthService(repos.user, cfg),
		quiz:      service.NewQuizService(repos.quiz, repos.question, db),
		question:  service.NewQuestionService(repos.question, repos.quiz, db),
		attempt:   service.NewAttemptService(repos.attempt, repos.quiz, repos.question, rdb, db),
		flashcard: service.NewFlashcardService(repos.flashcard, db),
	}
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		quiz:      controller.NewQuizController(s.quiz),
		question:  controller.NewQuestionController(s.question),
		attempt:   controller.NewAttemptController(s.attempt),
		flashcard: controller.NewFlashcardController(s.flashcard),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	// 中间件从 context 里取配置（JWT 校验等）
	router.Use(func(c *gin.Context) {
		c.Set("config", cfg)
		c.Next()
	})

	router.Use(security.CORS(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 300
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 定时把超时未提交的作答记录置为 abandoned
func (a *App) startBackgroundTasks(s *services, cfg *config.Config) {
	a.attemptTTL.Store(int64(time.Duration(cfg.Quiz.AttemptTTLHours) * time.Hour))
	interval := time.Duration(cfg.Quiz.AbandonSweepMinutes) * time.Minute

	go func() {
		ticker := time.NewTicker(interval)
		for range ticker.C {
			if err := s.attempt.AbandonStale(time.Duration(a.attemptTTL.Load())); err != nil {
				logger.Log.Error("abandon sweep error", zap.Error(err))
			}
		}
	}()

	// 配置热更新：目前只有清理 TTL 可以安全地在运行中调整
	go configwatcher.WatchConfig("configs/config.yaml", func(newCfg *config.Config) {
		a.attemptTTL.Store(int64(time.Duration(newCfg.Quiz.AttemptTTLHours) * time.Hour))
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// release 模式下默认跳过自动迁移，需显式 -migrate
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
			log.Fatalf("Failed to initialize redis: %v", err)
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("tutorhub-platform", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers)

	app.startBackgroundTasks(services, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	log.Println("Server exiting")
}
