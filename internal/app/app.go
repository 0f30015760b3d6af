package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai_quiz_backend/internal/config"
	"ai_quiz_backend/internal/controller"
	"ai_quiz_backend/internal/llm"
	"ai_quiz_backend/internal/repository"
	"ai_quiz_backend/internal/service"
	"ai_quiz_backend/pkg/database"
	"ai_quiz_backend/pkg/logger"
	"ai_quiz_backend/pkg/monitoring"
	"ai_quiz_backend/pkg/security"
	"ai_quiz_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user     *repository.UserRepository
	question *repository.QuestionRepository
	quiz     *repository.QuizRepository
	attempt  *repository.AttemptRepository
}

type services struct {
	validation *service.ValidationService
	question   *service.QuestionService
	quiz       *service.QuizService
	attempt    *service.AttemptService
	user       *service.UserService
	auth       *service.AuthService
}

type controllers struct {
	auth     *controller.AuthController
	question *controller.QuestionController
	quiz     *controller.QuizController
	attempt  *controller.AttemptController
	user     *controller.UserController
	health   *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		question: repository.NewQuestionRepository(db),
		quiz:     repository.NewQuizRepository(db),
		attempt:  repository.NewAttemptRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.validation = service.NewValidationService(
		llm.NewChatClient(cfg.AI.Primary),
		llm.NewChatClient(cfg.AI.Secondary),
	)
	s.question = service.NewQuestionService(repos.question, repos.quiz, s.validation)
	s.quiz = service.NewQuizService(repos.quiz, repos.attempt, rdb)
	s.attempt = service.NewAttemptService(repos.attempt, repos.question, repos.quiz, s.quiz)
	s.user = service.NewUserService(repos.user, repos.attempt)
	s.auth = service.NewAuthService(s.user, cfg.JWT.Secret, cfg.JWT.ExpireTime, cfg.Admin.Username, cfg.Admin.PasswordHash)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		question: controller.NewQuestionController(s.question),
		quiz:     controller.NewQuizController(s.quiz),
		attempt:  controller.NewAttemptController(s.attempt),
		user:     controller.NewUserController(s.user),
		health:   controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(func(c *gin.Context) {
		c.Set("config", a.Config)
		c.Next()
	})

	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// ApplyConfig is the hot-reload hook: currently only the AI backends can be
// swapped at runtime.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.services.validation.SetBackends(
		llm.NewChatClient(cfg.AI.Primary),
		llm.NewChatClient(cfg.AI.Secondary),
	)
	logger.Log.Info("Reloaded AI backend configuration",
		zap.String("primary", cfg.AI.Primary.Name),
		zap.String("secondary", cfg.AI.Secondary.Name),
	)
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
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("quiz-platform", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

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
