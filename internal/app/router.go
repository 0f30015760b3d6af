package app

import (
	"ai_quiz_backend/internal/config"
	"ai_quiz_backend/internal/middleware"
	"ai_quiz_backend/internal/model"
	"ai_quiz_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// Public routes
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/login", c.auth.UserLogin)
		public.POST("/auth/admin/login", c.auth.AdminLogin)
	}

	// Authenticated routes (taker or admin)
	authed := router.Group("/api")
	authed.Use(middleware.AuthMiddleware(), middleware.ActivityMiddleware(repos.user))
	{
		authed.GET("/quizzes", c.quiz.List)
		authed.GET("/quizzes/:id", c.quiz.Get)
		authed.GET("/quizzes/:id/stats", c.quiz.Stats)

		authed.POST("/attempts", c.attempt.Start)
		authed.GET("/attempts", c.attempt.History)
		authed.POST("/attempts/:sessionId/answers", c.attempt.Answer)
		authed.POST("/attempts/:sessionId/skips", c.attempt.Skip)
		authed.POST("/attempts/:sessionId/complete", c.attempt.Complete)
		authed.POST("/attempts/:sessionId/abandon", c.attempt.Abandon)
		authed.GET("/attempts/:sessionId/results", c.attempt.Results)

		authed.GET("/users/me", c.user.Me)
		authed.GET("/users/me/stats", c.user.Stats)
	}

	// Admin routes
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(model.RoleAdmin))
	{
		admin.POST("/questions", c.question.Create)
		admin.GET("/questions", c.question.List)
		admin.GET("/questions/flagged", c.question.Flagged)
		admin.GET("/questions/flagged/stats", c.question.FlaggedStats)
		admin.GET("/questions/:id", c.question.Get)
		admin.PUT("/questions/:id", c.question.Update)
		admin.DELETE("/questions/:id", c.question.Delete)
		admin.POST("/questions/:id/resolve", c.question.ResolveFlag)
		admin.POST("/questions/:id/revalidate", c.question.Revalidate)

		admin.POST("/quizzes", c.quiz.Create)
		admin.DELETE("/quizzes/:id", c.quiz.Delete)
		admin.GET("/quizzes/:id/questions", c.quiz.Questions)
		admin.POST("/quizzes/:id/questions", c.quiz.AddQuestions)
		admin.DELETE("/quizzes/:id/questions/:questionId", c.quiz.RemoveQuestion)

		admin.GET("/users", c.user.List)
	}
}
