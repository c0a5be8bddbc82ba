package app

import (
	"tutorhub_backend/docs"
	"tutorhub_backend/internal/middleware"
	"tutorhub_backend/internal/model"
	"tutorhub_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
		public.GET("/grade-levels", c.quiz.ListGradeLevels)
	}

	// 浏览类路由：可选认证，游客只能看到公开内容
	browse := router.Group("/api")
	browse.Use(middleware.TryAuthMiddleware())
	{
		browse.GET("/quizzes", c.quiz.ListQuizzes)
		browse.GET("/quizzes/:id", c.quiz.GetQuiz)
		browse.GET("/quizzes/:id/questions", c.question.ListQuestions)
		browse.GET("/quizzes/:id/questions/stats", c.question.GetQuestionStats)
		browse.GET("/flashcard-sets", c.flashcard.ListSets)
		browse.GET("/flashcard-sets/:id", c.flashcard.GetSet)
	}

	// 需要登录的路由
	auth := router.Group("/api")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.GET("/auth/me", c.auth.Me)
		auth.PUT("/auth/profile", c.auth.UpdateProfile)

		// 作答（学生视角）
		auth.POST("/quizzes/:id/attempts", c.attempt.StartAttempt)
		auth.GET("/attempts", c.attempt.ListMyAttempts)
		auth.GET("/attempts/:id", c.attempt.GetAttempt)
		auth.POST("/attempts/:id/submit", c.attempt.SubmitAttempt)
		auth.DELETE("/attempts/:id", c.attempt.DeleteAttempt)

		// 内容创作：导师和学生都可以出题，归属校验在 service 层；管理员直接放行
		authoring := auth.Group("/")
		authoring.Use(middleware.RoleMiddleware(model.Tutor, model.Student))
		{
			authoring.POST("/quizzes", c.quiz.CreateQuiz)
			authoring.PUT("/quizzes/:id", c.quiz.UpdateQuiz)
			authoring.DELETE("/quizzes/:id", c.quiz.DeleteQuiz)
			authoring.POST("/quizzes/:id/duplicate", c.quiz.DuplicateQuiz)
			authoring.POST("/quizzes/:id/publish", c.quiz.TogglePublish)
			authoring.GET("/quizzes/:id/progress", c.quiz.GetQuizStats)

			authoring.POST("/quizzes/:id/questions", c.question.CreateQuestion)
			authoring.POST("/quizzes/:id/questions/bulk", c.question.BulkCreateQuestions)
			authoring.POST("/quizzes/:id/questions/ai-import", c.question.ImportAIQuestions)
			authoring.PUT("/questions/:id", c.question.UpdateQuestion)
			authoring.DELETE("/questions/:id", c.question.DeleteQuestion)

			// 创建者视角：service 层校验请求者是测验创建者
			authoring.GET("/quizzes/:id/attempts/all", c.attempt.ListQuizAttempts)
			authoring.POST("/attempts/:id/feedback", c.attempt.AddFeedback)
			authoring.GET("/quizzes/:id/statistics", c.attempt.GetQuizStatistics)
			authoring.GET("/tutor/statistics", c.attempt.GetTutorStatistics)

			authoring.POST("/flashcard-sets", c.flashcard.CreateSet)
			authoring.PUT("/flashcard-sets/:id", c.flashcard.UpdateSet)
			authoring.DELETE("/flashcard-sets/:id", c.flashcard.DeleteSet)
			authoring.POST("/flashcard-sets/:id/cards", c.flashcard.AddCard)
			authoring.PUT("/flashcards/:id", c.flashcard.UpdateCard)
			authoring.DELETE("/flashcards/:id", c.flashcard.DeleteCard)
		}
	}
}
