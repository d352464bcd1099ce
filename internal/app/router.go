package app

import (
	"certprep_backend/docs"
	"certprep_backend/internal/config"
	"certprep_backend/internal/middleware"
	"certprep_backend/internal/model"
	"certprep_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)
		authGroup.GET("/categories", c.question.Categories)

		// Exam catalog and the attempt lifecycle.
		authGroup.GET("/exams", c.exam.List)
		authGroup.GET("/exams/:id", c.exam.Get)
		authGroup.POST("/exams/:id/attempts", c.attempt.Start)

		authGroup.GET("/attempts", c.attempt.History)
		authGroup.GET("/attempts/:id/questions/:index", c.attempt.Question)
		authGroup.POST("/attempts/:id/answers", c.attempt.SaveAnswers)
		authGroup.POST("/attempts/:id/submit", c.attempt.Submit)
		authGroup.GET("/attempts/:id/result", c.attempt.Result)

		authGroup.GET("/subscriptions", c.subscription.Mine)
	}

	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin, model.Teacher))
	{
		admin.POST("/categories", c.question.CreateCategory)

		admin.GET("/questions", c.question.List)
		admin.POST("/questions", c.question.Create)
		admin.GET("/questions/:id", c.question.Get)
		admin.PUT("/questions/:id", c.question.Update)
		admin.DELETE("/questions/:id", c.question.Deactivate)
		admin.POST("/questions/:id/image", c.question.UploadImage)

		admin.POST("/exams", c.exam.Create)
		admin.PUT("/exams/:id", c.exam.Update)
		admin.PUT("/exams/:id/allocations", c.exam.SetAllocations)
		admin.POST("/exams/:id/publish", c.exam.Publish)

		admin.POST("/subscriptions", c.subscription.Grant)
		admin.DELETE("/subscriptions", c.subscription.Revoke)
	}
}
