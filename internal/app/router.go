package app

import (
	"examforge_backend/docs"
	"examforge_backend/internal/config"
	"examforge_backend/internal/middleware"
	"examforge_backend/internal/model"
	"examforge_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 考生路由：登录与否都可作答。匿名考生按 IP 计次，
	// 登录考生按邮箱计次，所以这里用可选认证。
	taking := router.Group("/api")
	taking.Use(middleware.TryAuthMiddleware(cfg))
	{
		taking.GET("/exams/:slug", c.exam.GetExam)
		taking.GET("/exams/:slug/can-take", c.attempt.CheckCanTake)
		taking.POST("/exams/:slug/attempts", c.attempt.StartAttempt)
		taking.PUT("/attempts/:id/answers/:questionId", c.attempt.SaveAnswer)
		taking.POST("/attempts/:id/submit", c.attempt.Submit)
		taking.GET("/attempts/:id/result", c.attempt.GetResult)
	}

	// 3. 教师路由：人工评分与统计
	teacher := router.Group("/api")
	teacher.Use(
		middleware.AuthMiddleware(cfg),
		middleware.ActivityMiddleware(repos.user),
		middleware.RoleMiddleware(model.Teacher, model.Admin),
	)
	{
		teacher.GET("/exams/:slug/pending-grading", c.grade.ListPendingGrading)
		teacher.POST("/answers/:id/grade", c.grade.GradeAnswer)
		teacher.GET("/exams/:slug/stats", c.stats.GetExamStats)
	}
}
