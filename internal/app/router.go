package app

import (
	"learnhub_backend/docs"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/middleware"
	"learnhub_backend/internal/model"
	"learnhub_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	router.GET("/api/health", c.health.HealthCheck)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	// 课程与报名
	rg.GET("/courses/:courseId", c.course.GetCourse)
	rg.POST("/courses/:courseId/enroll", c.enrollment.Enroll)
	rg.GET("/courses/:courseId/enrollment", c.enrollment.GetEnrollment)
	rg.POST("/courses/:courseId/lessons/:lessonId/complete", c.enrollment.CompleteLesson)

	// 测验
	rg.GET("/courses/:courseId/quiz", c.quiz.GetCurrentQuiz)
	rg.POST("/courses/:courseId/quizzes/:quizId/submit", c.quiz.SubmitQuiz)
	rg.POST("/quizzes/:quizId/submit", c.quiz.SubmitQuiz)
	rg.POST("/quiz/submit", c.quiz.SubmitQuiz)
	rg.GET("/quizzes/:quizId/attempts", c.quiz.ListAttempts)
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	teacher := rg.Group("/teacher")
	teacher.Use(middleware.RoleMiddleware(model.Teacher))
	{
		teacher.POST("/courses", c.course.CreateCourse)
		teacher.POST("/courses/:courseId/quizzes", c.quiz.CreateQuiz)
	}
}
