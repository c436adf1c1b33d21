package controller

import (
	"context"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	Service *service.QuizService
	// 提交作答的请求级超时
	Timeout time.Duration
}

func NewQuizController(svc *service.QuizService, timeout time.Duration) *QuizController {
	return &QuizController{Service: svc, Timeout: timeout}
}

// @Summary 发布测验新版本
// @Description 每次发布都会新建一个版本，旧版本及其作答记录保持不变
// @Tags 测验模块
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param body body service.CreateQuizReq true "题目与及格线"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /teacher/courses/{courseId}/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	var req service.CreateQuizReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.Service.CreateQuiz(ctx.Request.Context(), user.UserID, courseID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, quiz)
}

// @Summary 获取课程当前测验
// @Description 返回最新版本，不包含正确答案
// @Tags 测验模块
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /courses/{courseId}/quiz [get]
func (c *QuizController) GetCurrentQuiz(ctx *gin.Context) {
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	view, err := c.Service.CurrentQuiz(ctx.Request.Context(), courseID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// @Summary 提交测验
// @Description 评分并记录作答；首次及格时课程标记为完成。quizId 可来自路径或请求体
// @Tags 测验模块
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param quizId path int false "测验ID"
// @Param courseId path int false "课程ID"
// @Param body body service.QuizSubmission true "作答，answers 按题目顺序排列"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /quizzes/{quizId}/submit [post]
// @Router /courses/{courseId}/quizzes/{quizId}/submit [post]
// @Router /quiz/submit [post]
func (c *QuizController) SubmitQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.QuizSubmission
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "invalid request body")
		return
	}

	// 路径参数优先于请求体
	if ctx.Param("courseId") != "" {
		courseID, ok := pathID(ctx, "courseId")
		if !ok {
			return
		}
		req.CourseID = &courseID
	}
	var quizID uint
	if ctx.Param("quizId") != "" {
		id, ok := pathID(ctx, "quizId")
		if !ok {
			return
		}
		quizID = id
	} else if req.QuizID != nil {
		quizID = *req.QuizID
	}
	if quizID == 0 {
		util.BadRequest(ctx, "quizId is required")
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), c.Timeout)
	defer cancel()

	result, err := c.Service.SubmitQuiz(reqCtx, user.UserID, quizID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 获取我的作答记录
// @Tags 测验模块
// @Produce json
// @Security ApiKeyAuth
// @Param quizId path int true "测验ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /quizzes/{quizId}/attempts [get]
func (c *QuizController) ListAttempts(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	quizID, ok := pathID(ctx, "quizId")
	if !ok {
		return
	}

	attempts, err := c.Service.ListAttempts(ctx.Request.Context(), user.UserID, quizID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"items": attempts, "total": len(attempts)})
}
