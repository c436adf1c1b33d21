package controller

import (
	"context"
	"errors"
	"learnhub_backend/internal/grading"
	"learnhub_backend/internal/util"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// 超时后建议客户端的重试间隔
const retryAfter = 2 * time.Second

// respondError 把服务层错误映射为 HTTP 状态码
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrQuizNotFound),
		errors.Is(err, util.ErrCourseNotFound),
		errors.Is(err, util.ErrEnrollmentNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrNotEnrolled),
		errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx, err.Error())
	case errors.Is(err, grading.ErrMalformedAnswers),
		errors.Is(err, grading.ErrInvalidQuiz),
		errors.Is(err, grading.ErrInvalidQuestion),
		errors.Is(err, util.ErrInvalidPassingScore),
		errors.Is(err, util.ErrInvalidLesson):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		util.ServiceUnavailable(ctx, "Service temporarily unavailable, please retry", retryAfter)
	default:
		util.LogInternalError(ctx, err)
	}
}

// pathID 解析路径中的数字 ID，失败时直接写 400
func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
