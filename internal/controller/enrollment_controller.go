package controller

import (
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	Service *service.EnrollmentService
}

func NewEnrollmentController(svc *service.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{Service: svc}
}

// @Summary 报名课程
// @Description 重复报名返回已有记录（200），首次报名返回 201
// @Tags 报名模块
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Success 201 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /courses/{courseId}/enroll [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	enrollment, created, err := c.Service.Enroll(ctx.Request.Context(), user.UserID, courseID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	if created {
		util.Created(ctx, enrollment)
		return
	}
	util.Success(ctx, enrollment)
}

// @Summary 获取我的报名信息
// @Tags 报名模块
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /courses/{courseId}/enrollment [get]
func (c *EnrollmentController) GetEnrollment(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	enrollment, err := c.Service.GetEnrollment(ctx.Request.Context(), user.UserID, courseID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, enrollment)
}

// @Summary 完成课时
// @Description 记录完成的课时并更新学习进度，不会改变课程完成状态
// @Tags 报名模块
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param lessonId path string true "课时ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /courses/{courseId}/lessons/{lessonId}/complete [post]
func (c *EnrollmentController) CompleteLesson(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	enrollment, err := c.Service.CompleteLesson(ctx.Request.Context(), user.UserID, courseID, ctx.Param("lessonId"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, enrollment)
}
