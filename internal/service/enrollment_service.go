package service

import (
	"context"
	"errors"
	"learnhub_backend/internal/grading"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type EnrollmentService struct {
	DB             *gorm.DB
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
}

func NewEnrollmentService(db *gorm.DB, enrollmentRepo *repository.EnrollmentRepository, courseRepo *repository.CourseRepository) *EnrollmentService {
	return &EnrollmentService{DB: db, EnrollmentRepo: enrollmentRepo, CourseRepo: courseRepo}
}

// Enroll 幂等：已报名时直接返回已有记录
func (s *EnrollmentService) Enroll(ctx context.Context, userID, courseID uint) (*model.Enrollment, bool, error) {
	if _, err := s.CourseRepo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, util.ErrCourseNotFound
		}
		return nil, false, err
	}

	existing, err := s.EnrollmentRepo.FindByUserAndCourse(ctx, nil, userID, courseID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	enrollment := &model.Enrollment{
		UserID:   userID,
		CourseID: courseID,
	}
	if err := s.EnrollmentRepo.Create(ctx, nil, enrollment); err != nil {
		// 并发报名撞上唯一索引时，读回已存在的记录
		if existing, findErr := s.EnrollmentRepo.FindByUserAndCourse(ctx, nil, userID, courseID); findErr == nil {
			return existing, false, nil
		}
		return nil, false, err
	}

	logger.Log.Info("user enrolled", zap.Uint("user_id", userID), zap.Uint("course_id", courseID))
	return enrollment, true, nil
}

func (s *EnrollmentService) GetEnrollment(ctx context.Context, userID, courseID uint) (*model.Enrollment, error) {
	e, err := s.EnrollmentRepo.FindByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}
	return e, nil
}

// CompleteLesson 记录完成的课时并重新计算进度。进度只增不减，
// 也不会改变 IsCompleted（完成状态只由及格的测验触发）。
func (s *EnrollmentService) CompleteLesson(ctx context.Context, userID, courseID uint, lessonID string) (*model.Enrollment, error) {
	lessonID = strings.TrimSpace(lessonID)
	if lessonID == "" {
		return nil, util.ErrInvalidLesson
	}

	course, err := s.CourseRepo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	var enrollment *model.Enrollment
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := s.EnrollmentRepo.FindByUserAndCourseForUpdate(ctx, tx, userID, courseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrNotEnrolled
			}
			return err
		}
		enrollment = e

		if e.HasCompletedLesson(lessonID) {
			return nil
		}
		e.CompletedLessons = append(e.CompletedLessons, lessonID)
		if p := lessonProgress(len(e.CompletedLessons), course.LessonCount); p > e.Progress {
			e.Progress = p
		}
		return s.EnrollmentRepo.UpdateLessons(ctx, tx, e)
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

func lessonProgress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return grading.Score(min(completed, total), total)
}
