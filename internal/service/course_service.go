package service

import (
	"context"
	"errors"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"

	"gorm.io/gorm"
)

type CourseService struct {
	Repo *repository.CourseRepository
}

func NewCourseService(repo *repository.CourseRepository) *CourseService {
	return &CourseService{Repo: repo}
}

type CourseReq struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	LessonCount int    `json:"lessonCount" binding:"min=0"`
}

func (s *CourseService) CreateCourse(ctx context.Context, creatorID uint, req CourseReq) (*model.Course, error) {
	course := &model.Course{
		Title:       req.Title,
		Description: req.Description,
		LessonCount: req.LessonCount,
		CreatorID:   creatorID,
	}
	if err := s.Repo.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) GetCourse(ctx context.Context, id uint) (*model.Course, error) {
	course, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}
