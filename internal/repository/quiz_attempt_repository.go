package repository

import (
	"context"
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
)

// QuizAttemptRepository 只提供插入和查询，作答记录不可修改
type QuizAttemptRepository struct {
	DB *gorm.DB
}

func NewQuizAttemptRepository(db *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: db}
}

func (r *QuizAttemptRepository) Create(ctx context.Context, tx *gorm.DB, attempt *model.QuizAttempt) error {
	conn := r.DB
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).Create(attempt).Error
}

func (r *QuizAttemptRepository) ListByUserAndQuiz(ctx context.Context, userID, quizID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("attempted_at desc").
		Find(&attempts).Error
	return attempts, err
}

func (r *QuizAttemptRepository) CountByUserAndQuiz(ctx context.Context, userID, quizID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.QuizAttempt{}).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Count(&count).Error
	return count, err
}
