package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"learnhub_backend/internal/model"
	"learnhub_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuizRepository 测验创建后不可变，按 ID 读取时可放心走 redis 缓存
type QuizRepository struct {
	DB       *gorm.DB
	Redis    *redis.Client
	CacheTTL time.Duration
}

func NewQuizRepository(db *gorm.DB, rdb *redis.Client, cacheTTL time.Duration) *QuizRepository {
	return &QuizRepository{DB: db, Redis: rdb, CacheTTL: cacheTTL}
}

func quizCacheKey(id uint) string {
	return fmt.Sprintf("quiz:%d", id)
}

func (r *QuizRepository) Create(ctx context.Context, quiz *model.Quiz) error {
	return r.DB.WithContext(ctx).Create(quiz).Error
}

func (r *QuizRepository) FindByID(ctx context.Context, id uint) (*model.Quiz, error) {
	if quiz, ok := r.getCached(ctx, id); ok {
		return quiz, nil
	}

	var quiz model.Quiz
	if err := r.DB.WithContext(ctx).First(&quiz, "id = ?", id).Error; err != nil {
		return nil, err
	}

	r.setCached(ctx, &quiz)
	return &quiz, nil
}

// FindLatestByCourse 返回课程当前的测验版本（最新创建的一条）
func (r *QuizRepository) FindLatestByCourse(ctx context.Context, courseID uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at desc, id desc").
		First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) getCached(ctx context.Context, id uint) (*model.Quiz, bool) {
	if r.Redis == nil {
		return nil, false
	}

	data, err := r.Redis.Get(ctx, quizCacheKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("quiz cache read failed", zap.Uint("quiz_id", id), zap.Error(err))
		}
		return nil, false
	}

	var quiz model.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		logger.Log.Warn("quiz cache entry corrupted", zap.Uint("quiz_id", id), zap.Error(err))
		return nil, false
	}
	return &quiz, true
}

func (r *QuizRepository) setCached(ctx context.Context, quiz *model.Quiz) {
	if r.Redis == nil {
		return
	}

	data, err := json.Marshal(quiz)
	if err != nil {
		return
	}
	if err := r.Redis.Set(ctx, quizCacheKey(quiz.ID), data, r.CacheTTL).Err(); err != nil {
		logger.Log.Warn("quiz cache write failed", zap.Uint("quiz_id", quiz.ID), zap.Error(err))
	}
}
