package repository

import (
	"context"
	"learnhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnrollmentRepository 方法的 tx 参数可为 nil，此时使用 r.DB
type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.DB
}

func (r *EnrollmentRepository) Create(ctx context.Context, tx *gorm.DB, enrollment *model.Enrollment) error {
	return r.conn(tx).WithContext(ctx).Create(enrollment).Error
}

func (r *EnrollmentRepository) FindByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// FindByUserAndCourseForUpdate 行锁读取（sqlite 下锁子句会被忽略，写操作本身串行）
func (r *EnrollmentRepository) FindByUserAndCourseForUpdate(ctx context.Context, tx *gorm.DB, userID, courseID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.conn(tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// MarkCompleted 条件更新，只有 is_completed 仍为 false 时才会生效。
// 返回值表示本次调用是否真正完成了状态切换。
func (r *EnrollmentRepository) MarkCompleted(ctx context.Context, tx *gorm.DB, enrollmentID uint, at time.Time) (bool, error) {
	res := r.conn(tx).WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("id = ? AND is_completed = ?", enrollmentID, false).
		Updates(map[string]interface{}{
			"is_completed": true,
			"completed_at": at,
			"progress":     100,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *EnrollmentRepository) UpdateLessons(ctx context.Context, tx *gorm.DB, e *model.Enrollment) error {
	return r.conn(tx).WithContext(ctx).
		Model(e).
		Select("completed_lessons", "progress").
		Updates(e).Error
}
