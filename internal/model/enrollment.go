package model

import (
	"time"

	"gorm.io/datatypes"
)

// Enrollment 每个 (user, course) 仅一条，IsCompleted 只会从 false 变为 true
// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	UserID           uint                        `gorm:"uniqueIndex:idx_enrollment_user_course;not null" json:"userId"`
	CourseID         uint                        `gorm:"uniqueIndex:idx_enrollment_user_course;not null" json:"courseId"`
	IsCompleted      bool                        `gorm:"default:false;not null" json:"isCompleted"`
	CompletedAt      *time.Time                  `json:"completedAt"`
	Progress         int                         `gorm:"default:0" json:"progress"`
	CompletedLessons datatypes.JSONSlice[string] `json:"completedLessons"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

func (e *Enrollment) HasCompletedLesson(lessonID string) bool {
	for _, id := range e.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}
