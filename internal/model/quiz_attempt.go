package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnswerResult 单题评分结果
type AnswerResult struct {
	QuestionIndex int             `json:"questionIndex"`
	UserAnswer    json.RawMessage `json:"userAnswer"`
	CorrectAnswer json.RawMessage `json:"correctAnswer"`
	IsCorrect     bool            `json:"isCorrect"`
}

// QuizAttempt 只追加，不更新也不删除
// swagger:model QuizAttempt
type QuizAttempt struct {
	ID           string                            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       uint                              `gorm:"index:idx_attempt_user_quiz;not null" json:"userId"`
	QuizID       uint                              `gorm:"index:idx_attempt_user_quiz;not null" json:"quizId"`
	EnrollmentID uint                              `gorm:"index;not null" json:"enrollmentId"`
	Answers      datatypes.JSON                    `json:"answers"`
	Results      datatypes.JSONSlice[AnswerResult] `json:"results"`
	Score        int                               `gorm:"not null" json:"score"`
	Passed       bool                              `gorm:"not null" json:"passed"`
	AttemptedAt  time.Time                         `gorm:"not null;index" json:"attemptedAt"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = NewAttemptID()
	}
	return
}
