package model

import (
	"encoding/json"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple-choice"
	TrueFalse      QuestionType = "true-false"
	FillInTheBlank QuestionType = "fill-in-the-blank"
)

// QuestionSpec 题目的存储形态，评分前由 grading.FromSpecs 转换为具体题型
type QuestionSpec struct {
	Type          QuestionType    `json:"type"`
	Prompt        string          `json:"prompt"`
	Options       []string        `json:"options,omitempty"`
	CorrectAnswer json.RawMessage `json:"correctAnswer"`
}

// Quiz 创建后不可修改；重新生成测验会插入新版本，当前版本为最新创建的一条
// swagger:model Quiz
type Quiz struct {
	BaseModel
	CourseID     uint                              `gorm:"index;not null" json:"courseId"`
	Questions    datatypes.JSONSlice[QuestionSpec] `json:"questions"`
	PassingScore int                               `gorm:"not null" json:"passingScore"`
	CreatorID    uint                              `gorm:"index" json:"creatorId"`
}

func (Quiz) TableName() string {
	return "quizzes"
}
