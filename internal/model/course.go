package model

// swagger:model Course
type Course struct {
	BaseModel
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	LessonCount int    `gorm:"default:0" json:"lessonCount"` // 用于计算课程进度
	CreatorID   uint   `gorm:"index" json:"creatorId"`
}

func (Course) TableName() string {
	return "courses"
}
