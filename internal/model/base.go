package model

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel 不做软删除：报名的唯一索引和作答记录都要求行真实存在
// swagger:model
type BaseModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewAttemptID 作答记录主键，UUIDv7 按时间有序
func NewAttemptID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
