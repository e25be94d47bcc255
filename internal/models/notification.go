package models

import (
	"time"
)

// Notification 站内通知（过期提醒任务按标题在 24 小时窗口内去重）
type Notification struct {
	ID        uint      `gorm:"primarykey" json:"id"`                          // 主键
	UserID    uint      `gorm:"not null;index" json:"user_id"`                 // 接收用户ID
	Title     string    `gorm:"type:varchar(128);not null;index" json:"title"` // 标题
	Body      string    `gorm:"type:varchar(512);default:''" json:"body"`      // 内容
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`         // 已读标记
	CreatedAt time.Time `gorm:"index" json:"created_at"`                       // 创建时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
