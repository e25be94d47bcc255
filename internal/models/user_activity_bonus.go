package models

import (
	"time"
)

// UserActivityBonus 一次性活动奖励领取记录
//
// (user_id, activity_type) 唯一索引是防重发的唯一机制：插入冲突即视为已领取。
type UserActivityBonus struct {
	ID           uint      `gorm:"primarykey" json:"id"`                                                                       // 主键
	UserID       uint      `gorm:"not null;index;index:idx_user_activity_bonus_unique,unique" json:"user_id"`                  // 用户ID
	ActivityType string    `gorm:"type:varchar(64);not null;index:idx_user_activity_bonus_unique,unique" json:"activity_type"` // 活动类型
	CreatedAt    time.Time `json:"created_at"`                                                                                 // 领取时间
}

// TableName 指定表名
func (UserActivityBonus) TableName() string {
	return "user_activity_bonuses"
}
