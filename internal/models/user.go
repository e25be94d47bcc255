package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（余额字段仅允许账本服务修改）
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                       // 主键
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`                          // 邮箱
	DisplayName  string         `gorm:"default:''" json:"display_name"`                             // 昵称
	Status       string         `gorm:"default:'active'" json:"status"`                             // 账号状态
	BonusBalance Money          `gorm:"type:decimal(20,2);not null;default:0" json:"bonus_balance"` // 奖励金余额（交易流水之和的物化缓存）
	ReferrerID   *uint          `gorm:"index" json:"referrer_id,omitempty"`                         // 推荐人用户ID
	TaxStatus    string         `gorm:"type:varchar(32);default:'individual'" json:"tax_status"`    // 税务身份
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                                    // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
