package models

import (
	"time"
)

// Payment 支付记录（由订单子系统维护，账本侧只读，
// 用于推荐奖励的首单判定）
type Payment struct {
	ID        uint      `gorm:"primarykey" json:"id"`                          // 主键
	UserID    uint      `gorm:"not null;index" json:"user_id"`                 // 用户ID
	Amount    Money     `gorm:"type:decimal(20,2);not null" json:"amount"`     // 支付金额
	Status    string    `gorm:"type:varchar(32);not null;index" json:"status"` // 支付状态
	CreatedAt time.Time `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                    // 更新时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
