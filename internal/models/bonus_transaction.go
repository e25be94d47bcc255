package models

import (
	"time"
)

// BonusTransaction 奖励金交易流水（不可变账本记录）
//
// amount 为带符号金额：earned/正向 adjustment 为正，spent/expired/withdrawn/
// 负向 adjustment 为负。过期引擎消费 earned 记录后会把 amount 置零作为
// 幂等标记，这是流水唯一允许的变更。
type BonusTransaction struct {
	ID            uint       `gorm:"primarykey" json:"id"`                              // 主键
	UserID        uint       `gorm:"not null;index" json:"user_id"`                     // 用户ID
	Type          string     `gorm:"type:varchar(20);not null;index" json:"type"`       // 交易类型
	Amount        Money      `gorm:"type:decimal(20,2);not null" json:"amount"`         // 带符号金额
	Source        string     `gorm:"type:varchar(32);not null;index" json:"source"`     // 来源
	ReferenceID   *uint      `gorm:"index" json:"reference_id,omitempty"`               // 关联实体ID
	ReferenceType string     `gorm:"type:varchar(32);default:''" json:"reference_type"` // 关联实体类型（按约定解释）
	Description   string     `gorm:"type:varchar(255);default:''" json:"description"`   // 描述
	ExpiresAt     *time.Time `gorm:"index" json:"expires_at,omitempty"`                 // 过期时间（仅 earned）
	Metadata      JSON       `gorm:"type:text" json:"metadata,omitempty"`               // 审计附加信息
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt     time.Time  `json:"updated_at"`                                        // 更新时间
}

// TableName 指定表名
func (BonusTransaction) TableName() string {
	return "bonus_transactions"
}
