package models

import (
	"time"
)

// PartnerCommission 合作伙伴佣金（由合作伙伴子系统生成与审批，
// 账本侧仅在兑换为奖励金时将 approved 流转为 paid）
type PartnerCommission struct {
	ID         uint       `gorm:"primarykey" json:"id"`                          // 主键
	UserID     uint       `gorm:"not null;index" json:"user_id"`                 // 佣金归属用户ID
	Amount     Money      `gorm:"type:decimal(20,2);not null" json:"amount"`     // 佣金金额（奖励金单位）
	Status     string     `gorm:"type:varchar(32);not null;index" json:"status"` // 状态
	Remark     string     `gorm:"type:varchar(255);default:''" json:"remark"`    // 备注
	ApprovedAt *time.Time `json:"approved_at,omitempty"`                         // 审批通过时间
	PaidAt     *time.Time `json:"paid_at,omitempty"`                             // 兑换入账时间
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt  time.Time  `json:"updated_at"`                                    // 更新时间
}

// TableName 指定表名
func (PartnerCommission) TableName() string {
	return "partner_commissions"
}
