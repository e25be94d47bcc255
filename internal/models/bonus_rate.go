package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BonusRate 奖励金兑换汇率（按生效时间版本化）
type BonusRate struct {
	ID            uint            `gorm:"primarykey" json:"id"`                           // 主键
	FromCurrency  string          `gorm:"type:varchar(10);not null" json:"from_currency"` // 源币种（奖励金）
	ToCurrency    string          `gorm:"type:varchar(10);not null" json:"to_currency"`   // 目标币种
	Rate          decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"rate"`        // 汇率（非金额，保留 6 位）
	EffectiveFrom time.Time       `gorm:"not null;index" json:"effective_from"`           // 生效时间
	EffectiveTo   *time.Time      `gorm:"index" json:"effective_to,omitempty"`            // 失效时间（空为开放区间）
	IsActive      bool            `gorm:"not null;default:true;index" json:"is_active"`   // 是否启用
	CreatedAt     time.Time       `json:"created_at"`                                     // 创建时间
	UpdatedAt     time.Time       `json:"updated_at"`                                     // 更新时间
}

// TableName 指定表名
func (BonusRate) TableName() string {
	return "bonus_rates"
}
