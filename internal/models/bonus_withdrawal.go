package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BonusWithdrawal 奖励金提现申请（创建后的状态流转由管理端负责）
type BonusWithdrawal struct {
	ID             uint            `gorm:"primarykey" json:"id"`                                     // 主键
	WithdrawNo     string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"withdraw_no"` // 提现单号
	UserID         uint            `gorm:"not null;index" json:"user_id"`                            // 用户ID
	BonusAmount    Money           `gorm:"type:decimal(20,2);not null" json:"bonus_amount"`          // 提现的奖励金数额
	RateUsed       decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"rate_used"`             // 结算时使用的汇率快照
	CurrencyAmount Money           `gorm:"type:decimal(20,2);not null" json:"currency_amount"`       // 折算后的货币金额
	Currency       string          `gorm:"type:varchar(10);not null" json:"currency"`                // 结算币种
	TaxStatus      string          `gorm:"type:varchar(32);not null" json:"tax_status"`              // 税务身份
	TaxAmount      Money           `gorm:"type:decimal(20,2);not null" json:"tax_amount"`            // 代扣税额
	NetAmount      Money           `gorm:"type:decimal(20,2);not null" json:"net_amount"`            // 税后净额
	PaymentDetails string          `gorm:"type:varchar(255);default:''" json:"payment_details"`      // 收款信息
	Status         string          `gorm:"type:varchar(32);not null;index" json:"status"`            // 状态
	ProcessedBy    *uint           `gorm:"index" json:"processed_by,omitempty"`                      // 处理人（管理员）
	ProcessedAt    *time.Time      `json:"processed_at,omitempty"`                                   // 处理时间
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt      time.Time       `json:"updated_at"`                                               // 更新时间
}

// TableName 指定表名
func (BonusWithdrawal) TableName() string {
	return "bonus_withdrawals"
}
