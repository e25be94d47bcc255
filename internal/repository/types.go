package repository

import "time"

// BonusTransactionListFilter 查询奖励金流水的过滤条件
type BonusTransactionListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Type        string
	Source      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// BonusWithdrawalListFilter 查询提现申请的过滤条件
type BonusWithdrawalListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// CommissionListFilter 查询合作伙伴佣金的过滤条件
type CommissionListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Status   string
}
