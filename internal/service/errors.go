package service

import "errors"

// 账本核心错误
var (
	ErrUserNotFound             = errors.New("用户不存在")
	ErrBonusInvalidAmount       = errors.New("奖励金金额无效")
	ErrBonusSourceRequired      = errors.New("奖励金来源缺失")
	ErrBonusInsufficientBalance = errors.New("奖励金余额不足")
	ErrBonusBalanceUpdateFailed = errors.New("奖励金余额更新失败")
	ErrBonusTxnCreateFailed     = errors.New("奖励金流水创建失败")
)

// 佣金兑换错误
var (
	ErrCommissionNotFound    = errors.New("佣金记录不存在")
	ErrCommissionNotOwned    = errors.New("佣金记录不属于当前用户")
	ErrCommissionNotApproved = errors.New("佣金状态不允许兑换")
)

// 提现错误
var (
	ErrWithdrawBelowMinimum = errors.New("提现金额低于最低限额")
	ErrWithdrawCreateFailed = errors.New("提现申请创建失败")
	ErrTaxStatusInvalid     = errors.New("税务身份无效")
)

// 汇率错误
var (
	ErrRateInvalid = errors.New("汇率无效")
)
