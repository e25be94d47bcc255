package constants

// 奖励金交易类型常量
const (
	BonusTxnTypeEarned     = "earned"
	BonusTxnTypeSpent      = "spent"
	BonusTxnTypeAdjustment = "adjustment"
	BonusTxnTypeExpired    = "expired"
	BonusTxnTypeWithdrawn  = "withdrawn"
)

// 奖励金来源常量
const (
	BonusSourcePartner  = "partner"
	BonusSourcePromo    = "promo"
	BonusSourceRefund   = "refund"
	BonusSourceActivity = "activity"
	BonusSourceReferral = "referral_bonus"
	BonusSourceAdmin    = "admin"
	BonusSourceCheckout = "checkout"
	BonusSourceWithdraw = "withdraw"
	BonusSourceExpiry   = "expiry"
)

// 交易关联实体类型常量
const (
	BonusRefTypeOrder      = "order"
	BonusRefTypeCommission = "partner_commission"
	BonusRefTypeUser       = "user"
	BonusRefTypeWithdrawal = "bonus_withdrawal"
	BonusRefTypeAdmin      = "admin"
	BonusRefTypeActivity   = "activity"
)

// 合作伙伴佣金状态常量
const (
	CommissionStatusPending  = "pending"
	CommissionStatusApproved = "approved"
	CommissionStatusPaid     = "paid"
	CommissionStatusRejected = "rejected"
)

// 提现申请状态常量
const (
	WithdrawalStatusPending    = "pending"
	WithdrawalStatusApproved   = "approved"
	WithdrawalStatusProcessing = "processing"
	WithdrawalStatusCompleted  = "completed"
	WithdrawalStatusRejected   = "rejected"
)

// 税务身份常量
const (
	TaxStatusIndividual   = "individual"
	TaxStatusSelfEmployed = "self_employed"
	TaxStatusEntrepreneur = "entrepreneur"
	TaxStatusCompany      = "company"
)

// 活动类型常量（具体金额与一次性标记见配置）
const (
	ActivityFirstPurchase    = "first_purchase"
	ActivityProfileCompleted = "profile_completed"
	ActivityDailyStreak      = "daily_streak"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 支付状态常量（支付记录由订单子系统维护，这里只读）
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskBonusExpire     = "bonus:expire"
	TaskBonusExpiryWarn = "bonus:expiry_warn"
	TaskActivityGrant   = "bonus:activity_grant"
	TaskPurchaseSettled = "bonus:purchase_settled"
)
