package service

import (
	"strings"
	"time"

	"github.com/medialoom/bonusledger/internal/config"
	"github.com/medialoom/bonusledger/internal/constants"
	"github.com/medialoom/bonusledger/internal/models"
	"github.com/medialoom/bonusledger/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var percentBase = decimal.NewFromInt(100)

// BonusService 奖励金账本核心服务
//
// 所有余额变更都在单个数据库事务内完成：加锁读取用户行、校验、
// 更新物化余额并写入不可变流水。余额字段始终等于该用户全部流水金额之和。
type BonusService struct {
	bonusRepo repository.BonusRepository
	userRepo  repository.UserRepository
	auditSvc  *AuditService
	cfg       config.BonusConfig
}

// BonusEarnInput 入账输入
type BonusEarnInput struct {
	UserID        uint
	Amount        models.Money
	Source        string
	ReferenceID   *uint
	ReferenceType string
	Description   string
	ExpiresAt     *time.Time
	Metadata      models.JSON
}

// BonusSpendInput 消费输入
type BonusSpendInput struct {
	UserID        uint
	Amount        models.Money
	Source        string
	ReferenceID   *uint
	ReferenceType string
	Description   string
	Metadata      models.JSON
}

// BonusAdjustInput 管理员余额调整输入
type BonusAdjustInput struct {
	UserID   uint
	Delta    models.Money
	Reason   string
	AdminID  uint
	Metadata models.JSON
}

// NewBonusService 创建奖励金账本服务
func NewBonusService(
	bonusRepo repository.BonusRepository,
	userRepo repository.UserRepository,
	auditSvc *AuditService,
	cfg config.BonusConfig,
) *BonusService {
	return &BonusService{
		bonusRepo: bonusRepo,
		userRepo:  userRepo,
		auditSvc:  auditSvc,
		cfg:       cfg,
	}
}

// EarnBonuses 为用户入账奖励金
func (s *BonusService) EarnBonuses(input BonusEarnInput) (*models.BonusTransaction, error) {
	var result *models.BonusTransaction
	if err := s.bonusRepo.Transaction(func(tx *gorm.DB) error {
		txn, err := s.EarnBonusesInTx(tx, input)
		if err != nil {
			return err
		}
		result = txn
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// EarnBonusesInTx 在事务内入账奖励金（供佣金/推荐/活动桥接组合调用）
func (s *BonusService) EarnBonusesInTx(tx *gorm.DB, input BonusEarnInput) (*models.BonusTransaction, error) {
	if tx == nil {
		return nil, ErrBonusTxnCreateFailed
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrBonusInvalidAmount
	}
	source, err := resolveBonusSource(input.Source)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	expiresAt := input.ExpiresAt
	if expiresAt == nil {
		deadline := now.AddDate(0, 0, s.cfg.ExpiryDays)
		expiresAt = &deadline
	}

	userRepo := s.userRepo.WithTx(tx)
	user, err := userRepo.GetByIDForUpdate(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	before := user.BonusBalance.Decimal.Round(2)
	after := before.Add(amount).Round(2)
	if err := userRepo.UpdateBonusBalance(user.ID, models.NewMoneyFromDecimal(after)); err != nil {
		return nil, ErrBonusBalanceUpdateFailed
	}

	txn := &models.BonusTransaction{
		UserID:        user.ID,
		Type:          constants.BonusTxnTypeEarned,
		Amount:        models.NewMoneyFromDecimal(amount),
		Source:        source,
		ReferenceID:   input.ReferenceID,
		ReferenceType: input.ReferenceType,
		Description:   cleanBonusDescription(input.Description, "奖励金入账"),
		ExpiresAt:     expiresAt,
		Metadata:      input.Metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.bonusRepo.WithTx(tx).CreateTransaction(txn); err != nil {
		return nil, ErrBonusTxnCreateFailed
	}
	return txn, nil
}

// SpendBonuses 消费用户奖励金
func (s *BonusService) SpendBonuses(input BonusSpendInput) (*models.BonusTransaction, error) {
	var result *models.BonusTransaction
	if err := s.bonusRepo.Transaction(func(tx *gorm.DB) error {
		txn, err := s.SpendBonusesInTx(tx, input)
		if err != nil {
			return err
		}
		result = txn
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// SpendBonusesInTx 在事务内消费奖励金（余额不足校验与扣减同锁完成）
func (s *BonusService) SpendBonusesInTx(tx *gorm.DB, input BonusSpendInput) (*models.BonusTransaction, error) {
	if tx == nil {
		return nil, ErrBonusTxnCreateFailed
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrBonusInvalidAmount
	}
	source, err := resolveBonusSource(input.Source)
	if err != nil {
		return nil, err
	}

	userRepo := s.userRepo.WithTx(tx)
	user, err := userRepo.GetByIDForUpdate(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	before := user.BonusBalance.Decimal.Round(2)
	if before.LessThan(amount) {
		return nil, ErrBonusInsufficientBalance
	}
	after := before.Sub(amount).Round(2)
	if err := userRepo.UpdateBonusBalance(user.ID, models.NewMoneyFromDecimal(after)); err != nil {
		return nil, ErrBonusBalanceUpdateFailed
	}

	now := time.Now()
	txn := &models.BonusTransaction{
		UserID:        user.ID,
		Type:          constants.BonusTxnTypeSpent,
		Amount:        models.NewMoneyFromDecimal(amount.Neg()),
		Source:        source,
		ReferenceID:   input.ReferenceID,
		ReferenceType: input.ReferenceType,
		Description:   cleanBonusDescription(input.Description, "奖励金消费"),
		Metadata:      input.Metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.bonusRepo.WithTx(tx).CreateTransaction(txn); err != nil {
		return nil, ErrBonusTxnCreateFailed
	}
	return txn, nil
}

// ValidateSpend 只读校验余额是否足够支付指定金额
func (s *BonusService) ValidateSpend(userID uint, amount models.Money) (bool, error) {
	normalized := amount.Decimal.Round(2)
	if normalized.LessThanOrEqual(decimal.Zero) {
		return false, ErrBonusInvalidAmount
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, ErrUserNotFound
	}
	return user.BonusBalance.Decimal.GreaterThanOrEqual(normalized), nil
}

// AdjustBalance 管理员带符号调整余额（负向调整不允许把余额打到零以下）
func (s *BonusService) AdjustBalance(input BonusAdjustInput) (*models.BonusTransaction, error) {
	delta := input.Delta.Decimal.Round(2)
	if delta.IsZero() {
		return nil, ErrBonusInvalidAmount
	}

	var result *models.BonusTransaction
	if err := s.bonusRepo.Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		user, err := userRepo.GetByIDForUpdate(input.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		before := user.BonusBalance.Decimal.Round(2)
		after := before.Add(delta).Round(2)
		if after.LessThan(decimal.Zero) {
			return ErrBonusInsufficientBalance
		}
		if err := userRepo.UpdateBonusBalance(user.ID, models.NewMoneyFromDecimal(after)); err != nil {
			return ErrBonusBalanceUpdateFailed
		}

		now := time.Now()
		var expiresAt *time.Time
		if delta.GreaterThan(decimal.Zero) {
			deadline := now.AddDate(0, 0, s.cfg.ExpiryDays)
			expiresAt = &deadline
		}
		metadata := models.JSON{}
		for k, v := range input.Metadata {
			metadata[k] = v
		}
		metadata["admin_id"] = input.AdminID
		metadata["reason"] = strings.TrimSpace(input.Reason)

		adminID := input.AdminID
		txn := &models.BonusTransaction{
			UserID:        user.ID,
			Type:          constants.BonusTxnTypeAdjustment,
			Amount:        models.NewMoneyFromDecimal(delta),
			Source:        constants.BonusSourceAdmin,
			ReferenceID:   &adminID,
			ReferenceType: constants.BonusRefTypeAdmin,
			Description:   cleanBonusDescription(input.Reason, "管理员调整奖励金"),
			ExpiresAt:     expiresAt,
			Metadata:      metadata,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.bonusRepo.WithTx(tx).CreateTransaction(txn); err != nil {
			return ErrBonusTxnCreateFailed
		}
		result = txn
		return nil
	}); err != nil {
		return nil, err
	}

	targetID := input.UserID
	s.auditSvc.Record(input.AdminID, "bonus_adjust", &targetID, models.JSON{
		"delta":  result.Amount.String(),
		"reason": strings.TrimSpace(input.Reason),
	})
	return result, nil
}

// GetBalance 查询用户奖励金余额
func (s *BonusService) GetBalance(userID uint) (models.Money, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return models.NewMoneyFromDecimal(decimal.Zero), err
	}
	if user == nil {
		return models.NewMoneyFromDecimal(decimal.Zero), ErrUserNotFound
	}
	return user.BonusBalance, nil
}

// ListTransactions 分页查询奖励金流水
func (s *BonusService) ListTransactions(filter repository.BonusTransactionListFilter) ([]models.BonusTransaction, int64, error) {
	return s.bonusRepo.ListTransactions(filter)
}

// CalculateMaxApplicable 计算下单时最多可抵扣的奖励金
//
// 取余额、订单金额 × 抵扣比例上限、订单金额三者的最小值，向下取整到分，
// 保证抵扣后实付金额不会为负。
func (s *BonusService) CalculateMaxApplicable(userID uint, orderTotal models.Money) (models.Money, error) {
	total := orderTotal.Decimal.Round(2)
	if total.LessThanOrEqual(decimal.Zero) {
		return models.NewMoneyFromDecimal(decimal.Zero), nil
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return models.NewMoneyFromDecimal(decimal.Zero), err
	}
	if user == nil {
		return models.NewMoneyFromDecimal(decimal.Zero), ErrUserNotFound
	}

	balance := user.BonusBalance.Decimal.Round(2)
	percentCap := total.Mul(decimal.NewFromFloat(s.cfg.MaxCheckoutPercent)).Div(percentBase)

	max := balance
	if percentCap.LessThan(max) {
		max = percentCap
	}
	if total.LessThan(max) {
		max = total
	}
	if max.LessThan(decimal.Zero) {
		max = decimal.Zero
	}
	return models.NewMoneyFromDecimal(max.RoundDown(2)), nil
}

// resolveBonusSource 流水来源必填，缺失直接拒绝而不是猜测归类
func resolveBonusSource(source string) (string, error) {
	normalized := strings.TrimSpace(source)
	if normalized == "" {
		return "", ErrBonusSourceRequired
	}
	return normalized, nil
}

func cleanBonusDescription(raw string, fallback string) string {
	description := strings.TrimSpace(raw)
	if description == "" {
		return fallback
	}
	return description
}
