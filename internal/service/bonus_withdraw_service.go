package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/medialoom/bonusledger/internal/config"
	"github.com/medialoom/bonusledger/internal/constants"
	"github.com/medialoom/bonusledger/internal/models"
	"github.com/medialoom/bonusledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BonusWithdrawService 奖励金提现服务
//
// 提现把奖励金按当前汇率折算为结算货币并按税务身份代扣税款。
// 提交时扣减余额、写入 withdrawn 流水并生成待审批的提现申请，
// 后续的打款状态流转由管理端负责。
type BonusWithdrawService struct {
	bonusRepo      repository.BonusRepository
	userRepo       repository.UserRepository
	withdrawalRepo repository.WithdrawalRepository
	rateSvc        *BonusRateService
	cfg            config.BonusConfig
}

// BonusWithdrawInput 提现申请输入
type BonusWithdrawInput struct {
	UserID         uint
	Amount         models.Money
	TaxStatus      string
	PaymentDetails string
}

// BonusWithdrawPreview 提现试算结果
type BonusWithdrawPreview struct {
	BonusAmount    models.Money    `json:"bonus_amount"`
	Rate           decimal.Decimal `json:"rate"`
	CurrencyAmount models.Money    `json:"currency_amount"`
	Currency       string          `json:"currency"`
	TaxStatus      string          `json:"tax_status"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	TaxAmount      models.Money    `json:"tax_amount"`
	NetAmount      models.Money    `json:"net_amount"`
}

// NewBonusWithdrawService 创建提现服务
func NewBonusWithdrawService(
	bonusRepo repository.BonusRepository,
	userRepo repository.UserRepository,
	withdrawalRepo repository.WithdrawalRepository,
	rateSvc *BonusRateService,
	cfg config.BonusConfig,
) *BonusWithdrawService {
	return &BonusWithdrawService{
		bonusRepo:      bonusRepo,
		userRepo:       userRepo,
		withdrawalRepo: withdrawalRepo,
		rateSvc:        rateSvc,
		cfg:            cfg,
	}
}

// PreviewWithdrawal 试算提现金额、税费与净额（只读，不产生任何变更）
func (s *BonusWithdrawService) PreviewWithdrawal(userID uint, amount models.Money, taxStatus string) (*BonusWithdrawPreview, error) {
	normalized := amount.Decimal.Round(2)
	if normalized.LessThanOrEqual(decimal.Zero) {
		return nil, ErrBonusInvalidAmount
	}
	if normalized.LessThan(decimal.NewFromFloat(s.cfg.MinWithdrawAmount)) {
		return nil, ErrWithdrawBelowMinimum
	}

	taxStatus = strings.TrimSpace(taxStatus)
	taxRateValue, ok := s.cfg.TaxRates[taxStatus]
	if !ok {
		return nil, ErrTaxStatusInvalid
	}
	taxRate := decimal.NewFromFloat(taxRateValue)

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.BonusBalance.Decimal.LessThan(normalized) {
		return nil, ErrBonusInsufficientBalance
	}

	rate, err := s.rateSvc.GetCurrentRate()
	if err != nil {
		return nil, err
	}
	currencyAmount := normalized.Mul(rate).Round(2)
	taxAmount := currencyAmount.Mul(taxRate).Round(2)
	netAmount := currencyAmount.Sub(taxAmount).Round(2)

	return &BonusWithdrawPreview{
		BonusAmount:    models.NewMoneyFromDecimal(normalized),
		Rate:           rate,
		CurrencyAmount: models.NewMoneyFromDecimal(currencyAmount),
		Currency:       s.cfg.ToCurrency,
		TaxStatus:      taxStatus,
		TaxRate:        taxRate,
		TaxAmount:      models.NewMoneyFromDecimal(taxAmount),
		NetAmount:      models.NewMoneyFromDecimal(netAmount),
	}, nil
}

// WithdrawBonusesToCurrency 提交提现申请
func (s *BonusWithdrawService) WithdrawBonusesToCurrency(input BonusWithdrawInput) (*models.BonusWithdrawal, error) {
	preview, err := s.PreviewWithdrawal(input.UserID, input.Amount, input.TaxStatus)
	if err != nil {
		return nil, err
	}
	amount := preview.BonusAmount.Decimal

	var result *models.BonusWithdrawal
	if err := s.bonusRepo.Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		user, err := userRepo.GetByIDForUpdate(input.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		// 试算与提交之间余额可能被并发消费，持锁后重新校验
		before := user.BonusBalance.Decimal.Round(2)
		if before.LessThan(amount) {
			return ErrBonusInsufficientBalance
		}
		after := before.Sub(amount).Round(2)
		if err := userRepo.UpdateBonusBalance(user.ID, models.NewMoneyFromDecimal(after)); err != nil {
			return ErrBonusBalanceUpdateFailed
		}

		now := time.Now()
		withdrawal := &models.BonusWithdrawal{
			WithdrawNo:     generateWithdrawNo(),
			UserID:         user.ID,
			BonusAmount:    preview.BonusAmount,
			RateUsed:       preview.Rate,
			CurrencyAmount: preview.CurrencyAmount,
			Currency:       preview.Currency,
			TaxStatus:      preview.TaxStatus,
			TaxAmount:      preview.TaxAmount,
			NetAmount:      preview.NetAmount,
			PaymentDetails: strings.TrimSpace(input.PaymentDetails),
			Status:         constants.WithdrawalStatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.withdrawalRepo.WithTx(tx).Create(withdrawal); err != nil {
			return ErrWithdrawCreateFailed
		}

		withdrawalRef := withdrawal.ID
		txn := &models.BonusTransaction{
			UserID:        user.ID,
			Type:          constants.BonusTxnTypeWithdrawn,
			Amount:        models.NewMoneyFromDecimal(amount.Neg()),
			Source:        constants.BonusSourceWithdraw,
			ReferenceID:   &withdrawalRef,
			ReferenceType: constants.BonusRefTypeWithdrawal,
			Description:   fmt.Sprintf("奖励金提现：%s", withdrawal.WithdrawNo),
			Metadata: models.JSON{
				"withdraw_no":     withdrawal.WithdrawNo,
				"rate":            preview.Rate.String(),
				"currency":        preview.Currency,
				"currency_amount": preview.CurrencyAmount.String(),
				"tax_status":      preview.TaxStatus,
				"tax_amount":      preview.TaxAmount.String(),
				"net_amount":      preview.NetAmount.String(),
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.bonusRepo.WithTx(tx).CreateTransaction(txn); err != nil {
			return ErrBonusTxnCreateFailed
		}
		result = withdrawal
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// GetWithdrawalByNo 按提现单号查询
func (s *BonusWithdrawService) GetWithdrawalByNo(withdrawNo string) (*models.BonusWithdrawal, error) {
	return s.withdrawalRepo.GetByWithdrawNo(withdrawNo)
}

// ListWithdrawals 分页查询提现申请
func (s *BonusWithdrawService) ListWithdrawals(filter repository.BonusWithdrawalListFilter) ([]models.BonusWithdrawal, int64, error) {
	return s.withdrawalRepo.List(filter)
}

func generateWithdrawNo() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:12]
	return fmt.Sprintf("BW%s%s", time.Now().Format("20060102"), suffix)
}
