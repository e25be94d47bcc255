package service

import (
	"errors"
	"fmt"

	"github.com/medialoom/bonusledger/internal/config"
	"github.com/medialoom/bonusledger/internal/constants"
	"github.com/medialoom/bonusledger/internal/logger"
	"github.com/medialoom/bonusledger/internal/models"
	"github.com/medialoom/bonusledger/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// errReferralNotEligible 事务内中止发放的内部信号，对调用方表现为静默跳过
var errReferralNotEligible = errors.New("推荐奖励不满足发放条件")

// ReferralService 推荐奖励服务
//
// 被推荐用户完成首次消费后，按消费金额比例给推荐人发放一次性奖励。
// 不满足条件时静默跳过（返回 nil 流水且无错误），事件源无需区分原因。
type ReferralService struct {
	userRepo    repository.UserRepository
	bonusRepo   repository.BonusRepository
	paymentRepo repository.PaymentRepository
	bonusSvc    *BonusService
	cfg         config.BonusConfig
}

// NewReferralService 创建推荐奖励服务
func NewReferralService(
	userRepo repository.UserRepository,
	bonusRepo repository.BonusRepository,
	paymentRepo repository.PaymentRepository,
	bonusSvc *BonusService,
	cfg config.BonusConfig,
) *ReferralService {
	return &ReferralService{
		userRepo:    userRepo,
		bonusRepo:   bonusRepo,
		paymentRepo: paymentRepo,
		bonusSvc:    bonusSvc,
		cfg:         cfg,
	}
}

// GrantReferralBonus 为被推荐用户的首次消费向推荐人发放奖励
//
// 资格校验与发放在同一事务内完成：先锁推荐人行，再做首单与重复发放
// 判定，并发的结算事件在行锁上互斥，保证同一被推荐用户最多发放一次。
func (s *ReferralService) GrantReferralBonus(referredUserID uint, purchaseAmount models.Money) (*models.BonusTransaction, error) {
	user, err := s.userRepo.GetByID(referredUserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		logger.Warnw("referral_bonus_user_missing", "referred_user_id", referredUserID)
		return nil, nil
	}
	if user.ReferrerID == nil || *user.ReferrerID == 0 {
		return nil, nil
	}
	referrerID := *user.ReferrerID

	bonus := purchaseAmount.Decimal.
		Mul(decimal.NewFromFloat(s.cfg.ReferralPercent)).
		Div(percentBase).
		Round(2)
	if bonus.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}

	var txn *models.BonusTransaction
	err = s.bonusRepo.Transaction(func(tx *gorm.DB) error {
		referrer, err := s.userRepo.WithTx(tx).GetByIDForUpdate(referrerID)
		if err != nil {
			return err
		}
		if referrer == nil {
			logger.Warnw("referral_bonus_referrer_missing",
				"referrer_id", referrerID,
				"referred_user_id", referredUserID,
			)
			return errReferralNotEligible
		}

		firstPurchase, err := s.isFirstPurchase(tx, referredUserID)
		if err != nil {
			return err
		}
		if !firstPurchase {
			return errReferralNotEligible
		}

		granted, err := s.bonusRepo.WithTx(tx).HasTransactionByReference(
			referrerID, constants.BonusSourceReferral, referredUserID, constants.BonusRefTypeUser)
		if err != nil {
			return err
		}
		if granted {
			return errReferralNotEligible
		}

		referredRef := referredUserID
		txn, err = s.bonusSvc.EarnBonusesInTx(tx, BonusEarnInput{
			UserID:        referrerID,
			Amount:        models.NewMoneyFromDecimal(bonus),
			Source:        constants.BonusSourceReferral,
			ReferenceID:   &referredRef,
			ReferenceType: constants.BonusRefTypeUser,
			Description:   fmt.Sprintf("推荐用户 #%d 首次消费奖励", referredUserID),
			Metadata: models.JSON{
				"purchase_amount": purchaseAmount.String(),
			},
		})
		return err
	})
	if errors.Is(err, errReferralNotEligible) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	logger.Infow("referral_bonus_granted",
		"referrer_id", referrerID,
		"referred_user_id", referredUserID,
		"amount", bonus.StringFixed(2),
	)
	return txn, nil
}

// isFirstPurchase 在事务内判断是否首次消费：无历史奖励金消费流水，且已完成支付不超过一笔
func (s *ReferralService) isFirstPurchase(tx *gorm.DB, userID uint) (bool, error) {
	spentCount, err := s.bonusRepo.WithTx(tx).CountTransactionsByUserAndType(userID, constants.BonusTxnTypeSpent)
	if err != nil {
		return false, err
	}
	if spentCount > 0 {
		return false, nil
	}
	completedPayments, err := s.paymentRepo.WithTx(tx).CountCompletedByUser(userID)
	if err != nil {
		return false, err
	}
	return completedPayments <= 1, nil
}
