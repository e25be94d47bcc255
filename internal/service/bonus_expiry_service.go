package service

import (
	"fmt"
	"time"

	"github.com/medialoom/bonusledger/internal/config"
	"github.com/medialoom/bonusledger/internal/constants"
	"github.com/medialoom/bonusledger/internal/logger"
	"github.com/medialoom/bonusledger/internal/models"
	"github.com/medialoom/bonusledger/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const expiryWarnDedupeWindow = 24 * time.Hour

// BonusExpiryService 奖励金过期引擎
//
// 扫描已到期且未消费的 earned 流水，按用户分组后逐用户在独立事务内结算：
// 扣减金额收敛到 min(余额, 到期总额)，写入 expired 流水并把来源流水金额
// 置零作为幂等标记。单个用户失败只记日志，不阻断整批。
type BonusExpiryService struct {
	bonusRepo       repository.BonusRepository
	userRepo        repository.UserRepository
	notificationSvc *NotificationService
	cfg             config.BonusConfig
}

// NewBonusExpiryService 创建过期引擎
func NewBonusExpiryService(
	bonusRepo repository.BonusRepository,
	userRepo repository.UserRepository,
	notificationSvc *NotificationService,
	cfg config.BonusConfig,
) *BonusExpiryService {
	return &BonusExpiryService{
		bonusRepo:       bonusRepo,
		userRepo:        userRepo,
		notificationSvc: notificationSvc,
		cfg:             cfg,
	}
}

// ProcessExpiringBonuses 处理全部到期奖励金，返回（过期流水数, 受影响用户数）
func (s *BonusExpiryService) ProcessExpiringBonuses() (int, int, error) {
	now := time.Now()
	candidates, err := s.bonusRepo.ListExpiringTransactions(now)
	if err != nil {
		return 0, 0, err
	}
	if len(candidates) == 0 {
		return 0, 0, nil
	}

	userIDs := make([]uint, 0)
	seen := make(map[uint]bool)
	for _, txn := range candidates {
		if !seen[txn.UserID] {
			seen[txn.UserID] = true
			userIDs = append(userIDs, txn.UserID)
		}
	}

	expiredTotal := 0
	affectedUsers := 0
	for _, userID := range userIDs {
		count, err := s.expireForUser(userID, now)
		if err != nil {
			logger.Errorw("bonus_expiry_user_failed", "user_id", userID, "error", err)
			continue
		}
		if count > 0 {
			expiredTotal += count
			affectedUsers++
		}
	}
	logger.Infow("bonus_expiry_finished",
		"expired_transactions", expiredTotal,
		"affected_users", affectedUsers,
	)
	return expiredTotal, affectedUsers, nil
}

// SendExpirationWarnings 为每个配置的提前天数发送过期提醒，返回发送数量
func (s *BonusExpiryService) SendExpirationWarnings() (int, error) {
	now := time.Now()
	sent := 0
	for _, leadDays := range s.cfg.WarningLeadDays {
		if leadDays <= 0 {
			continue
		}
		dayStart := startOfDay(now.AddDate(0, 0, leadDays))
		dayEnd := dayStart.Add(24 * time.Hour)
		txns, err := s.bonusRepo.ListTransactionsExpiringBetween(dayStart, dayEnd)
		if err != nil {
			return sent, err
		}
		if len(txns) == 0 {
			continue
		}

		totals := make(map[uint]decimal.Decimal)
		for _, txn := range txns {
			totals[txn.UserID] = totals[txn.UserID].Add(txn.Amount.Decimal)
		}

		title := fmt.Sprintf("奖励金即将过期提醒（%s）", dayStart.Format("2006-01-02"))
		for userID, total := range totals {
			body := fmt.Sprintf("您有 %s 奖励金将于 %s 过期，请尽快使用。",
				total.Round(2).StringFixed(2), dayStart.Format("2006-01-02"))
			created, err := s.notificationSvc.CreateIfAbsent(userID, title, body, expiryWarnDedupeWindow)
			if err != nil {
				logger.Warnw("bonus_expiry_warn_failed",
					"user_id", userID,
					"lead_days", leadDays,
					"error", err,
				)
				continue
			}
			if created {
				sent++
			}
		}
	}
	return sent, nil
}

// expireForUser 在单个事务内结算某用户全部到期奖励金
func (s *BonusExpiryService) expireForUser(userID uint, now time.Time) (int, error) {
	expiredCount := 0
	err := s.bonusRepo.Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		bonusRepo := s.bonusRepo.WithTx(tx)

		user, err := userRepo.GetByIDForUpdate(userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		// 持锁后重读，其它过期任务并发处理过的行在这里已是零金额
		txns, err := bonusRepo.ListExpiringTransactionsForUserForUpdate(userID, now)
		if err != nil {
			return err
		}
		if len(txns) == 0 {
			return nil
		}

		nominal := decimal.Zero
		sourceIDs := make([]uint, 0, len(txns))
		for _, txn := range txns {
			nominal = nominal.Add(txn.Amount.Decimal)
			sourceIDs = append(sourceIDs, txn.ID)
		}
		nominal = nominal.Round(2)

		balance := user.BonusBalance.Decimal.Round(2)
		deducted := nominal
		if balance.LessThan(deducted) {
			deducted = balance
		}
		if deducted.LessThan(decimal.Zero) {
			deducted = decimal.Zero
		}

		after := balance.Sub(deducted).Round(2)
		if err := userRepo.UpdateBonusBalance(userID, models.NewMoneyFromDecimal(after)); err != nil {
			return ErrBonusBalanceUpdateFailed
		}

		txn := &models.BonusTransaction{
			UserID:      userID,
			Type:        constants.BonusTxnTypeExpired,
			Amount:      models.NewMoneyFromDecimal(deducted.Neg()),
			Source:      constants.BonusSourceExpiry,
			Description: "奖励金到期作废",
			Metadata: models.JSON{
				"nominal_amount":         nominal.StringFixed(2),
				"deducted_amount":        deducted.StringFixed(2),
				"source_transaction_ids": sourceIDs,
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := bonusRepo.CreateTransaction(txn); err != nil {
			return ErrBonusTxnCreateFailed
		}

		if err := bonusRepo.ZeroTransactionAmounts(sourceIDs, now); err != nil {
			return err
		}
		expiredCount = len(sourceIDs)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return expiredCount, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
