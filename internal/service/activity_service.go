package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/medialoom/bonusledger/internal/config"
	"github.com/medialoom/bonusledger/internal/constants"
	"github.com/medialoom/bonusledger/internal/logger"
	"github.com/medialoom/bonusledger/internal/models"
	"github.com/medialoom/bonusledger/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var errActivityAlreadyGranted = errors.New("活动奖励已领取")

// ActivityBonusService 活动奖励服务
//
// 活动类型与金额由配置驱动。一次性活动通过 UserActivityBonus 唯一索引
// 防重发：领取记录插入与入账在同一事务内，插入冲突即视为已领取。
type ActivityBonusService struct {
	bonusRepo repository.BonusRepository
	bonusSvc  *BonusService
	cfg       config.BonusConfig
}

// NewActivityBonusService 创建活动奖励服务
func NewActivityBonusService(
	bonusRepo repository.BonusRepository,
	bonusSvc *BonusService,
	cfg config.BonusConfig,
) *ActivityBonusService {
	return &ActivityBonusService{
		bonusRepo: bonusRepo,
		bonusSvc:  bonusSvc,
		cfg:       cfg,
	}
}

// GrantActivityBonus 发放活动奖励；未配置的活动类型与重复领取均为无操作
func (s *ActivityBonusService) GrantActivityBonus(userID uint, activityType string, metadata models.JSON) (*models.BonusTransaction, error) {
	activityType = strings.TrimSpace(activityType)
	entry, ok := s.cfg.Activities[activityType]
	if !ok {
		logger.Warnw("activity_bonus_unknown_type", "user_id", userID, "activity_type", activityType)
		return nil, nil
	}
	amount := decimal.NewFromFloat(entry.Amount).Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}

	var result *models.BonusTransaction
	err := s.bonusRepo.Transaction(func(tx *gorm.DB) error {
		if entry.OneTime {
			record := &models.UserActivityBonus{
				UserID:       userID,
				ActivityType: activityType,
				CreatedAt:    time.Now(),
			}
			if err := tx.Create(record).Error; err != nil {
				if isUniqueViolation(err) {
					return errActivityAlreadyGranted
				}
				return err
			}
		}
		txn, err := s.bonusSvc.EarnBonusesInTx(tx, BonusEarnInput{
			UserID:        userID,
			Amount:        models.NewMoneyFromDecimal(amount),
			Source:        constants.BonusSourceActivity,
			ReferenceType: constants.BonusRefTypeActivity,
			Description:   fmt.Sprintf("活动奖励：%s", activityType),
			Metadata:      metadata,
		})
		if err != nil {
			return err
		}
		result = txn
		return nil
	})
	if err != nil {
		if errors.Is(err, errActivityAlreadyGranted) {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
