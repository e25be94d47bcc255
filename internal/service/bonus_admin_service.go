package service

import (
	"github.com/medialoom/bonusledger/internal/constants"
	"github.com/medialoom/bonusledger/internal/models"
	"github.com/medialoom/bonusledger/internal/repository"

	"github.com/shopspring/decimal"
)

// BonusAdminService 管理端统计服务
type BonusAdminService struct {
	bonusRepo      repository.BonusRepository
	withdrawalRepo repository.WithdrawalRepository
}

// BonusStats 奖励金全量统计
type BonusStats struct {
	TotalEarned        models.Money `json:"total_earned"`
	TotalSpent         models.Money `json:"total_spent"`
	TotalExpired       models.Money `json:"total_expired"`
	TotalWithdrawn     models.Money `json:"total_withdrawn"`
	NetAdjusted        models.Money `json:"net_adjusted"`
	ActiveUsers        int64        `json:"active_users"`
	PendingWithdrawals int64        `json:"pending_withdrawals"`
}

// NewBonusAdminService 创建管理端统计服务
func NewBonusAdminService(bonusRepo repository.BonusRepository, withdrawalRepo repository.WithdrawalRepository) *BonusAdminService {
	return &BonusAdminService{bonusRepo: bonusRepo, withdrawalRepo: withdrawalRepo}
}

// GetStats 汇总奖励金统计数据
//
// spent/expired/withdrawn 流水以负数入账，展示时取绝对值；
// adjustment 带符号汇总为净调整额。
func (s *BonusAdminService) GetStats() (*BonusStats, error) {
	sums, err := s.bonusRepo.SumAmountsByType()
	if err != nil {
		return nil, err
	}
	activeUsers, err := s.bonusRepo.CountDistinctUsers()
	if err != nil {
		return nil, err
	}
	pending, err := s.withdrawalRepo.CountByStatus(constants.WithdrawalStatusPending)
	if err != nil {
		return nil, err
	}

	return &BonusStats{
		TotalEarned:        models.NewMoneyFromDecimal(sumOrZero(sums, constants.BonusTxnTypeEarned)),
		TotalSpent:         models.NewMoneyFromDecimal(sumOrZero(sums, constants.BonusTxnTypeSpent).Abs()),
		TotalExpired:       models.NewMoneyFromDecimal(sumOrZero(sums, constants.BonusTxnTypeExpired).Abs()),
		TotalWithdrawn:     models.NewMoneyFromDecimal(sumOrZero(sums, constants.BonusTxnTypeWithdrawn).Abs()),
		NetAdjusted:        models.NewMoneyFromDecimal(sumOrZero(sums, constants.BonusTxnTypeAdjustment)),
		ActiveUsers:        activeUsers,
		PendingWithdrawals: pending,
	}, nil
}

func sumOrZero(sums map[string]decimal.Decimal, key string) decimal.Decimal {
	if value, ok := sums[key]; ok {
		return value
	}
	return decimal.Zero
}
