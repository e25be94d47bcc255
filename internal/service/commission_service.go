package service

import (
	"fmt"
	"time"

	"github.com/medialoom/bonusledger/internal/constants"
	"github.com/medialoom/bonusledger/internal/models"
	"github.com/medialoom/bonusledger/internal/repository"

	"gorm.io/gorm"
)

// CommissionService 合作伙伴佣金兑换服务
//
// 佣金的生成与审批由合作伙伴子系统负责，这里只承接 approved → paid
// 的兑换：状态流转与奖励金入账在同一事务内完成。
type CommissionService struct {
	commissionRepo repository.CommissionRepository
	bonusSvc       *BonusService
}

// NewCommissionService 创建佣金兑换服务
func NewCommissionService(commissionRepo repository.CommissionRepository, bonusSvc *BonusService) *CommissionService {
	return &CommissionService{commissionRepo: commissionRepo, bonusSvc: bonusSvc}
}

// ConvertCommissionToBonus 将已审批佣金兑换为奖励金
func (s *CommissionService) ConvertCommissionToBonus(userID uint, commissionID uint) (*models.BonusTransaction, error) {
	if commissionID == 0 {
		return nil, ErrCommissionNotFound
	}

	var result *models.BonusTransaction
	if err := s.commissionRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.commissionRepo.WithTx(tx)
		commission, err := repo.GetByIDForUpdate(commissionID)
		if err != nil {
			return err
		}
		if commission == nil {
			return ErrCommissionNotFound
		}
		if commission.UserID != userID {
			return ErrCommissionNotOwned
		}
		if commission.Status != constants.CommissionStatusApproved {
			return ErrCommissionNotApproved
		}

		now := time.Now()
		commission.Status = constants.CommissionStatusPaid
		commission.PaidAt = &now
		commission.UpdatedAt = now
		if err := repo.Update(commission); err != nil {
			return err
		}

		commissionRef := commission.ID
		txn, err := s.bonusSvc.EarnBonusesInTx(tx, BonusEarnInput{
			UserID:        userID,
			Amount:        commission.Amount,
			Source:        constants.BonusSourcePartner,
			ReferenceID:   &commissionRef,
			ReferenceType: constants.BonusRefTypeCommission,
			Description:   fmt.Sprintf("佣金兑换：#%d", commission.ID),
		})
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

// ListCommissions 分页查询佣金记录
func (s *CommissionService) ListCommissions(filter repository.CommissionListFilter) ([]models.PartnerCommission, int64, error) {
	return s.commissionRepo.List(filter)
}
