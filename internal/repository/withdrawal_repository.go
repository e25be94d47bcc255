package repository

import (
	"errors"
	"strings"

	"github.com/medialoom/bonusledger/internal/models"

	"gorm.io/gorm"
)

// WithdrawalRepository 提现申请数据访问接口
type WithdrawalRepository interface {
	Create(withdrawal *models.BonusWithdrawal) error
	GetByWithdrawNo(withdrawNo string) (*models.BonusWithdrawal, error)
	List(filter BonusWithdrawalListFilter) ([]models.BonusWithdrawal, int64, error)
	CountByStatus(status string) (int64, error)
	WithTx(tx *gorm.DB) *GormWithdrawalRepository
}

// GormWithdrawalRepository GORM 提现仓储实现
type GormWithdrawalRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository 创建提现仓储
func NewWithdrawalRepository(db *gorm.DB) *GormWithdrawalRepository {
	return &GormWithdrawalRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWithdrawalRepository) WithTx(tx *gorm.DB) *GormWithdrawalRepository {
	if tx == nil {
		return r
	}
	return &GormWithdrawalRepository{db: tx}
}

// Create 创建提现申请
func (r *GormWithdrawalRepository) Create(withdrawal *models.BonusWithdrawal) error {
	return r.db.Create(withdrawal).Error
}

// GetByWithdrawNo 按提现单号查询
func (r *GormWithdrawalRepository) GetByWithdrawNo(withdrawNo string) (*models.BonusWithdrawal, error) {
	withdrawNo = strings.TrimSpace(withdrawNo)
	if withdrawNo == "" {
		return nil, nil
	}
	var withdrawal models.BonusWithdrawal
	if err := r.db.Where("withdraw_no = ?", withdrawNo).First(&withdrawal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &withdrawal, nil
}

// List 分页查询提现申请
func (r *GormWithdrawalRepository) List(filter BonusWithdrawalListFilter) ([]models.BonusWithdrawal, int64, error) {
	query := r.db.Model(&models.BonusWithdrawal{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var withdrawals []models.BonusWithdrawal
	if err := query.Order("id desc").Find(&withdrawals).Error; err != nil {
		return nil, 0, err
	}
	return withdrawals, total, nil
}

// CountByStatus 统计指定状态的提现申请数量
func (r *GormWithdrawalRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.BonusWithdrawal{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
