package repository

import (
	"errors"

	"github.com/medialoom/bonusledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommissionRepository 合作伙伴佣金数据访问接口
type CommissionRepository interface {
	GetByID(commissionID uint) (*models.PartnerCommission, error)
	GetByIDForUpdate(commissionID uint) (*models.PartnerCommission, error)
	Create(commission *models.PartnerCommission) error
	Update(commission *models.PartnerCommission) error
	List(filter CommissionListFilter) ([]models.PartnerCommission, int64, error)
	WithTx(tx *gorm.DB) *GormCommissionRepository
	Transaction(fn func(tx *gorm.DB) error) error
}

// GormCommissionRepository GORM 佣金仓储实现
type GormCommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository 创建佣金仓储
func NewCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommissionRepository) WithTx(tx *gorm.DB) *GormCommissionRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionRepository{db: tx}
}

// Transaction 在数据库事务内执行回调
func (r *GormCommissionRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByID 按ID获取佣金
func (r *GormCommissionRepository) GetByID(commissionID uint) (*models.PartnerCommission, error) {
	if commissionID == 0 {
		return nil, nil
	}
	var commission models.PartnerCommission
	if err := r.db.First(&commission, commissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commission, nil
}

// GetByIDForUpdate 按ID加锁获取佣金
func (r *GormCommissionRepository) GetByIDForUpdate(commissionID uint) (*models.PartnerCommission, error) {
	if commissionID == 0 {
		return nil, nil
	}
	var commission models.PartnerCommission
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&commission, commissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commission, nil
}

// Create 创建佣金记录
func (r *GormCommissionRepository) Create(commission *models.PartnerCommission) error {
	return r.db.Create(commission).Error
}

// Update 更新佣金记录
func (r *GormCommissionRepository) Update(commission *models.PartnerCommission) error {
	return r.db.Save(commission).Error
}

// List 分页查询佣金
func (r *GormCommissionRepository) List(filter CommissionListFilter) ([]models.PartnerCommission, int64, error) {
	query := r.db.Model(&models.PartnerCommission{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var commissions []models.PartnerCommission
	if err := query.Order("id desc").Find(&commissions).Error; err != nil {
		return nil, 0, err
	}
	return commissions, total, nil
}
