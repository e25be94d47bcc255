package repository

import (
	"errors"
	"time"

	"github.com/medialoom/bonusledger/internal/models"

	"gorm.io/gorm"
)

// RateRepository 奖励金汇率数据访问接口
type RateRepository interface {
	GetActiveRateAt(at time.Time) (*models.BonusRate, error)
	Create(rate *models.BonusRate) error
	CloseOpenRates(at time.Time) error
	WithTx(tx *gorm.DB) *GormRateRepository
	Transaction(fn func(tx *gorm.DB) error) error
}

// GormRateRepository GORM 汇率仓储实现
type GormRateRepository struct {
	db *gorm.DB
}

// NewRateRepository 创建汇率仓储
func NewRateRepository(db *gorm.DB) *GormRateRepository {
	return &GormRateRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRateRepository) WithTx(tx *gorm.DB) *GormRateRepository {
	if tx == nil {
		return r
	}
	return &GormRateRepository{db: tx}
}

// Transaction 在数据库事务内执行回调
func (r *GormRateRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetActiveRateAt 查询指定时间点生效的汇率（按生效时间取最新一条）
func (r *GormRateRepository) GetActiveRateAt(at time.Time) (*models.BonusRate, error) {
	var rate models.BonusRate
	err := r.db.
		Where("is_active = ? AND effective_from <= ?", true, at).
		Where("effective_to IS NULL OR effective_to >= ?", at).
		Order("effective_from desc").
		First(&rate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rate, nil
}

// Create 创建汇率记录
func (r *GormRateRepository) Create(rate *models.BonusRate) error {
	return r.db.Create(rate).Error
}

// CloseOpenRates 关闭所有仍然开放的汇率区间
func (r *GormRateRepository) CloseOpenRates(at time.Time) error {
	return r.db.Model(&models.BonusRate{}).
		Where("is_active = ? AND effective_to IS NULL", true).
		Update("effective_to", at).Error
}
