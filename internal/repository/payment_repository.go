package repository

import (
	"github.com/medialoom/bonusledger/internal/constants"
	"github.com/medialoom/bonusledger/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository 支付记录数据访问接口（只读消费，首单判定使用）
type PaymentRepository interface {
	WithTx(tx *gorm.DB) *GormPaymentRepository
	CountCompletedByUser(userID uint) (int64, error)
	Create(payment *models.Payment) error
}

// GormPaymentRepository GORM 支付仓储实现
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓储
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// CountCompletedByUser 统计用户已完成的支付数量
func (r *GormPaymentRepository) CountCompletedByUser(userID uint) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.Payment{}).
		Where("user_id = ? AND status = ?", userID, constants.PaymentStatusCompleted).
		Count(&count).Error
	return count, err
}

// Create 创建支付记录（测试与种子数据使用）
func (r *GormPaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}
