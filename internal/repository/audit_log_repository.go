package repository

import (
	"github.com/medialoom/bonusledger/internal/models"

	"gorm.io/gorm"
)

// AuditLogRepository 审计日志数据访问接口
type AuditLogRepository interface {
	Create(item *models.AuditLog) error
}

// GormAuditLogRepository GORM 审计日志仓储实现
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository 创建审计日志仓储
func NewAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Create 创建审计日志
func (r *GormAuditLogRepository) Create(item *models.AuditLog) error {
	return r.db.Create(item).Error
}
