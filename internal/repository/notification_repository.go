package repository

import (
	"time"

	"github.com/medialoom/bonusledger/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository 站内通知数据访问接口
type NotificationRepository interface {
	Create(notification *models.Notification) error
	HasRecentWithTitle(userID uint, title string, since time.Time) (bool, error)
	ListByUser(userID uint, page, pageSize int) ([]models.Notification, int64, error)
}

// GormNotificationRepository GORM 通知仓储实现
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓储
func NewNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create 创建通知
func (r *GormNotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// HasRecentWithTitle 判断用户在指定时间之后是否已有同标题通知
func (r *GormNotificationRepository) HasRecentWithTitle(userID uint, title string, since time.Time) (bool, error) {
	if userID == 0 || title == "" {
		return false, nil
	}
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND title = ? AND created_at >= ?", userID, title, since).
		Count(&count).Error
	return count > 0, err
}

// ListByUser 分页查询用户通知
func (r *GormNotificationRepository) ListByUser(userID uint, page, pageSize int) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, page, pageSize)

	var notifications []models.Notification
	if err := query.Order("id desc").Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}
