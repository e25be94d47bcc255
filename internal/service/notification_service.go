package service

import (
	"time"

	"github.com/medialoom/bonusledger/internal/models"
	"github.com/medialoom/bonusledger/internal/repository"
)

// NotificationService 站内通知服务
type NotificationService struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationService 创建站内通知服务
func NewNotificationService(notificationRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// CreateIfAbsent 在去重窗口内按标题去重后创建通知，返回是否实际创建
func (s *NotificationService) CreateIfAbsent(userID uint, title, body string, window time.Duration) (bool, error) {
	if userID == 0 || title == "" {
		return false, nil
	}
	now := time.Now()
	if window > 0 {
		exists, err := s.notificationRepo.HasRecentWithTitle(userID, title, now.Add(-window))
		if err != nil {
			return false, err
		}
		if exists {
			return false, nil
		}
	}
	notification := &models.Notification{
		UserID:    userID,
		Title:     title,
		Body:      body,
		CreatedAt: now,
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		return false, err
	}
	return true, nil
}

// ListByUser 分页查询用户通知
func (s *NotificationService) ListByUser(userID uint, page, pageSize int) ([]models.Notification, int64, error) {
	return s.notificationRepo.ListByUser(userID, page, pageSize)
}
