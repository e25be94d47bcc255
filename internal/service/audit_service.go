package service

import (
	"time"

	"github.com/medialoom/bonusledger/internal/logger"
	"github.com/medialoom/bonusledger/internal/models"
	"github.com/medialoom/bonusledger/internal/repository"
)

// AuditService 管理操作审计服务
//
// 审计写入是尽力而为的旁路动作，失败只记日志，绝不回滚主流程。
type AuditService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditService 创建审计服务
func NewAuditService(auditRepo repository.AuditLogRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// Record 记录一条管理操作审计日志
func (s *AuditService) Record(adminID uint, action string, targetUserID *uint, detail models.JSON) {
	if s == nil || s.auditRepo == nil {
		return
	}
	item := &models.AuditLog{
		AdminID:      adminID,
		Action:       action,
		TargetUserID: targetUserID,
		Detail:       detail,
		CreatedAt:    time.Now(),
	}
	if err := s.auditRepo.Create(item); err != nil {
		logger.Warnw("audit_log_write_failed", "action", action, "admin_id", adminID, "error", err)
	}
}
