package models

import (
	"time"
)

// AuditLog 管理操作审计日志（尽力而为写入，失败不回滚主流程）
type AuditLog struct {
	ID           uint      `gorm:"primarykey" json:"id"`                          // 主键
	AdminID      uint      `gorm:"not null;index" json:"admin_id"`                // 操作管理员ID
	Action       string    `gorm:"type:varchar(64);not null;index" json:"action"` // 操作类型
	TargetUserID *uint     `gorm:"index" json:"target_user_id,omitempty"`         // 目标用户ID
	Detail       JSON      `gorm:"type:text" json:"detail,omitempty"`             // 详情
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                       // 创建时间
}

// TableName 指定表名
func (AuditLog) TableName() string {
	return "audit_logs"
}
