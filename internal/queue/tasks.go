package queue

import (
	"encoding/json"

	"github.com/medialoom/bonusledger/internal/constants"
	"github.com/medialoom/bonusledger/internal/models"

	"github.com/hibiken/asynq"
)

const (
	// TaskBonusExpire 奖励金过期结算任务
	TaskBonusExpire = constants.TaskBonusExpire
	// TaskBonusExpiryWarn 奖励金过期提醒任务
	TaskBonusExpiryWarn = constants.TaskBonusExpiryWarn
	// TaskActivityGrant 活动奖励发放任务
	TaskActivityGrant = constants.TaskActivityGrant
	// TaskPurchaseSettled 消费结算事件任务（触发推荐奖励）
	TaskPurchaseSettled = constants.TaskPurchaseSettled
)

// BonusExpirePayload 过期结算任务载荷（手动触发时使用，无参数）
type BonusExpirePayload struct{}

// BonusExpiryWarnPayload 过期提醒任务载荷
type BonusExpiryWarnPayload struct{}

// ActivityGrantPayload 活动奖励任务载荷
type ActivityGrantPayload struct {
	UserID       uint        `json:"user_id"`
	ActivityType string      `json:"activity_type"`
	Metadata     models.JSON `json:"metadata,omitempty"`
}

// PurchaseSettledPayload 消费结算事件载荷
type PurchaseSettledPayload struct {
	UserID         uint   `json:"user_id"`
	PurchaseAmount string `json:"purchase_amount"`
}

// NewBonusExpireTask 创建过期结算任务
func NewBonusExpireTask(payload BonusExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBonusExpire, body), nil
}

// NewBonusExpiryWarnTask 创建过期提醒任务
func NewBonusExpiryWarnTask(payload BonusExpiryWarnPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBonusExpiryWarn, body), nil
}

// NewActivityGrantTask 创建活动奖励任务
func NewActivityGrantTask(payload ActivityGrantPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskActivityGrant, body), nil
}

// NewPurchaseSettledTask 创建消费结算事件任务
func NewPurchaseSettledTask(payload PurchaseSettledPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPurchaseSettled, body), nil
}
