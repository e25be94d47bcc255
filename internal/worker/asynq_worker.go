package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/medialoom/bonusledger/internal/logger"
	"github.com/medialoom/bonusledger/internal/models"
	"github.com/medialoom/bonusledger/internal/provider"
	"github.com/medialoom/bonusledger/internal/queue"
	"github.com/medialoom/bonusledger/internal/service"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskBonusExpire, c.handleBonusExpire)
	mux.HandleFunc(queue.TaskBonusExpiryWarn, c.handleBonusExpiryWarn)
	mux.HandleFunc(queue.TaskActivityGrant, c.handleActivityGrant)
	mux.HandleFunc(queue.TaskPurchaseSettled, c.handlePurchaseSettled)
}

func (c *Consumer) handleBonusExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_bonus_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	if c.BonusExpiryService == nil {
		logger.Warnw("worker_bonus_expire_skip_service_nil")
		return nil
	}
	expired, users, err := c.BonusExpiryService.ProcessExpiringBonuses()
	if err != nil {
		logger.Warnw("worker_bonus_expire_failed", "error", err)
		return err
	}
	logger.Infow("worker_bonus_expire_done", "expired_transactions", expired, "affected_users", users)
	return nil
}

func (c *Consumer) handleBonusExpiryWarn(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_bonus_expiry_warn_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	if c.BonusExpiryService == nil {
		logger.Warnw("worker_bonus_expiry_warn_skip_service_nil")
		return nil
	}
	sent, err := c.BonusExpiryService.SendExpirationWarnings()
	if err != nil {
		logger.Warnw("worker_bonus_expiry_warn_failed", "error", err)
		return err
	}
	logger.Infow("worker_bonus_expiry_warn_done", "notifications_sent", sent)
	return nil
}

func (c *Consumer) handleActivityGrant(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_activity_grant_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ActivityGrantPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_activity_grant_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 || strings.TrimSpace(payload.ActivityType) == "" {
		logger.Debugw("worker_activity_grant_skip_invalid_payload",
			"user_id", payload.UserID, "activity_type", payload.ActivityType)
		return nil
	}
	if c.ActivityBonusService == nil {
		logger.Warnw("worker_activity_grant_skip_service_nil", "user_id", payload.UserID)
		return nil
	}
	_, err := c.ActivityBonusService.GrantActivityBonus(payload.UserID, payload.ActivityType, payload.Metadata)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			logger.Debugw("worker_activity_grant_skip_user_not_found", "user_id", payload.UserID)
			return nil
		}
		logger.Warnw("worker_activity_grant_failed",
			"user_id", payload.UserID, "activity_type", payload.ActivityType, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handlePurchaseSettled(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_purchase_settled_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PurchaseSettledPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_purchase_settled_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 {
		logger.Debugw("worker_purchase_settled_skip_invalid_payload", "user_id", payload.UserID)
		return nil
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(payload.PurchaseAmount))
	if err != nil {
		logger.Warnw("worker_purchase_settled_bad_amount",
			"user_id", payload.UserID, "purchase_amount", payload.PurchaseAmount, "error", err)
		return nil
	}
	if c.ReferralService == nil {
		logger.Warnw("worker_purchase_settled_skip_service_nil", "user_id", payload.UserID)
		return nil
	}
	if _, err := c.ReferralService.GrantReferralBonus(payload.UserID, models.NewMoneyFromDecimal(amount)); err != nil {
		logger.Warnw("worker_purchase_settled_failed", "user_id", payload.UserID, "error", err)
		return err
	}
	return nil
}
