package worker

import (
	"context"
	"errors"
	"time"

	"github.com/medialoom/bonusledger/internal/config"
	"github.com/medialoom/bonusledger/internal/logger"
	"github.com/medialoom/bonusledger/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	bonusExpiryInterval = 24 * time.Hour
	expiryWarnInterval  = 24 * time.Hour
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.BonusExpiryService != nil {
		go s.runBonusExpiryLoop(ctx)
		go s.runExpiryWarnLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) runBonusExpiryLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.BonusExpiryService == nil {
		return
	}
	runOnce := func() {
		expired, users, err := s.consumer.BonusExpiryService.ProcessExpiringBonuses()
		if err != nil {
			logger.Warnw("worker_bonus_expiry_failed", "error", err)
			return
		}
		if expired > 0 {
			logger.Infow("worker_bonus_expiry_done", "expired_transactions", expired, "affected_users", users)
		}
	}
	runOnce()

	ticker := time.NewTicker(bonusExpiryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

func (s *Service) runExpiryWarnLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.BonusExpiryService == nil {
		return
	}
	runOnce := func() {
		sent, err := s.consumer.BonusExpiryService.SendExpirationWarnings()
		if err != nil {
			logger.Warnw("worker_expiry_warn_failed", "error", err)
			return
		}
		if sent > 0 {
			logger.Infow("worker_expiry_warn_done", "notifications_sent", sent)
		}
	}
	runOnce()

	ticker := time.NewTicker(expiryWarnInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
