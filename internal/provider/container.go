package provider

import (
	"github.com/medialoom/bonusledger/internal/cache"
	"github.com/medialoom/bonusledger/internal/config"
	"github.com/medialoom/bonusledger/internal/logger"
	"github.com/medialoom/bonusledger/internal/models"
	"github.com/medialoom/bonusledger/internal/queue"
	"github.com/medialoom/bonusledger/internal/repository"
	"github.com/medialoom/bonusledger/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo         repository.UserRepository
	BonusRepo        repository.BonusRepository
	RateRepo         repository.RateRepository
	CommissionRepo   repository.CommissionRepository
	WithdrawalRepo   repository.WithdrawalRepository
	NotificationRepo repository.NotificationRepository
	AuditLogRepo     repository.AuditLogRepository
	PaymentRepo      repository.PaymentRepository

	// Services
	AuditService         *service.AuditService
	NotificationService  *service.NotificationService
	BonusService         *service.BonusService
	BonusRateService     *service.BonusRateService
	BonusExpiryService   *service.BonusExpiryService
	CommissionService    *service.CommissionService
	ReferralService      *service.ReferralService
	ActivityBonusService *service.ActivityBonusService
	BonusWithdrawService *service.BonusWithdrawService
	BonusAdminService    *service.BonusAdminService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.BonusRepo = repository.NewBonusRepository(db)
	c.RateRepo = repository.NewRateRepository(db)
	c.CommissionRepo = repository.NewCommissionRepository(db)
	c.WithdrawalRepo = repository.NewWithdrawalRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
	c.AuditLogRepo = repository.NewAuditLogRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
}

func (c *Container) initServices() {
	bonusCfg := c.Config.Bonus

	c.AuditService = service.NewAuditService(c.AuditLogRepo)
	c.NotificationService = service.NewNotificationService(c.NotificationRepo)
	c.BonusService = service.NewBonusService(c.BonusRepo, c.UserRepo, c.AuditService, bonusCfg)
	c.BonusRateService = service.NewBonusRateService(c.RateRepo, bonusCfg)
	c.BonusExpiryService = service.NewBonusExpiryService(c.BonusRepo, c.UserRepo, c.NotificationService, bonusCfg)
	c.CommissionService = service.NewCommissionService(c.CommissionRepo, c.BonusService)
	c.ReferralService = service.NewReferralService(c.UserRepo, c.BonusRepo, c.PaymentRepo, c.BonusService, bonusCfg)
	c.ActivityBonusService = service.NewActivityBonusService(c.BonusRepo, c.BonusService, bonusCfg)
	c.BonusWithdrawService = service.NewBonusWithdrawService(c.BonusRepo, c.UserRepo, c.WithdrawalRepo, c.BonusRateService, bonusCfg)
	c.BonusAdminService = service.NewBonusAdminService(c.BonusRepo, c.WithdrawalRepo)
}
