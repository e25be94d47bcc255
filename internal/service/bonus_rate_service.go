package service

import (
	"context"
	"time"

	"github.com/medialoom/bonusledger/internal/cache"
	"github.com/medialoom/bonusledger/internal/config"
	"github.com/medialoom/bonusledger/internal/logger"
	"github.com/medialoom/bonusledger/internal/models"
	"github.com/medialoom/bonusledger/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const rateCacheKey = "bonus:rate:current"

// BonusRateService 奖励金兑换汇率服务
//
// 汇率记录按生效时间版本化，查询取生效中且 effective_from 最新的一条；
// 没有任何生效记录时回退到配置的兜底汇率。查询结果带短 TTL 的 Redis 缓存。
type BonusRateService struct {
	rateRepo repository.RateRepository
	cfg      config.BonusConfig
}

// BonusRateSetInput 管理员设置汇率输入
type BonusRateSetInput struct {
	Rate          decimal.Decimal
	EffectiveFrom *time.Time
}

type rateSnapshot struct {
	Rate decimal.Decimal `json:"rate"`
}

// NewBonusRateService 创建汇率服务
func NewBonusRateService(rateRepo repository.RateRepository, cfg config.BonusConfig) *BonusRateService {
	return &BonusRateService{rateRepo: rateRepo, cfg: cfg}
}

// GetCurrentRate 获取当前生效汇率
func (s *BonusRateService) GetCurrentRate() (decimal.Decimal, error) {
	ctx := context.Background()
	if cache.Enabled() {
		var snapshot rateSnapshot
		hit, err := cache.GetJSON(ctx, rateCacheKey, &snapshot)
		if err != nil {
			logger.Warnw("bonus_rate_cache_read_failed", "error", err)
		} else if hit {
			return snapshot.Rate, nil
		}
	}

	rate, err := s.resolveRate(time.Now())
	if err != nil {
		return decimal.Zero, err
	}

	if cache.Enabled() {
		ttl := time.Duration(s.cfg.RateCacheTTLSeconds) * time.Second
		if ttl > 0 {
			if err := cache.SetJSON(ctx, rateCacheKey, rateSnapshot{Rate: rate}, ttl); err != nil {
				logger.Warnw("bonus_rate_cache_write_failed", "error", err)
			}
		}
	}
	return rate, nil
}

// ConvertToCurrency 按当前汇率把奖励金折算为结算货币，返回金额与所用汇率
func (s *BonusRateService) ConvertToCurrency(amount models.Money) (models.Money, decimal.Decimal, error) {
	rate, err := s.GetCurrentRate()
	if err != nil {
		return models.NewMoneyFromDecimal(decimal.Zero), decimal.Zero, err
	}
	converted := amount.Decimal.Mul(rate).Round(2)
	return models.NewMoneyFromDecimal(converted), rate, nil
}

// SetRate 设置新汇率（关闭之前的开放区间记录并插入新版本）
func (s *BonusRateService) SetRate(input BonusRateSetInput) (*models.BonusRate, error) {
	if input.Rate.LessThanOrEqual(decimal.Zero) {
		return nil, ErrRateInvalid
	}
	now := time.Now()
	effectiveFrom := now
	if input.EffectiveFrom != nil {
		effectiveFrom = *input.EffectiveFrom
	}

	rate := &models.BonusRate{
		FromCurrency:  s.cfg.FromCurrency,
		ToCurrency:    s.cfg.ToCurrency,
		Rate:          input.Rate,
		EffectiveFrom: effectiveFrom,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.rateRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.rateRepo.WithTx(tx)
		if err := repo.CloseOpenRates(effectiveFrom); err != nil {
			return err
		}
		return repo.Create(rate)
	}); err != nil {
		return nil, err
	}

	if cache.Enabled() {
		if err := cache.Del(context.Background(), rateCacheKey); err != nil {
			logger.Warnw("bonus_rate_cache_invalidate_failed", "error", err)
		}
	}
	return rate, nil
}

func (s *BonusRateService) resolveRate(at time.Time) (decimal.Decimal, error) {
	record, err := s.rateRepo.GetActiveRateAt(at)
	if err != nil {
		return decimal.Zero, err
	}
	if record == nil {
		return decimal.NewFromFloat(s.cfg.DefaultRate), nil
	}
	return record.Rate, nil
}
