package main

import (
	"time"

	"github.com/medialoom/bonusledger/internal/config"
	"github.com/medialoom/bonusledger/internal/constants"
	"github.com/medialoom/bonusledger/internal/logger"
	"github.com/medialoom/bonusledger/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 演示用户（alice 推荐了 bob）
	users := []models.User{
		{Email: "alice@example.com", DisplayName: "Alice", TaxStatus: constants.TaxStatusIndividual},
		{Email: "bob@example.com", DisplayName: "Bob", TaxStatus: constants.TaxStatusSelfEmployed},
		{Email: "carol@example.com", DisplayName: "Carol", TaxStatus: constants.TaxStatusCompany},
	}
	for i := range users {
		var existing models.User
		if err := models.DB.Where("email = ?", users[i].Email).First(&existing).Error; err != nil {
			if err := models.DB.Create(&users[i]).Error; err != nil {
				stdLog.Printf("Failed to create user %s: %v", users[i].Email, err)
			} else {
				stdLog.Printf("Created user: %s", users[i].Email)
			}
		} else {
			users[i] = existing
			stdLog.Printf("User already exists: %s", users[i].Email)
		}
	}

	var alice, bob models.User
	if err := models.DB.Where("email = ?", "alice@example.com").First(&alice).Error; err == nil {
		if err := models.DB.Where("email = ?", "bob@example.com").First(&bob).Error; err == nil && bob.ReferrerID == nil {
			if err := models.DB.Model(&bob).Update("referrer_id", alice.ID).Error; err != nil {
				stdLog.Printf("Failed to link referrer: %v", err)
			} else {
				stdLog.Printf("Linked referrer: bob -> alice")
			}
		}
	}

	// 当前生效汇率
	var rateCount int64
	models.DB.Model(&models.BonusRate{}).Count(&rateCount)
	if rateCount == 0 {
		rate := models.BonusRate{
			FromCurrency:  cfg.Bonus.FromCurrency,
			ToCurrency:    cfg.Bonus.ToCurrency,
			Rate:          decimal.NewFromFloat(1.0),
			EffectiveFrom: time.Now().AddDate(0, -1, 0),
			IsActive:      true,
		}
		if err := models.DB.Create(&rate).Error; err != nil {
			stdLog.Printf("Failed to create bonus rate: %v", err)
		} else {
			stdLog.Printf("Created bonus rate: %s -> %s @ %s",
				rate.FromCurrency, rate.ToCurrency, rate.Rate.String())
		}
	}

	// 待兑换佣金与已完成支付（演示首购推荐链路）
	if alice.ID != 0 {
		var commissionCount int64
		models.DB.Model(&models.PartnerCommission{}).Where("user_id = ?", alice.ID).Count(&commissionCount)
		if commissionCount == 0 {
			now := time.Now()
			commission := models.PartnerCommission{
				UserID:     alice.ID,
				Amount:     models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
				Status:     constants.CommissionStatusApproved,
				Remark:     "演示佣金",
				ApprovedAt: &now,
			}
			if err := models.DB.Create(&commission).Error; err != nil {
				stdLog.Printf("Failed to create commission: %v", err)
			} else {
				stdLog.Printf("Created approved commission for alice: %s", commission.Amount.String())
			}
		}
	}
	if bob.ID != 0 {
		var paymentCount int64
		models.DB.Model(&models.Payment{}).Where("user_id = ?", bob.ID).Count(&paymentCount)
		if paymentCount == 0 {
			payment := models.Payment{
				UserID: bob.ID,
				Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(500)),
				Status: constants.PaymentStatusCompleted,
			}
			if err := models.DB.Create(&payment).Error; err != nil {
				stdLog.Printf("Failed to create payment: %v", err)
			} else {
				stdLog.Printf("Created completed payment for bob: %s", payment.Amount.String())
			}
		}
	}

	stdLog.Printf("Seed finished")
}
