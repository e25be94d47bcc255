package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/medialoom/bonusledger/internal/config"
	"github.com/medialoom/bonusledger/internal/constants"
	"github.com/medialoom/bonusledger/internal/models"
	"github.com/medialoom/bonusledger/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type bonusTestEnv struct {
	db            *gorm.DB
	cfg           config.BonusConfig
	userRepo      repository.UserRepository
	bonusRepo     repository.BonusRepository
	bonusSvc      *BonusService
	rateSvc       *BonusRateService
	expirySvc     *BonusExpiryService
	commissionSvc *CommissionService
	referralSvc   *ReferralService
	activitySvc   *ActivityBonusService
	withdrawSvc   *BonusWithdrawService
	adminSvc      *BonusAdminService
}

func testBonusConfig() config.BonusConfig {
	return config.BonusConfig{
		ExpiryDays:          365,
		ReferralPercent:     5.0,
		MaxCheckoutPercent:  50.0,
		MinWithdrawAmount:   100.0,
		DefaultRate:         1.0,
		FromCurrency:        "BNS",
		ToCurrency:          "CNY",
		RateCacheTTLSeconds: 60,
		WarningLeadDays:     []int{30, 7, 1},
		TaxRates: map[string]float64{
			constants.TaxStatusIndividual:   0.13,
			constants.TaxStatusSelfEmployed: 0.06,
			constants.TaxStatusEntrepreneur: 0.06,
			constants.TaxStatusCompany:      0.20,
		},
		Activities: map[string]config.ActivityBonusConfig{
			constants.ActivityFirstPurchase:    {Amount: 100, OneTime: true},
			constants.ActivityProfileCompleted: {Amount: 50, OneTime: true},
			constants.ActivityDailyStreak:      {Amount: 10, OneTime: false},
		},
	}
}

func setupBonusTest(t *testing.T) *bonusTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:bonus_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Payment{},
		&models.BonusTransaction{},
		&models.BonusRate{},
		&models.BonusWithdrawal{},
		&models.UserActivityBonus{},
		&models.PartnerCommission{},
		&models.Notification{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := testBonusConfig()
	userRepo := repository.NewUserRepository(db)
	bonusRepo := repository.NewBonusRepository(db)
	rateRepo := repository.NewRateRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	auditSvc := NewAuditService(auditRepo)
	notificationSvc := NewNotificationService(notificationRepo)
	bonusSvc := NewBonusService(bonusRepo, userRepo, auditSvc, cfg)
	rateSvc := NewBonusRateService(rateRepo, cfg)

	return &bonusTestEnv{
		db:            db,
		cfg:           cfg,
		userRepo:      userRepo,
		bonusRepo:     bonusRepo,
		bonusSvc:      bonusSvc,
		rateSvc:       rateSvc,
		expirySvc:     NewBonusExpiryService(bonusRepo, userRepo, notificationSvc, cfg),
		commissionSvc: NewCommissionService(commissionRepo, bonusSvc),
		referralSvc:   NewReferralService(userRepo, bonusRepo, paymentRepo, bonusSvc, cfg),
		activitySvc:   NewActivityBonusService(bonusRepo, bonusSvc, cfg),
		withdrawSvc:   NewBonusWithdrawService(bonusRepo, userRepo, withdrawalRepo, rateSvc, cfg),
		adminSvc:      NewBonusAdminService(bonusRepo, withdrawalRepo),
	}
}

func createBonusTestUser(t *testing.T, db *gorm.DB, id uint) {
	t.Helper()
	user := models.User{
		ID:        id,
		Email:     fmt.Sprintf("bonus_user_%d@example.com", id),
		Status:    constants.UserStatusActive,
		TaxStatus: constants.TaxStatusIndividual,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
}

// assertBalanceInvariant 校验余额字段等于流水金额之和
func assertBalanceInvariant(t *testing.T, env *bonusTestEnv, userID uint) {
	t.Helper()
	balance, err := env.bonusSvc.GetBalance(userID)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	sum, err := env.bonusRepo.SumTransactionAmounts(userID)
	if err != nil {
		t.Fatalf("sum transactions failed: %v", err)
	}
	if !balance.Decimal.Equal(sum.Round(2)) {
		t.Fatalf("balance %s != transaction sum %s", balance.String(), sum.String())
	}
}

func TestBonusServiceEarnAndBalanceInvariant(t *testing.T) {
	env := setupBonusTest(t)
	createBonusTestUser(t, env.db, 101)

	txn, err := env.bonusSvc.EarnBonuses(BonusEarnInput{
		UserID: 101,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		Source: constants.BonusSourcePromo,
	})
	if err != nil {
		t.Fatalf("earn failed: %v", err)
	}
	if txn.Type != constants.BonusTxnTypeEarned {
		t.Fatalf("unexpected txn type: %s", txn.Type)
	}
	if txn.ExpiresAt == nil {
		t.Fatalf("expected default expiry to be set")
	}
	wantExpiry := time.Now().AddDate(0, 0, env.cfg.ExpiryDays)
	if txn.ExpiresAt.Before(wantExpiry.Add(-time.Hour)) || txn.ExpiresAt.After(wantExpiry.Add(time.Hour)) {
		t.Fatalf("unexpected expiry: %v", txn.ExpiresAt)
	}

	if _, err := env.bonusSvc.EarnBonuses(BonusEarnInput{
		UserID: 101,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromFloat(50.55)),
		Source: constants.BonusSourceRefund,
	}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}

	balance, err := env.bonusSvc.GetBalance(101)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !balance.Decimal.Equal(decimal.NewFromFloat(150.55)) {
		t.Fatalf("unexpected balance: %s", balance.String())
	}
	assertBalanceInvariant(t, env, 101)
}

func TestBonusServiceEarnRejectsNonPositive(t *testing.T) {
	env := setupBonusTest(t)
	createBonusTestUser(t, env.db, 102)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-10)} {
		_, err := env.bonusSvc.EarnBonuses(BonusEarnInput{
			UserID: 102,
			Amount: models.NewMoneyFromDecimal(amount),
			Source: constants.BonusSourcePromo,
		})
		if !errors.Is(err, ErrBonusInvalidAmount) {
			t.Fatalf("expected invalid amount, got: %v", err)
		}
	}
	var count int64
	env.db.Model(&models.BonusTransaction{}).Where("user_id = ?", 102).Count(&count)
	if count != 0 {
		t.Fatalf("expected no transactions, got %d", count)
	}
}

func TestBonusServiceRejectsEmptySource(t *testing.T) {
	env := setupBonusTest(t)
	createBonusTestUser(t, env.db, 103)

	// 来源缺失不得默认归类为管理员操作
	_, err := env.bonusSvc.EarnBonuses(BonusEarnInput{
		UserID: 103,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		Source: "  ",
	})
	if !errors.Is(err, ErrBonusSourceRequired) {
		t.Fatalf("expected source required on earn, got: %v", err)
	}

	if _, err := env.bonusSvc.EarnBonuses(BonusEarnInput{
		UserID: 103,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		Source: constants.BonusSourcePromo,
	}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}
	_, err = env.bonusSvc.SpendBonuses(BonusSpendInput{
		UserID: 103,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
	})
	if !errors.Is(err, ErrBonusSourceRequired) {
		t.Fatalf("expected source required on spend, got: %v", err)
	}

	var count int64
	env.db.Model(&models.BonusTransaction{}).
		Where("user_id = ? AND source = ?", 103, constants.BonusSourceAdmin).
		Count(&count)
	if count != 0 {
		t.Fatalf("expected no admin-sourced transactions, got %d", count)
	}
	assertBalanceInvariant(t, env, 103)
}

func TestBonusServiceEarnUnknownUser(t *testing.T) {
	env := setupBonusTest(t)

	_, err := env.bonusSvc.EarnBonuses(BonusEarnInput{
		UserID: 9999,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		Source: constants.BonusSourcePromo,
	})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected user not found, got: %v", err)
	}
}

func TestBonusServiceSpendRecordsNegative(t *testing.T) {
	env := setupBonusTest(t)
	createBonusTestUser(t, env.db, 103)

	if _, err := env.bonusSvc.EarnBonuses(BonusEarnInput{
		UserID: 103,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		Source: constants.BonusSourcePromo,
	}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}

	orderID := uint(77)
	txn, err := env.bonusSvc.SpendBonuses(BonusSpendInput{
		UserID:        103,
		Amount:        models.NewMoneyFromDecimal(decimal.NewFromInt(40)),
		Source:        constants.BonusSourceCheckout,
		ReferenceID:   &orderID,
		ReferenceType: constants.BonusRefTypeOrder,
	})
	if err != nil {
		t.Fatalf("spend failed: %v", err)
	}
	if txn.Type != constants.BonusTxnTypeSpent {
		t.Fatalf("unexpected txn type: %s", txn.Type)
	}
	if !txn.Amount.Decimal.Equal(decimal.NewFromInt(-40)) {
		t.Fatalf("expected -40, got %s", txn.Amount.String())
	}

	balance, err := env.bonusSvc.GetBalance(103)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !balance.Decimal.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("unexpected balance: %s", balance.String())
	}
	assertBalanceInvariant(t, env, 103)
}

func TestBonusServiceSpendInsufficientLeavesNoTrace(t *testing.T) {
	env := setupBonusTest(t)
	createBonusTestUser(t, env.db, 104)

	if _, err := env.bonusSvc.EarnBonuses(BonusEarnInput{
		UserID: 104,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		Source: constants.BonusSourcePromo,
	}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}

	_, err := env.bonusSvc.SpendBonuses(BonusSpendInput{
		UserID: 104,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(150)),
		Source: constants.BonusSourceCheckout,
	})
	if !errors.Is(err, ErrBonusInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got: %v", err)
	}

	balance, err := env.bonusSvc.GetBalance(104)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !balance.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("balance changed after failed spend: %s", balance.String())
	}
	var count int64
	env.db.Model(&models.BonusTransaction{}).Where("user_id = ?", 104).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 transaction, got %d", count)
	}
}

func TestBonusServiceValidateSpend(t *testing.T) {
	env := setupBonusTest(t)
	createBonusTestUser(t, env.db, 105)

	if _, err := env.bonusSvc.EarnBonuses(BonusEarnInput{
		UserID: 105,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		Source: constants.BonusSourcePromo,
	}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}

	ok, err := env.bonusSvc.ValidateSpend(105, models.NewMoneyFromDecimal(decimal.NewFromInt(50)))
	if err != nil || !ok {
		t.Fatalf("expected ok, got ok=%v err=%v", ok, err)
	}
	ok, err = env.bonusSvc.ValidateSpend(105, models.NewMoneyFromDecimal(decimal.NewFromInt(51)))
	if err != nil || ok {
		t.Fatalf("expected not ok, got ok=%v err=%v", ok, err)
	}
	if _, err := env.bonusSvc.ValidateSpend(105, models.NewMoneyFromDecimal(decimal.Zero)); !errors.Is(err, ErrBonusInvalidAmount) {
		t.Fatalf("expected invalid amount, got: %v", err)
	}
}

func TestBonusServiceAdjustBalance(t *testing.T) {
	env := setupBonusTest(t)
	createBonusTestUser(t, env.db, 106)

	txn, err := env.bonusSvc.AdjustBalance(BonusAdjustInput{
		UserID:  106,
		Delta:   models.NewMoneyFromDecimal(decimal.NewFromInt(30)),
		Reason:  "活动补偿",
		AdminID: 1,
	})
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if txn.Type != constants.BonusTxnTypeAdjustment || txn.Source != constants.BonusSourceAdmin {
		t.Fatalf("unexpected adjustment txn: %+v", txn)
	}
	if txn.ExpiresAt == nil {
		t.Fatalf("positive adjustment should carry default expiry")
	}

	if _, err := env.bonusSvc.AdjustBalance(BonusAdjustInput{
		UserID:  106,
		Delta:   models.NewMoneyFromDecimal(decimal.NewFromInt(-20)),
		Reason:  "误发回收",
		AdminID: 1,
	}); err != nil {
		t.Fatalf("negative adjust failed: %v", err)
	}

	_, err = env.bonusSvc.AdjustBalance(BonusAdjustInput{
		UserID:  106,
		Delta:   models.NewMoneyFromDecimal(decimal.NewFromInt(-50)),
		Reason:  "过量回收",
		AdminID: 1,
	})
	if !errors.Is(err, ErrBonusInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got: %v", err)
	}

	balance, err := env.bonusSvc.GetBalance(106)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !balance.Decimal.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected balance: %s", balance.String())
	}
	assertBalanceInvariant(t, env, 106)

	var auditCount int64
	env.db.Model(&models.AuditLog{}).Where("action = ?", "bonus_adjust").Count(&auditCount)
	if auditCount != 2 {
		t.Fatalf("expected 2 audit logs, got %d", auditCount)
	}
}

func TestBonusServiceCalculateMaxApplicable(t *testing.T) {
	env := setupBonusTest(t)
	createBonusTestUser(t, env.db, 107)

	if _, err := env.bonusSvc.EarnBonuses(BonusEarnInput{
		UserID: 107,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(1000)),
		Source: constants.BonusSourcePromo,
	}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}

	cases := []struct {
		total string
		want  string
	}{
		{"600", "300"},       // 比例封顶：600 × 50%
		{"1000", "500"},      // 比例封顶：1000 × 50%
		{"3000", "1000"},     // 余额封顶
		{"333.33", "166.66"}, // 向下取整到分
		{"0", "0"},
	}
	for _, tc := range cases {
		total, _ := decimal.NewFromString(tc.total)
		got, err := env.bonusSvc.CalculateMaxApplicable(107, models.NewMoneyFromDecimal(total))
		if err != nil {
			t.Fatalf("calculate max applicable for %s failed: %v", tc.total, err)
		}
		want, _ := decimal.NewFromString(tc.want)
		if !got.Decimal.Equal(want) {
			t.Fatalf("total %s: expected %s, got %s", tc.total, tc.want, got.String())
		}
	}
}
