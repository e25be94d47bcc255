package service

import (
	"testing"
	"time"

	"github.com/medialoom/bonusledger/internal/constants"
	"github.com/medialoom/bonusledger/internal/models"

	"github.com/shopspring/decimal"
)

func earnWithExpiry(t *testing.T, env *bonusTestEnv, userID uint, amount int64, expiresAt time.Time) *models.BonusTransaction {
	t.Helper()
	txn, err := env.bonusSvc.EarnBonuses(BonusEarnInput{
		UserID:    userID,
		Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(amount)),
		Source:    constants.BonusSourcePromo,
		ExpiresAt: &expiresAt,
	})
	if err != nil {
		t.Fatalf("earn failed: %v", err)
	}
	return txn
}

func TestExpiryProcessExpiresAndZeroesSources(t *testing.T) {
	env := setupBonusTest(t)
	createBonusTestUser(t, env.db, 201)

	expired := earnWithExpiry(t, env, 201, 500, time.Now().Add(-time.Hour))
	earnWithExpiry(t, env, 201, 200, time.Now().AddDate(0, 0, 30))

	expiredCount, userCount, err := env.expirySvc.ProcessExpiringBonuses()
	if err != nil {
		t.Fatalf("process expiring failed: %v", err)
	}
	if expiredCount != 1 || userCount != 1 {
		t.Fatalf("expected (1, 1), got (%d, %d)", expiredCount, userCount)
	}

	balance, err := env.bonusSvc.GetBalance(201)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !balance.Decimal.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("unexpected balance: %s", balance.String())
	}

	// 来源流水被置零
	var reloaded models.BonusTransaction
	if err := env.db.First(&reloaded, expired.ID).Error; err != nil {
		t.Fatalf("reload source txn failed: %v", err)
	}
	if !reloaded.Amount.Decimal.IsZero() {
		t.Fatalf("source txn amount not zeroed: %s", reloaded.Amount.String())
	}

	// expired 流水带名义金额与实际扣减
	var expiredTxn models.BonusTransaction
	if err := env.db.Where("user_id = ? AND type = ?", 201, constants.BonusTxnTypeExpired).
		First(&expiredTxn).Error; err != nil {
		t.Fatalf("load expired txn failed: %v", err)
	}
	if !expiredTxn.Amount.Decimal.Equal(decimal.NewFromInt(-500)) {
		t.Fatalf("unexpected expired amount: %s", expiredTxn.Amount.String())
	}
	if expiredTxn.Metadata["nominal_amount"] != "500.00" || expiredTxn.Metadata["deducted_amount"] != "500.00" {
		t.Fatalf("unexpected expired metadata: %+v", expiredTxn.Metadata)
	}
	assertBalanceInvariant(t, env, 201)
}

func TestExpiryDeductionClampedToBalance(t *testing.T) {
	env := setupBonusTest(t)
	createBonusTestUser(t, env.db, 202)

	earnWithExpiry(t, env, 202, 500, time.Now().Add(-time.Hour))
	if _, err := env.bonusSvc.SpendBonuses(BonusSpendInput{
		UserID: 202,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(400)),
		Source: constants.BonusSourceCheckout,
	}); err != nil {
		t.Fatalf("spend failed: %v", err)
	}

	if _, _, err := env.expirySvc.ProcessExpiringBonuses(); err != nil {
		t.Fatalf("process expiring failed: %v", err)
	}

	balance, err := env.bonusSvc.GetBalance(202)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !balance.Decimal.IsZero() {
		t.Fatalf("expected zero balance, got %s", balance.String())
	}

	var expiredTxn models.BonusTransaction
	if err := env.db.Where("user_id = ? AND type = ?", 202, constants.BonusTxnTypeExpired).
		First(&expiredTxn).Error; err != nil {
		t.Fatalf("load expired txn failed: %v", err)
	}
	if !expiredTxn.Amount.Decimal.Equal(decimal.NewFromInt(-100)) {
		t.Fatalf("expected deduction clamped to -100, got %s", expiredTxn.Amount.String())
	}
	if expiredTxn.Metadata["nominal_amount"] != "500.00" || expiredTxn.Metadata["deducted_amount"] != "100.00" {
		t.Fatalf("unexpected expired metadata: %+v", expiredTxn.Metadata)
	}
	assertBalanceInvariant(t, env, 202)
}

func TestExpiryDoubleRunIsIdempotent(t *testing.T) {
	env := setupBonusTest(t)
	createBonusTestUser(t, env.db, 203)

	earnWithExpiry(t, env, 203, 300, time.Now().Add(-time.Hour))

	if _, _, err := env.expirySvc.ProcessExpiringBonuses(); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	expiredCount, userCount, err := env.expirySvc.ProcessExpiringBonuses()
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if expiredCount != 0 || userCount != 0 {
		t.Fatalf("second run should be a no-op, got (%d, %d)", expiredCount, userCount)
	}

	balance, err := env.bonusSvc.GetBalance(203)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !balance.Decimal.IsZero() {
		t.Fatalf("unexpected balance after double run: %s", balance.String())
	}
	var expiredTxnCount int64
	env.db.Model(&models.BonusTransaction{}).
		Where("user_id = ? AND type = ?", 203, constants.BonusTxnTypeExpired).
		Count(&expiredTxnCount)
	if expiredTxnCount != 1 {
		t.Fatalf("expected exactly 1 expired txn, got %d", expiredTxnCount)
	}
	assertBalanceInvariant(t, env, 203)
}

func TestExpiryWarningsDedupedWithin24Hours(t *testing.T) {
	env := setupBonusTest(t)
	createBonusTestUser(t, env.db, 204)

	// 7 天后到期，命中提前 7 天的提醒窗口
	target := time.Now().AddDate(0, 0, 7)
	expiresAt := time.Date(target.Year(), target.Month(), target.Day(), 12, 0, 0, 0, target.Location())
	earnWithExpiry(t, env, 204, 80, expiresAt)

	sent, err := env.expirySvc.SendExpirationWarnings()
	if err != nil {
		t.Fatalf("send warnings failed: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected 1 warning, got %d", sent)
	}

	sent, err = env.expirySvc.SendExpirationWarnings()
	if err != nil {
		t.Fatalf("second send failed: %v", err)
	}
	if sent != 0 {
		t.Fatalf("expected dedupe to suppress warnings, got %d", sent)
	}

	var notificationCount int64
	env.db.Model(&models.Notification{}).Where("user_id = ?", 204).Count(&notificationCount)
	if notificationCount != 1 {
		t.Fatalf("expected 1 notification, got %d", notificationCount)
	}
}
