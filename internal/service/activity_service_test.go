package service

import (
	"testing"

	"github.com/medialoom/bonusledger/internal/constants"
	"github.com/medialoom/bonusledger/internal/models"

	"github.com/shopspring/decimal"
)

func TestActivityOneTimeGrantedOnce(t *testing.T) {
	env := setupBonusTest(t)
	createBonusTestUser(t, env.db, 501)

	first, err := env.activitySvc.GrantActivityBonus(501, constants.ActivityFirstPurchase, nil)
	if err != nil {
		t.Fatalf("first grant failed: %v", err)
	}
	if first == nil || !first.Amount.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected first grant: %+v", first)
	}
	if first.Source != constants.BonusSourceActivity {
		t.Fatalf("unexpected source: %s", first.Source)
	}

	second, err := env.activitySvc.GrantActivityBonus(501, constants.ActivityFirstPurchase, nil)
	if err != nil {
		t.Fatalf("second grant errored: %v", err)
	}
	if second != nil {
		t.Fatalf("expected one-time activity to no-op, got %+v", second)
	}

	balance, err := env.bonusSvc.GetBalance(501)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !balance.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected balance: %s", balance.String())
	}

	var recordCount int64
	env.db.Model(&models.UserActivityBonus{}).
		Where("user_id = ? AND activity_type = ?", 501, constants.ActivityFirstPurchase).
		Count(&recordCount)
	if recordCount != 1 {
		t.Fatalf("expected 1 activity record, got %d", recordCount)
	}
	assertBalanceInvariant(t, env, 501)
}

func TestActivityRepeatableGrantsEachTime(t *testing.T) {
	env := setupBonusTest(t)
	createBonusTestUser(t, env.db, 502)

	for i := 0; i < 3; i++ {
		txn, err := env.activitySvc.GrantActivityBonus(502, constants.ActivityDailyStreak, models.JSON{"day": i + 1})
		if err != nil {
			t.Fatalf("grant %d failed: %v", i+1, err)
		}
		if txn == nil {
			t.Fatalf("grant %d unexpectedly skipped", i+1)
		}
	}

	balance, err := env.bonusSvc.GetBalance(502)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !balance.Decimal.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unexpected balance: %s", balance.String())
	}
}

func TestActivityUnknownTypeIsNoOp(t *testing.T) {
	env := setupBonusTest(t)
	createBonusTestUser(t, env.db, 503)

	txn, err := env.activitySvc.GrantActivityBonus(503, "typo_activity", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txn != nil {
		t.Fatalf("expected no-op for unknown activity, got %+v", txn)
	}

	var count int64
	env.db.Model(&models.BonusTransaction{}).Where("user_id = ?", 503).Count(&count)
	if count != 0 {
		t.Fatalf("expected no transactions, got %d", count)
	}
}
