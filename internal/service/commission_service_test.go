package service

import (
	"errors"
	"testing"
	"time"

	"github.com/medialoom/bonusledger/internal/constants"
	"github.com/medialoom/bonusledger/internal/models"

	"github.com/shopspring/decimal"
)

func createTestCommission(t *testing.T, env *bonusTestEnv, userID uint, amount int64, status string) *models.PartnerCommission {
	t.Helper()
	now := time.Now()
	commission := &models.PartnerCommission{
		UserID:    userID,
		Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(amount)),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == constants.CommissionStatusApproved {
		commission.ApprovedAt = &now
	}
	if err := env.db.Create(commission).Error; err != nil {
		t.Fatalf("create commission failed: %v", err)
	}
	return commission
}

func TestCommissionConvertToBonus(t *testing.T) {
	env := setupBonusTest(t)
	createBonusTestUser(t, env.db, 301)
	commission := createTestCommission(t, env, 301, 200, constants.CommissionStatusApproved)

	txn, err := env.commissionSvc.ConvertCommissionToBonus(301, commission.ID)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if txn.Source != constants.BonusSourcePartner || txn.ReferenceType != constants.BonusRefTypeCommission {
		t.Fatalf("unexpected earn txn: %+v", txn)
	}
	if txn.ReferenceID == nil || *txn.ReferenceID != commission.ID {
		t.Fatalf("unexpected reference id: %v", txn.ReferenceID)
	}

	var reloaded models.PartnerCommission
	if err := env.db.First(&reloaded, commission.ID).Error; err != nil {
		t.Fatalf("reload commission failed: %v", err)
	}
	if reloaded.Status != constants.CommissionStatusPaid || reloaded.PaidAt == nil {
		t.Fatalf("commission not marked paid: %+v", reloaded)
	}

	balance, err := env.bonusSvc.GetBalance(301)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !balance.Decimal.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("unexpected balance: %s", balance.String())
	}
	assertBalanceInvariant(t, env, 301)
}

func TestCommissionConvertRejectsDoubleConversion(t *testing.T) {
	env := setupBonusTest(t)
	createBonusTestUser(t, env.db, 302)
	commission := createTestCommission(t, env, 302, 100, constants.CommissionStatusApproved)

	if _, err := env.commissionSvc.ConvertCommissionToBonus(302, commission.ID); err != nil {
		t.Fatalf("first convert failed: %v", err)
	}
	_, err := env.commissionSvc.ConvertCommissionToBonus(302, commission.ID)
	if !errors.Is(err, ErrCommissionNotApproved) {
		t.Fatalf("expected not approved on second convert, got: %v", err)
	}

	balance, err := env.bonusSvc.GetBalance(302)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !balance.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("balance changed by failed convert: %s", balance.String())
	}
}

func TestCommissionConvertStateChecks(t *testing.T) {
	env := setupBonusTest(t)
	createBonusTestUser(t, env.db, 303)
	createBonusTestUser(t, env.db, 304)

	pending := createTestCommission(t, env, 303, 100, constants.CommissionStatusPending)
	if _, err := env.commissionSvc.ConvertCommissionToBonus(303, pending.ID); !errors.Is(err, ErrCommissionNotApproved) {
		t.Fatalf("expected not approved for pending, got: %v", err)
	}

	rejected := createTestCommission(t, env, 303, 100, constants.CommissionStatusRejected)
	if _, err := env.commissionSvc.ConvertCommissionToBonus(303, rejected.ID); !errors.Is(err, ErrCommissionNotApproved) {
		t.Fatalf("expected not approved for rejected, got: %v", err)
	}

	approved := createTestCommission(t, env, 303, 100, constants.CommissionStatusApproved)
	if _, err := env.commissionSvc.ConvertCommissionToBonus(304, approved.ID); !errors.Is(err, ErrCommissionNotOwned) {
		t.Fatalf("expected not owned, got: %v", err)
	}

	if _, err := env.commissionSvc.ConvertCommissionToBonus(303, 99999); !errors.Is(err, ErrCommissionNotFound) {
		t.Fatalf("expected not found, got: %v", err)
	}
}
