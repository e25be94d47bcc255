package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/medialoom/bonusledger/internal/constants"
	"github.com/medialoom/bonusledger/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupBonusRepositoryTest(t *testing.T) (*GormBonusRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:bonus_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.BonusTransaction{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewBonusRepository(db), db
}

func createBonusTxn(t *testing.T, db *gorm.DB, userID uint, txnType, source string, amount int64, expiresAt *time.Time) *models.BonusTransaction {
	t.Helper()
	now := time.Now()
	txn := &models.BonusTransaction{
		UserID:    userID,
		Type:      txnType,
		Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(amount)),
		Source:    source,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("create txn failed: %v", err)
	}
	return txn
}

func TestBonusRepositoryListExpiringTransactions(t *testing.T) {
	repo, db := setupBonusRepositoryTest(t)
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.AddDate(0, 0, 10)

	expired := createBonusTxn(t, db, 1, constants.BonusTxnTypeEarned, constants.BonusSourcePromo, 100, &past)
	createBonusTxn(t, db, 1, constants.BonusTxnTypeEarned, constants.BonusSourcePromo, 50, &future)
	createBonusTxn(t, db, 1, constants.BonusTxnTypeSpent, constants.BonusSourceCheckout, -30, nil)
	// 金额已置零的到期流水不再出现
	zeroed := createBonusTxn(t, db, 2, constants.BonusTxnTypeEarned, constants.BonusSourcePromo, 80, &past)
	if err := repo.ZeroTransactionAmounts([]uint{zeroed.ID}, now); err != nil {
		t.Fatalf("zero amounts failed: %v", err)
	}

	txns, err := repo.ListExpiringTransactions(now)
	if err != nil {
		t.Fatalf("list expiring failed: %v", err)
	}
	if len(txns) != 1 || txns[0].ID != expired.ID {
		t.Fatalf("unexpected expiring txns: %+v", txns)
	}
}

func TestBonusRepositoryListTransactionsExpiringBetween(t *testing.T) {
	repo, db := setupBonusRepositoryTest(t)
	now := time.Now()
	in5 := now.AddDate(0, 0, 5)
	in7 := now.AddDate(0, 0, 7)
	in9 := now.AddDate(0, 0, 9)

	createBonusTxn(t, db, 1, constants.BonusTxnTypeEarned, constants.BonusSourcePromo, 10, &in5)
	target := createBonusTxn(t, db, 1, constants.BonusTxnTypeEarned, constants.BonusSourcePromo, 20, &in7)
	createBonusTxn(t, db, 1, constants.BonusTxnTypeEarned, constants.BonusSourcePromo, 30, &in9)

	from := now.AddDate(0, 0, 6)
	to := now.AddDate(0, 0, 8)
	txns, err := repo.ListTransactionsExpiringBetween(from, to)
	if err != nil {
		t.Fatalf("list expiring between failed: %v", err)
	}
	if len(txns) != 1 || txns[0].ID != target.ID {
		t.Fatalf("unexpected window result: %+v", txns)
	}
}

func TestBonusRepositorySumTransactionAmounts(t *testing.T) {
	repo, db := setupBonusRepositoryTest(t)

	createBonusTxn(t, db, 3, constants.BonusTxnTypeEarned, constants.BonusSourcePromo, 200, nil)
	createBonusTxn(t, db, 3, constants.BonusTxnTypeSpent, constants.BonusSourceCheckout, -75, nil)
	createBonusTxn(t, db, 4, constants.BonusTxnTypeEarned, constants.BonusSourcePromo, 999, nil)

	sum, err := repo.SumTransactionAmounts(3)
	if err != nil {
		t.Fatalf("sum failed: %v", err)
	}
	if !sum.Equal(decimal.NewFromInt(125)) {
		t.Fatalf("expected 125, got %s", sum.String())
	}

	sum, err = repo.SumTransactionAmounts(999)
	if err != nil {
		t.Fatalf("sum for empty user failed: %v", err)
	}
	if !sum.IsZero() {
		t.Fatalf("expected zero for empty user, got %s", sum.String())
	}
}

func TestBonusRepositoryHasTransactionByReference(t *testing.T) {
	repo, db := setupBonusRepositoryTest(t)
	referredID := uint(42)
	now := time.Now()
	txn := &models.BonusTransaction{
		UserID:        5,
		Type:          constants.BonusTxnTypeEarned,
		Amount:        models.NewMoneyFromDecimal(decimal.NewFromInt(25)),
		Source:        constants.BonusSourceReferral,
		ReferenceID:   &referredID,
		ReferenceType: constants.BonusRefTypeUser,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("create txn failed: %v", err)
	}

	exists, err := repo.HasTransactionByReference(5, constants.BonusSourceReferral, 42, constants.BonusRefTypeUser)
	if err != nil || !exists {
		t.Fatalf("expected match, got exists=%v err=%v", exists, err)
	}
	exists, err = repo.HasTransactionByReference(5, constants.BonusSourceReferral, 43, constants.BonusRefTypeUser)
	if err != nil || exists {
		t.Fatalf("expected no match, got exists=%v err=%v", exists, err)
	}
}

func TestBonusRepositorySumAmountsByType(t *testing.T) {
	repo, db := setupBonusRepositoryTest(t)

	createBonusTxn(t, db, 6, constants.BonusTxnTypeEarned, constants.BonusSourcePromo, 100, nil)
	createBonusTxn(t, db, 6, constants.BonusTxnTypeEarned, constants.BonusSourcePromo, 60, nil)
	createBonusTxn(t, db, 7, constants.BonusTxnTypeSpent, constants.BonusSourceCheckout, -40, nil)

	sums, err := repo.SumAmountsByType()
	if err != nil {
		t.Fatalf("sum by type failed: %v", err)
	}
	if !sums[constants.BonusTxnTypeEarned].Equal(decimal.NewFromInt(160)) {
		t.Fatalf("unexpected earned sum: %s", sums[constants.BonusTxnTypeEarned].String())
	}
	if !sums[constants.BonusTxnTypeSpent].Equal(decimal.NewFromInt(-40)) {
		t.Fatalf("unexpected spent sum: %s", sums[constants.BonusTxnTypeSpent].String())
	}

	count, err := repo.CountDistinctUsers()
	if err != nil {
		t.Fatalf("count distinct users failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 distinct users, got %d", count)
	}
}
