package repository

import (
	"time"

	"github.com/medialoom/bonusledger/internal/constants"
	"github.com/medialoom/bonusledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BonusRepository 奖励金流水数据访问接口
type BonusRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormBonusRepository
	CreateTransaction(txn *models.BonusTransaction) error
	ListTransactions(filter BonusTransactionListFilter) ([]models.BonusTransaction, int64, error)
	CountTransactionsByUserAndType(userID uint, txnType string) (int64, error)
	HasTransactionByReference(userID uint, source string, referenceID uint, referenceType string) (bool, error)
	ListExpiringTransactions(now time.Time) ([]models.BonusTransaction, error)
	ListExpiringTransactionsForUserForUpdate(userID uint, now time.Time) ([]models.BonusTransaction, error)
	ZeroTransactionAmounts(ids []uint, now time.Time) error
	ListTransactionsExpiringBetween(from, to time.Time) ([]models.BonusTransaction, error)
	SumTransactionAmounts(userID uint) (decimal.Decimal, error)
	SumAmountsByType() (map[string]decimal.Decimal, error)
	CountDistinctUsers() (int64, error)
}

// GormBonusRepository GORM 奖励金仓储实现
type GormBonusRepository struct {
	db *gorm.DB
}

// NewBonusRepository 创建奖励金仓储
func NewBonusRepository(db *gorm.DB) *GormBonusRepository {
	return &GormBonusRepository{db: db}
}

// Transaction 在数据库事务内执行回调
func (r *GormBonusRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// WithTx 绑定事务
func (r *GormBonusRepository) WithTx(tx *gorm.DB) *GormBonusRepository {
	if tx == nil {
		return r
	}
	return &GormBonusRepository{db: tx}
}

// CreateTransaction 创建奖励金流水
func (r *GormBonusRepository) CreateTransaction(txn *models.BonusTransaction) error {
	return r.db.Create(txn).Error
}

// ListTransactions 分页查询奖励金流水
func (r *GormBonusRepository) ListTransactions(filter BonusTransactionListFilter) ([]models.BonusTransaction, int64, error) {
	query := r.db.Model(&models.BonusTransaction{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var txns []models.BonusTransaction
	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// CountTransactionsByUserAndType 统计用户某类型流水数量
func (r *GormBonusRepository) CountTransactionsByUserAndType(userID uint, txnType string) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.BonusTransaction{}).
		Where("user_id = ? AND type = ?", userID, txnType).
		Count(&count).Error
	return count, err
}

// HasTransactionByReference 判断用户是否已存在指定来源与关联实体的流水
func (r *GormBonusRepository) HasTransactionByReference(userID uint, source string, referenceID uint, referenceType string) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var count int64
	err := r.db.Model(&models.BonusTransaction{}).
		Where("user_id = ? AND source = ? AND reference_id = ? AND reference_type = ?",
			userID, source, referenceID, referenceType).
		Count(&count).Error
	return count > 0, err
}

// ListExpiringTransactions 查询所有已到期且未消费的 earned 流水
// （amount > 0 即"未消费"：过期引擎处理后会把 amount 置零）
func (r *GormBonusRepository) ListExpiringTransactions(now time.Time) ([]models.BonusTransaction, error) {
	var txns []models.BonusTransaction
	err := r.db.
		Where("type = ? AND amount > 0 AND expires_at IS NOT NULL AND expires_at <= ?",
			constants.BonusTxnTypeEarned, now).
		Order("user_id, id").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// ListExpiringTransactionsForUserForUpdate 在事务内加锁重读某用户的到期流水
func (r *GormBonusRepository) ListExpiringTransactionsForUserForUpdate(userID uint, now time.Time) ([]models.BonusTransaction, error) {
	if userID == 0 {
		return nil, nil
	}
	var txns []models.BonusTransaction
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND type = ? AND amount > 0 AND expires_at IS NOT NULL AND expires_at <= ?",
			userID, constants.BonusTxnTypeEarned, now).
		Order("id").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// ZeroTransactionAmounts 将指定流水的金额置零（过期引擎的幂等标记）
func (r *GormBonusRepository) ZeroTransactionAmounts(ids []uint, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.BonusTransaction{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"amount":     models.NewMoneyFromDecimal(decimal.Zero),
			"updated_at": now,
		}).Error
}

// ListTransactionsExpiringBetween 查询在时间窗口内到期的未消费 earned 流水
func (r *GormBonusRepository) ListTransactionsExpiringBetween(from, to time.Time) ([]models.BonusTransaction, error) {
	var txns []models.BonusTransaction
	err := r.db.
		Where("type = ? AND amount > 0 AND expires_at >= ? AND expires_at < ?",
			constants.BonusTxnTypeEarned, from, to).
		Order("user_id, id").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// SumTransactionAmounts 汇总用户全部流水金额（应与余额字段一致）
func (r *GormBonusRepository) SumTransactionAmounts(userID uint) (decimal.Decimal, error) {
	if userID == 0 {
		return decimal.Zero, nil
	}
	var raw *string
	err := r.db.Model(&models.BonusTransaction{}).
		Where("user_id = ?", userID).
		Select("CAST(COALESCE(SUM(amount), 0) AS TEXT)").
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	if raw == nil || *raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}

// SumAmountsByType 按交易类型汇总全量金额
func (r *GormBonusRepository) SumAmountsByType() (map[string]decimal.Decimal, error) {
	type row struct {
		Type  string
		Total string
	}
	var rows []row
	err := r.db.Model(&models.BonusTransaction{}).
		Select("type, CAST(COALESCE(SUM(amount), 0) AS TEXT) AS total").
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]decimal.Decimal, len(rows))
	for _, item := range rows {
		total, parseErr := decimal.NewFromString(item.Total)
		if parseErr != nil {
			return nil, parseErr
		}
		result[item.Type] = total
	}
	return result, nil
}

// CountDistinctUsers 统计出现过流水的用户数
func (r *GormBonusRepository) CountDistinctUsers() (int64, error) {
	var count int64
	err := r.db.Model(&models.BonusTransaction{}).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}
