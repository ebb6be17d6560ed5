package repository

import (
	"context"

	"assetms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionRepository is the append-only ledger of issue/return events.
// There is deliberately no Update or Delete.
type TransactionRepository interface {
	Create(ctx context.Context, tx *model.AssetTransaction) error
	FindLatestByProduct(ctx context.Context, productID uuid.UUID) (*model.AssetTransaction, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.AssetTransaction, int64, error)
	ListHeldProducts(ctx context.Context, employeeID uuid.UUID) ([]model.Product, error)
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	CountByEmployee(ctx context.Context, employeeID uuid.UUID) (int64, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *model.AssetTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

// FindLatestByProduct returns the newest ledger row for a product. Ties on
// created_at break by id so insertion order wins.
func (r *transactionRepository) FindLatestByProduct(ctx context.Context, productID uuid.UUID) (*model.AssetTransaction, error) {
	var tx model.AssetTransaction
	if err := GetDB(ctx, r.db).Where("product_id = ?", productID).
		Order("created_at desc, id desc").First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

// ListByProduct returns the full audit trail oldest-first.
func (r *transactionRepository) ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.AssetTransaction, int64, error) {
	var txs []model.AssetTransaction
	var total int64

	db := GetDB(ctx, r.db).Model(&model.AssetTransaction{}).Where("product_id = ?", productID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Employee").Order("created_at asc, id asc").
		Offset(offset).Limit(limit).Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}

// ListHeldProducts returns the products whose latest ledger entry is an Issue
// by the given employee, i.e. what they currently have checked out.
func (r *transactionRepository) ListHeldProducts(ctx context.Context, employeeID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := GetDB(ctx, r.db).
		Joins("JOIN asset_transactions at ON at.product_id = products.id").
		Where("at.employee_id = ? AND at.transaction_type = ? AND products.status = ?",
			employeeID, model.TxIssue, model.ProductTaken).
		Where(`at.created_at = (
			SELECT MAX(created_at) FROM asset_transactions WHERE product_id = products.id
		)`).
		Preload("AssetGroup").Preload("AssetType").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *transactionRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.AssetTransaction{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}

func (r *transactionRepository) CountByEmployee(ctx context.Context, employeeID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.AssetTransaction{}).Where("employee_id = ?", employeeID).Count(&count).Error
	return count, err
}
