package repository

import (
	"context"

	"assetms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductFilter narrows product listings
type ProductFilter struct {
	Search string // matches tag_no or brand
	Status model.ProductStatus
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByTagNo(ctx context.Context, tagNo string) (*model.Product, error)
	FindBySerialNo(ctx context.Context, serialNo string) (*model.Product, error)
	List(ctx context.Context, page, limit int, filter ProductFilter) ([]model.Product, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProductStatus) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Product{}).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Preload("AssetGroup").Preload("AssetType").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDForUpdate takes a row lock so concurrent issue/return on the same
// product serialize inside the surrounding transaction.
func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByTagNo(ctx context.Context, tagNo string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Where("tag_no = ?", tagNo).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindBySerialNo(ctx context.Context, serialNo string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Where("serial_no = ?", serialNo).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, page, limit int, filter ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Product{})
	if filter.Search != "" {
		db = db.Where("tag_no ILIKE ? OR brand ILIKE ?", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("AssetGroup").Preload("AssetType").
		Order("created_at desc").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProductStatus) error {
	return GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).Update("status", status).Error
}
