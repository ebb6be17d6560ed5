package repository

import (
	"context"

	"assetms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssetGroupRepository interface {
	Create(ctx context.Context, group *model.AssetGroup) error
	Update(ctx context.Context, group *model.AssetGroup) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.AssetGroup, error)
	FindByName(ctx context.Context, name string) (*model.AssetGroup, error)
	List(ctx context.Context) ([]model.AssetGroup, error)
	CountTypes(ctx context.Context, groupID uuid.UUID) (int64, error)
}

type assetGroupRepository struct {
	db *gorm.DB
}

func NewAssetGroupRepository(db *gorm.DB) AssetGroupRepository {
	return &assetGroupRepository{db: db}
}

func (r *assetGroupRepository) Create(ctx context.Context, group *model.AssetGroup) error {
	return GetDB(ctx, r.db).Create(group).Error
}

func (r *assetGroupRepository) Update(ctx context.Context, group *model.AssetGroup) error {
	return GetDB(ctx, r.db).Save(group).Error
}

func (r *assetGroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.AssetGroup{}).Error
}

func (r *assetGroupRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AssetGroup, error) {
	var group model.AssetGroup
	if err := GetDB(ctx, r.db).First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *assetGroupRepository) FindByName(ctx context.Context, name string) (*model.AssetGroup, error) {
	var group model.AssetGroup
	if err := GetDB(ctx, r.db).Where("group_name = ?", name).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *assetGroupRepository) List(ctx context.Context) ([]model.AssetGroup, error) {
	var groups []model.AssetGroup
	if err := GetDB(ctx, r.db).Order("group_name asc").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *assetGroupRepository) CountTypes(ctx context.Context, groupID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.AssetType{}).Where("group_id = ?", groupID).Count(&count).Error
	return count, err
}

type AssetTypeRepository interface {
	Create(ctx context.Context, t *model.AssetType) error
	Update(ctx context.Context, t *model.AssetType) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.AssetType, error)
	FindByGroupAndName(ctx context.Context, groupID uuid.UUID, name string) (*model.AssetType, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]model.AssetType, error)
	ExistsInGroup(ctx context.Context, typeID, groupID uuid.UUID) (bool, error)
	CountProducts(ctx context.Context, typeID uuid.UUID) (int64, error)
}

type assetTypeRepository struct {
	db *gorm.DB
}

func NewAssetTypeRepository(db *gorm.DB) AssetTypeRepository {
	return &assetTypeRepository{db: db}
}

func (r *assetTypeRepository) Create(ctx context.Context, t *model.AssetType) error {
	return GetDB(ctx, r.db).Create(t).Error
}

func (r *assetTypeRepository) Update(ctx context.Context, t *model.AssetType) error {
	return GetDB(ctx, r.db).Save(t).Error
}

func (r *assetTypeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.AssetType{}).Error
}

func (r *assetTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AssetType, error) {
	var t model.AssetType
	if err := GetDB(ctx, r.db).Preload("Group").First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *assetTypeRepository) FindByGroupAndName(ctx context.Context, groupID uuid.UUID, name string) (*model.AssetType, error) {
	var t model.AssetType
	if err := GetDB(ctx, r.db).Where("group_id = ? AND type_name = ?", groupID, name).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *assetTypeRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]model.AssetType, error) {
	var types []model.AssetType
	if err := GetDB(ctx, r.db).Preload("Group").Where("group_id = ?", groupID).Order("type_name asc").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

// ExistsInGroup reports whether typeID belongs to groupID. The pairing check
// products rely on before classifying an asset.
func (r *assetTypeRepository) ExistsInGroup(ctx context.Context, typeID, groupID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.AssetType{}).
		Where("id = ? AND group_id = ?", typeID, groupID).Count(&count).Error
	return count > 0, err
}

func (r *assetTypeRepository) CountProducts(ctx context.Context, typeID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Product{}).Where("asset_type_id = ?", typeID).Count(&count).Error
	return count, err
}
