package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a physical asset instance classified by group+type.
// Status is owned by the lifecycle service: it is never written by
// the generic update path, only by Issue/Return.
type Product struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TagNo        string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"tag_no"`
	AssetGroupID uuid.UUID       `gorm:"type:uuid;not null;index" json:"asset_group_id"`
	AssetGroup   *AssetGroup     `gorm:"foreignKey:AssetGroupID" json:"asset_group,omitempty"`
	AssetTypeID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"asset_type_id"`
	AssetType    *AssetType      `gorm:"foreignKey:AssetTypeID" json:"asset_type,omitempty"`
	StockedAt    time.Time       `json:"stocked_at"`
	ImagePath    *string         `gorm:"type:varchar(500)" json:"image_path,omitempty"`
	Status       ProductStatus   `gorm:"type:varchar(20);not null;default:'Free'" json:"status"`
	Brand        string          `gorm:"type:varchar(100);not null" json:"brand"`
	Cost         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost"`
	SerialNo     string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"serial_no"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// AssetTransaction is one row of the append-only issue/return ledger.
// Rows are created by the lifecycle service and never mutated or deleted.
type AssetTransaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EmployeeID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"employee_id"`
	Employee        *Employee       `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product         *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	TransactionType TransactionType `gorm:"type:varchar(10);not null" json:"transaction_type"`
	IssuedBy        uuid.UUID       `gorm:"type:uuid;not null" json:"issued_by"` // acting asset manager
	CreatedAt       time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}
