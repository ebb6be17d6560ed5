package model

import (
	"github.com/google/uuid"
)

// AssetGroup is the top level of the two-level asset taxonomy
type AssetGroup struct {
	ID        uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	GroupName string      `gorm:"type:varchar(100);uniqueIndex;not null" json:"group_name"`
	Types     []AssetType `gorm:"foreignKey:GroupID" json:"types,omitempty"`
}

// AssetType belongs to exactly one AssetGroup; names are unique per group
type AssetType struct {
	ID       uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	GroupID  uuid.UUID   `gorm:"type:uuid;not null;index;uniqueIndex:idx_group_type_name" json:"group_id"`
	Group    *AssetGroup `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	TypeName string      `gorm:"type:varchar(100);not null;uniqueIndex:idx_group_type_name" json:"type_name"`
}
