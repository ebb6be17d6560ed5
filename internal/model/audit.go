package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateGroup      = "CREATE_ASSET_GROUP"
	ActionUpdateGroup      = "UPDATE_ASSET_GROUP"
	ActionDeleteGroup      = "DELETE_ASSET_GROUP"
	ActionCreateType       = "CREATE_ASSET_TYPE"
	ActionUpdateType       = "UPDATE_ASSET_TYPE"
	ActionDeleteType       = "DELETE_ASSET_TYPE"
	ActionCreateDepartment = "CREATE_DEPARTMENT"
	ActionUpdateDepartment = "UPDATE_DEPARTMENT"
	ActionDeleteDepartment = "DELETE_DEPARTMENT"
	ActionCreateEmployee   = "CREATE_EMPLOYEE"
	ActionUpdateEmployee   = "UPDATE_EMPLOYEE"
	ActionDeleteEmployee   = "DELETE_EMPLOYEE"
	ActionCreateProduct    = "CREATE_PRODUCT"
	ActionUpdateProduct    = "UPDATE_PRODUCT"
	ActionDeleteProduct    = "DELETE_PRODUCT"
	ActionIssueAsset       = "ISSUE_ASSET"
	ActionReturnAsset      = "RETURN_ASSET"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ActorID    *uuid.UUID `gorm:"type:uuid;index" json:"actor_id"` // nil when written by automation
	Actor      *Employee  `gorm:"foreignKey:ActorID" json:"actor"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"` // serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
