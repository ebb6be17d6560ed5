package model

import (
	"time"

	"github.com/google/uuid"
)

// Department groups employees organizationally
type Department struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DepartmentName string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"department_name"`
	Employees      []Employee `gorm:"foreignKey:DepartmentID" json:"employees,omitempty"`
}

// Employee is both a directory record and a login principal
type Employee struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"user_id"` // business id, e.g. badge number
	FirstName    string         `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName     string         `gorm:"type:varchar(100);not null" json:"last_name"`
	DepartmentID uuid.UUID      `gorm:"type:uuid;not null;index" json:"department_id"`
	Department   *Department    `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	Title        string         `gorm:"type:varchar(100);not null" json:"title"`
	Level        Level          `gorm:"type:varchar(20);not null" json:"level"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone        string         `gorm:"type:varchar(20);not null" json:"phone"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role           `gorm:"type:varchar(20);not null" json:"role"`
	Status       EmployeeStatus `gorm:"type:varchar(20);not null;default:'Active'" json:"status"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// RefreshToken stores long-lived tokens allowing employees to request new access tokens
type RefreshToken struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index" json:"employee_id"`
	Employee   Employee  `gorm:"foreignKey:EmployeeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt  time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
