package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"assetms/internal/apperr"
	"assetms/internal/model"
	"assetms/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// DTOs
type CreateEmployeeRequest struct {
	UserID       string `json:"user_id" binding:"required"`
	FirstName    string `json:"first_name" binding:"required"`
	LastName     string `json:"last_name" binding:"required"`
	DepartmentID string `json:"department_id" binding:"required"`
	Title        string `json:"title" binding:"required"`
	Level        string `json:"level" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone" binding:"required"`
	Password     string `json:"password" binding:"required,min=6"`
	Role         string `json:"role" binding:"required"`
}

type UpdateEmployeeRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	DepartmentID string `json:"department_id"`
	Title        string `json:"title"`
	Level        string `json:"level"`
	Phone        string `json:"phone"`
	Role         string `json:"role"`
}

type EmployeeResponse struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	DepartmentID   string `json:"department_id"`
	DepartmentName string `json:"department_name,omitempty"`
	Title          string `json:"title"`
	Level          string `json:"level"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Role           string `json:"role"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

type EmployeeService interface {
	Create(ctx context.Context, actorID string, req CreateEmployeeRequest) (*EmployeeResponse, error)
	GetByID(ctx context.Context, id string) (*EmployeeResponse, error)
	List(ctx context.Context, page, limit int) ([]EmployeeResponse, int64, error)
	Update(ctx context.Context, actorID string, id string, req UpdateEmployeeRequest) (*EmployeeResponse, error)
	SetStatus(ctx context.Context, actorID string, id string, status string) (*EmployeeResponse, error)
	Delete(ctx context.Context, actorID string, id string) error
}

type employeeService struct {
	employeeRepo repository.EmployeeRepository
	deptRepo     repository.DepartmentRepository
	txRepo       repository.TransactionRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewEmployeeService(
	employeeRepo repository.EmployeeRepository,
	deptRepo repository.DepartmentRepository,
	txRepo repository.TransactionRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) EmployeeService {
	return &employeeService{
		employeeRepo: employeeRepo,
		deptRepo:     deptRepo,
		txRepo:       txRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

func mapEmployee(e *model.Employee) *EmployeeResponse {
	res := &EmployeeResponse{
		ID:           e.ID.String(),
		UserID:       e.UserID,
		FirstName:    e.FirstName,
		LastName:     e.LastName,
		DepartmentID: e.DepartmentID.String(),
		Title:        e.Title,
		Level:        string(e.Level),
		Email:        e.Email,
		Phone:        e.Phone,
		Role:         string(e.Role),
		Status:       string(e.Status),
		CreatedAt:    e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if e.Department != nil {
		res.DepartmentName = e.Department.DepartmentName
	}
	return res
}

func (s *employeeService) writeAudit(ctx context.Context, actorID, action string, e *model.Employee, payload interface{}) error {
	var actor *uuid.UUID
	if parsed, err := uuid.Parse(actorID); err == nil {
		actor = &parsed
	}
	details, _ := json.Marshal(payload)
	entry := &model.AuditLog{
		ActorID:    actor,
		Action:     action,
		EntityID:   e.ID.String(),
		EntityName: e.FirstName + " " + e.LastName,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *employeeService) Create(ctx context.Context, actorID string, req CreateEmployeeRequest) (*EmployeeResponse, error) {
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return nil, apperr.Invalid(err.Error())
	}
	level, err := model.ParseLevel(req.Level)
	if err != nil {
		return nil, apperr.Invalid(err.Error())
	}
	if !emailRegex.MatchString(req.Email) {
		return nil, apperr.Invalid("invalid email format")
	}

	deptID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		return nil, apperr.Invalid("invalid department id")
	}
	if _, err := s.deptRepo.FindByID(ctx, deptID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("department does not exist")
		}
		return nil, fmt.Errorf("failed to load department: %w", err)
	}

	if _, err := s.employeeRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperr.Conflict("email already exists")
	}
	if _, err := s.employeeRepo.FindByUserID(ctx, req.UserID); err == nil {
		return nil, apperr.Conflict("user id already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	employee := &model.Employee{
		UserID:       req.UserID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DepartmentID: deptID,
		Title:        req.Title,
		Level:        level,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hashed),
		Role:         role,
		Status:       model.EmployeeActive,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.employeeRepo.Create(txCtx, employee); err != nil {
			return fmt.Errorf("failed to create employee: %w", err)
		}
		// Never log the password, even hashed
		return s.writeAudit(txCtx, actorID, model.ActionCreateEmployee, employee, map[string]string{
			"user_id":       req.UserID,
			"email":         req.Email,
			"department_id": req.DepartmentID,
			"role":          req.Role,
		})
	})
	if err != nil {
		return nil, err
	}
	return mapEmployee(employee), nil
}

func (s *employeeService) GetByID(ctx context.Context, id string) (*EmployeeResponse, error) {
	employeeID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Invalid("invalid employee id")
	}

	employee, err := s.employeeRepo.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("employee not found")
		}
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	return mapEmployee(employee), nil
}

func (s *employeeService) List(ctx context.Context, page, limit int) ([]EmployeeResponse, int64, error) {
	employees, total, err := s.employeeRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	res := make([]EmployeeResponse, 0, len(employees))
	for i := range employees {
		res = append(res, *mapEmployee(&employees[i]))
	}
	return res, total, nil
}

func (s *employeeService) Update(ctx context.Context, actorID string, id string, req UpdateEmployeeRequest) (*EmployeeResponse, error) {
	employeeID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Invalid("invalid employee id")
	}

	employee, err := s.employeeRepo.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("employee not found")
		}
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}

	if req.FirstName != "" {
		employee.FirstName = req.FirstName
	}
	if req.LastName != "" {
		employee.LastName = req.LastName
	}
	if req.Title != "" {
		employee.Title = req.Title
	}
	if req.Phone != "" {
		employee.Phone = req.Phone
	}
	if req.Level != "" {
		level, err := model.ParseLevel(req.Level)
		if err != nil {
			return nil, apperr.Invalid(err.Error())
		}
		employee.Level = level
	}
	if req.Role != "" {
		role, err := model.ParseRole(req.Role)
		if err != nil {
			return nil, apperr.Invalid(err.Error())
		}
		employee.Role = role
	}
	if req.DepartmentID != "" {
		deptID, err := uuid.Parse(req.DepartmentID)
		if err != nil {
			return nil, apperr.Invalid("invalid department id")
		}
		if _, err := s.deptRepo.FindByID(ctx, deptID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("department does not exist")
			}
			return nil, fmt.Errorf("failed to load department: %w", err)
		}
		employee.DepartmentID = deptID
		employee.Department = nil
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.employeeRepo.Update(txCtx, employee); err != nil {
			return fmt.Errorf("failed to update employee: %w", err)
		}
		return s.writeAudit(txCtx, actorID, model.ActionUpdateEmployee, employee, req)
	})
	if err != nil {
		return nil, err
	}
	return mapEmployee(employee), nil
}

// SetStatus activates or deactivates an account. Kept out of the generic
// update so a stray payload cannot flip it.
func (s *employeeService) SetStatus(ctx context.Context, actorID string, id string, status string) (*EmployeeResponse, error) {
	parsed, err := model.ParseEmployeeStatus(status)
	if err != nil {
		return nil, apperr.Invalid(err.Error())
	}

	employeeID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Invalid("invalid employee id")
	}

	employee, err := s.employeeRepo.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("employee not found")
		}
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}

	employee.Status = parsed
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.employeeRepo.Update(txCtx, employee); err != nil {
			return fmt.Errorf("failed to update employee: %w", err)
		}
		return s.writeAudit(txCtx, actorID, model.ActionUpdateEmployee, employee, map[string]string{"status": status})
	})
	if err != nil {
		return nil, err
	}
	return mapEmployee(employee), nil
}

// Delete refuses while the ledger references the employee, so the audit
// trail of past checkouts stays intact.
func (s *employeeService) Delete(ctx context.Context, actorID string, id string) error {
	employeeID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Invalid("invalid employee id")
	}

	employee, err := s.employeeRepo.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("employee not found")
		}
		return fmt.Errorf("failed to load employee: %w", err)
	}

	txCount, err := s.txRepo.CountByEmployee(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to count transactions: %w", err)
	}
	if txCount > 0 {
		return apperr.Conflict("cannot delete employee because they appear in the asset ledger")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.employeeRepo.Delete(txCtx, employeeID); err != nil {
			return fmt.Errorf("failed to delete employee: %w", err)
		}
		return s.writeAudit(txCtx, actorID, model.ActionDeleteEmployee, employee, map[string]bool{"deleted": true})
	})
}
