package service

import (
	"context"
	"errors"
	"fmt"

	"assetms/internal/apperr"
	"assetms/internal/model"
	"assetms/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type CreateDepartmentRequest struct {
	Name string `json:"name" binding:"required"`
}

type UpdateDepartmentRequest struct {
	Name string `json:"name" binding:"required"`
}

type DepartmentResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DepartmentService interface {
	Create(ctx context.Context, actorID string, req CreateDepartmentRequest) (*DepartmentResponse, error)
	List(ctx context.Context) ([]DepartmentResponse, error)
	Update(ctx context.Context, actorID string, id string, req UpdateDepartmentRequest) (*DepartmentResponse, error)
	Delete(ctx context.Context, actorID string, id string) error
}

type departmentService struct {
	deptRepo  repository.DepartmentRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewDepartmentService(
	deptRepo repository.DepartmentRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) DepartmentService {
	return &departmentService{deptRepo: deptRepo, auditRepo: auditRepo, txManager: txManager}
}

func mapDepartment(d *model.Department) *DepartmentResponse {
	return &DepartmentResponse{ID: d.ID.String(), Name: d.DepartmentName}
}

func (s *departmentService) logAudit(ctx context.Context, actorID, action string, dept *model.Department) error {
	var actor *uuid.UUID
	if parsed, err := uuid.Parse(actorID); err == nil {
		actor = &parsed
	}
	entry := &model.AuditLog{
		ActorID:    actor,
		Action:     action,
		EntityID:   dept.ID.String(),
		EntityName: dept.DepartmentName,
		Details:    fmt.Sprintf(`{"name":%q}`, dept.DepartmentName),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *departmentService) Create(ctx context.Context, actorID string, req CreateDepartmentRequest) (*DepartmentResponse, error) {
	if _, err := s.deptRepo.FindByName(ctx, req.Name); err == nil {
		return nil, apperr.Conflict("department already exists")
	}

	dept := &model.Department{DepartmentName: req.Name}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.deptRepo.Create(txCtx, dept); err != nil {
			return fmt.Errorf("failed to create department: %w", err)
		}
		return s.logAudit(txCtx, actorID, model.ActionCreateDepartment, dept)
	})
	if err != nil {
		return nil, err
	}
	return mapDepartment(dept), nil
}

func (s *departmentService) List(ctx context.Context) ([]DepartmentResponse, error) {
	depts, err := s.deptRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]DepartmentResponse, 0, len(depts))
	for i := range depts {
		res = append(res, *mapDepartment(&depts[i]))
	}
	return res, nil
}

func (s *departmentService) Update(ctx context.Context, actorID string, id string, req UpdateDepartmentRequest) (*DepartmentResponse, error) {
	deptID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Invalid("invalid department id")
	}

	dept, err := s.deptRepo.FindByID(ctx, deptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("department not found")
		}
		return nil, fmt.Errorf("failed to load department: %w", err)
	}

	if existing, err := s.deptRepo.FindByName(ctx, req.Name); err == nil && existing.ID != dept.ID {
		return nil, apperr.Conflict("another department with same name exists")
	}

	dept.DepartmentName = req.Name
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.deptRepo.Update(txCtx, dept); err != nil {
			return fmt.Errorf("failed to update department: %w", err)
		}
		return s.logAudit(txCtx, actorID, model.ActionUpdateDepartment, dept)
	})
	if err != nil {
		return nil, err
	}
	return mapDepartment(dept), nil
}

// Delete refuses while employees still reference the department. No cascade.
func (s *departmentService) Delete(ctx context.Context, actorID string, id string) error {
	deptID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Invalid("invalid department id")
	}

	dept, err := s.deptRepo.FindByID(ctx, deptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("department not found")
		}
		return fmt.Errorf("failed to load department: %w", err)
	}

	employeeCount, err := s.deptRepo.CountEmployees(ctx, deptID)
	if err != nil {
		return fmt.Errorf("failed to count employees: %w", err)
	}
	if employeeCount > 0 {
		return apperr.Conflict("cannot delete department because it is referenced by employees")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.deptRepo.Delete(txCtx, deptID); err != nil {
			return fmt.Errorf("failed to delete department: %w", err)
		}
		return s.logAudit(txCtx, actorID, model.ActionDeleteDepartment, dept)
	})
}
