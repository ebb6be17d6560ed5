package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"assetms/internal/apperr"
	"assetms/internal/model"
	"assetms/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type CreateAssetGroupRequest struct {
	GroupName string `json:"group_name" binding:"required"`
}

type UpdateAssetGroupRequest struct {
	GroupName string `json:"group_name" binding:"required"`
}

type AssetGroupResponse struct {
	ID        string `json:"id"`
	GroupName string `json:"group_name"`
}

type CreateAssetTypeRequest struct {
	AssetGroupID string `json:"asset_group_id" binding:"required"`
	TypeName     string `json:"type_name" binding:"required"`
}

type UpdateAssetTypeRequest struct {
	AssetGroupID string `json:"asset_group_id" binding:"required"`
	TypeName     string `json:"type_name" binding:"required"`
}

type AssetTypeResponse struct {
	ID           string `json:"id"`
	AssetGroupID string `json:"asset_group_id"`
	GroupName    string `json:"group_name,omitempty"`
	TypeName     string `json:"type_name"`
}

// CatalogService manages the two-level group/type taxonomy
type CatalogService interface {
	CreateGroup(ctx context.Context, actorID string, req CreateAssetGroupRequest) (*AssetGroupResponse, error)
	ListGroups(ctx context.Context) ([]AssetGroupResponse, error)
	UpdateGroup(ctx context.Context, actorID string, id string, req UpdateAssetGroupRequest) (*AssetGroupResponse, error)
	DeleteGroup(ctx context.Context, actorID string, id string) error

	CreateType(ctx context.Context, actorID string, req CreateAssetTypeRequest) (*AssetTypeResponse, error)
	ListTypesByGroup(ctx context.Context, groupID string) ([]AssetTypeResponse, error)
	UpdateType(ctx context.Context, actorID string, id string, req UpdateAssetTypeRequest) (*AssetTypeResponse, error)
	DeleteType(ctx context.Context, actorID string, id string) error
}

type catalogService struct {
	groupRepo repository.AssetGroupRepository
	typeRepo  repository.AssetTypeRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewCatalogService(
	groupRepo repository.AssetGroupRepository,
	typeRepo repository.AssetTypeRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CatalogService {
	return &catalogService{
		groupRepo: groupRepo,
		typeRepo:  typeRepo,
		auditRepo: auditRepo,
		txManager: txManager,
	}
}

func (s *catalogService) audit(ctx context.Context, actorID, action, entityID, entityName string, payload interface{}) error {
	var actor *uuid.UUID
	if parsed, err := uuid.Parse(actorID); err == nil {
		actor = &parsed
	}
	details, _ := json.Marshal(payload)
	entry := &model.AuditLog{
		ActorID:    actor,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func mapGroup(g *model.AssetGroup) *AssetGroupResponse {
	return &AssetGroupResponse{ID: g.ID.String(), GroupName: g.GroupName}
}

func mapType(t *model.AssetType) *AssetTypeResponse {
	res := &AssetTypeResponse{
		ID:           t.ID.String(),
		AssetGroupID: t.GroupID.String(),
		TypeName:     t.TypeName,
	}
	if t.Group != nil {
		res.GroupName = t.Group.GroupName
	}
	return res
}

func (s *catalogService) CreateGroup(ctx context.Context, actorID string, req CreateAssetGroupRequest) (*AssetGroupResponse, error) {
	if _, err := s.groupRepo.FindByName(ctx, req.GroupName); err == nil {
		return nil, apperr.Conflict("asset group already exists")
	}

	group := &model.AssetGroup{GroupName: req.GroupName}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.groupRepo.Create(txCtx, group); err != nil {
			return fmt.Errorf("failed to create asset group: %w", err)
		}
		return s.audit(txCtx, actorID, model.ActionCreateGroup, group.ID.String(), group.GroupName, req)
	})
	if err != nil {
		return nil, err
	}
	return mapGroup(group), nil
}

func (s *catalogService) ListGroups(ctx context.Context) ([]AssetGroupResponse, error) {
	groups, err := s.groupRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]AssetGroupResponse, 0, len(groups))
	for i := range groups {
		res = append(res, *mapGroup(&groups[i]))
	}
	return res, nil
}

func (s *catalogService) UpdateGroup(ctx context.Context, actorID string, id string, req UpdateAssetGroupRequest) (*AssetGroupResponse, error) {
	groupID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Invalid("invalid asset group id")
	}

	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("asset group not found")
		}
		return nil, fmt.Errorf("failed to load asset group: %w", err)
	}

	if existing, err := s.groupRepo.FindByName(ctx, req.GroupName); err == nil && existing.ID != group.ID {
		return nil, apperr.Conflict("another group with same name exists")
	}

	group.GroupName = req.GroupName
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.groupRepo.Update(txCtx, group); err != nil {
			return fmt.Errorf("failed to update asset group: %w", err)
		}
		return s.audit(txCtx, actorID, model.ActionUpdateGroup, group.ID.String(), group.GroupName, req)
	})
	if err != nil {
		return nil, err
	}
	return mapGroup(group), nil
}

// DeleteGroup refuses while any type still references the group. No cascade.
func (s *catalogService) DeleteGroup(ctx context.Context, actorID string, id string) error {
	groupID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Invalid("invalid asset group id")
	}

	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("asset group not found")
		}
		return fmt.Errorf("failed to load asset group: %w", err)
	}

	typeCount, err := s.groupRepo.CountTypes(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to count asset types: %w", err)
	}
	if typeCount > 0 {
		return apperr.Conflict("cannot delete group because it is referenced by asset types")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.groupRepo.Delete(txCtx, groupID); err != nil {
			return fmt.Errorf("failed to delete asset group: %w", err)
		}
		return s.audit(txCtx, actorID, model.ActionDeleteGroup, group.ID.String(), group.GroupName,
			map[string]bool{"deleted": true})
	})
}

func (s *catalogService) CreateType(ctx context.Context, actorID string, req CreateAssetTypeRequest) (*AssetTypeResponse, error) {
	groupID, err := uuid.Parse(req.AssetGroupID)
	if err != nil {
		return nil, apperr.Invalid("invalid asset group id")
	}

	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("asset group does not exist")
		}
		return nil, fmt.Errorf("failed to load asset group: %w", err)
	}

	if _, err := s.typeRepo.FindByGroupAndName(ctx, groupID, req.TypeName); err == nil {
		return nil, apperr.Conflict("asset type already exists in this group")
	}

	t := &model.AssetType{GroupID: groupID, TypeName: req.TypeName}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.typeRepo.Create(txCtx, t); err != nil {
			return fmt.Errorf("failed to create asset type: %w", err)
		}
		return s.audit(txCtx, actorID, model.ActionCreateType, t.ID.String(), t.TypeName, req)
	})
	if err != nil {
		return nil, err
	}

	t.Group = group
	return mapType(t), nil
}

func (s *catalogService) ListTypesByGroup(ctx context.Context, groupID string) ([]AssetTypeResponse, error) {
	gid, err := uuid.Parse(groupID)
	if err != nil {
		return nil, apperr.Invalid("invalid asset group id")
	}

	types, err := s.typeRepo.ListByGroup(ctx, gid)
	if err != nil {
		return nil, err
	}
	res := make([]AssetTypeResponse, 0, len(types))
	for i := range types {
		res = append(res, *mapType(&types[i]))
	}
	return res, nil
}

func (s *catalogService) UpdateType(ctx context.Context, actorID string, id string, req UpdateAssetTypeRequest) (*AssetTypeResponse, error) {
	typeID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Invalid("invalid asset type id")
	}
	groupID, err := uuid.Parse(req.AssetGroupID)
	if err != nil {
		return nil, apperr.Invalid("invalid asset group id")
	}

	t, err := s.typeRepo.FindByID(ctx, typeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("asset type not found")
		}
		return nil, fmt.Errorf("failed to load asset type: %w", err)
	}

	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("asset group does not exist")
		}
		return nil, fmt.Errorf("failed to load asset group: %w", err)
	}

	if existing, err := s.typeRepo.FindByGroupAndName(ctx, groupID, req.TypeName); err == nil && existing.ID != t.ID {
		return nil, apperr.Conflict("another type with same name exists in this group")
	}

	t.GroupID = groupID
	t.TypeName = req.TypeName
	t.Group = nil
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.typeRepo.Update(txCtx, t); err != nil {
			return fmt.Errorf("failed to update asset type: %w", err)
		}
		return s.audit(txCtx, actorID, model.ActionUpdateType, t.ID.String(), t.TypeName, req)
	})
	if err != nil {
		return nil, err
	}

	t.Group = group
	return mapType(t), nil
}

// DeleteType refuses while any product still references the type, mirroring
// the group rule.
func (s *catalogService) DeleteType(ctx context.Context, actorID string, id string) error {
	typeID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Invalid("invalid asset type id")
	}

	t, err := s.typeRepo.FindByID(ctx, typeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("asset type not found")
		}
		return fmt.Errorf("failed to load asset type: %w", err)
	}

	productCount, err := s.typeRepo.CountProducts(ctx, typeID)
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if productCount > 0 {
		return apperr.Conflict("cannot delete type because it is referenced by products")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.typeRepo.Delete(txCtx, typeID); err != nil {
			return fmt.Errorf("failed to delete asset type: %w", err)
		}
		return s.audit(txCtx, actorID, model.ActionDeleteType, t.ID.String(), t.TypeName,
			map[string]bool{"deleted": true})
	})
}
