package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"assetms/internal/apperr"
	"assetms/internal/model"
	"assetms/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type CreateProductRequest struct {
	TagNo        string  `json:"tag_no" binding:"required"`
	AssetGroupID string  `json:"asset_group_id" binding:"required"`
	AssetTypeID  string  `json:"asset_type_id" binding:"required"`
	StockedAt    string  `json:"stocked_at" binding:"required"` // RFC 3339
	ImagePath    *string `json:"image_path"`
	Brand        string  `json:"brand" binding:"required"`
	Cost         string  `json:"cost" binding:"required"`
	SerialNo     string  `json:"serial_no" binding:"required"`
}

type UpdateProductRequest struct {
	AssetGroupID string  `json:"asset_group_id" binding:"required"`
	AssetTypeID  string  `json:"asset_type_id" binding:"required"`
	StockedAt    string  `json:"stocked_at" binding:"required"`
	ImagePath    *string `json:"image_path"`
	Brand        string  `json:"brand" binding:"required"`
	Cost         string  `json:"cost" binding:"required"`
	SerialNo     string  `json:"serial_no" binding:"required"`
}

type ProductResponse struct {
	ID        string  `json:"id"`
	TagNo     string  `json:"tag_no"`
	GroupID   string  `json:"asset_group_id"`
	GroupName string  `json:"group_name,omitempty"`
	TypeID    string  `json:"asset_type_id"`
	TypeName  string  `json:"type_name,omitempty"`
	StockedAt string  `json:"stocked_at"`
	ImagePath *string `json:"image_path,omitempty"`
	Status    string  `json:"status"`
	Brand     string  `json:"brand"`
	Cost      string  `json:"cost"`
	SerialNo  string  `json:"serial_no"`
	CreatedAt string  `json:"created_at"`
}

// ProductService manages inventory records. Status is read-only here: the
// update path never touches it, and Taken products are structurally locked
// against edits and deletion.
type ProductService interface {
	Create(ctx context.Context, actorID string, req CreateProductRequest) (*ProductResponse, error)
	GetByID(ctx context.Context, id string) (*ProductResponse, error)
	List(ctx context.Context, page, limit int, filter repository.ProductFilter) ([]ProductResponse, int64, error)
	ListHeldBy(ctx context.Context, employeeID string) ([]ProductResponse, error)
	Update(ctx context.Context, actorID string, id string, req UpdateProductRequest) (*ProductResponse, error)
	Delete(ctx context.Context, actorID string, id string) error
}

type productService struct {
	productRepo repository.ProductRepository
	typeRepo    repository.AssetTypeRepository
	txRepo      repository.TransactionRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewProductService(
	productRepo repository.ProductRepository,
	typeRepo repository.AssetTypeRepository,
	txRepo repository.TransactionRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ProductService {
	return &productService{
		productRepo: productRepo,
		typeRepo:    typeRepo,
		txRepo:      txRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

func mapProduct(p *model.Product) *ProductResponse {
	res := &ProductResponse{
		ID:        p.ID.String(),
		TagNo:     p.TagNo,
		GroupID:   p.AssetGroupID.String(),
		TypeID:    p.AssetTypeID.String(),
		StockedAt: p.StockedAt.Format("2006-01-02T15:04:05Z07:00"),
		ImagePath: p.ImagePath,
		Status:    string(p.Status),
		Brand:     p.Brand,
		Cost:      p.Cost.String(),
		SerialNo:  p.SerialNo,
		CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if p.AssetGroup != nil {
		res.GroupName = p.AssetGroup.GroupName
	}
	if p.AssetType != nil {
		res.TypeName = p.AssetType.TypeName
	}
	return res
}

func (s *productService) writeAudit(ctx context.Context, actorID, action string, p *model.Product, payload interface{}) error {
	var actor *uuid.UUID
	if parsed, err := uuid.Parse(actorID); err == nil {
		actor = &parsed
	}
	details, _ := json.Marshal(payload)
	entry := &model.AuditLog{
		ActorID:    actor,
		Action:     action,
		EntityID:   p.ID.String(),
		EntityName: p.TagNo,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// validatePairing checks that the type exists and belongs to the group.
func (s *productService) validatePairing(ctx context.Context, groupID, typeID uuid.UUID) error {
	ok, err := s.typeRepo.ExistsInGroup(ctx, typeID, groupID)
	if err != nil {
		return fmt.Errorf("failed to validate group/type pairing: %w", err)
	}
	if !ok {
		return apperr.Conflict("invalid group/type combination")
	}
	return nil
}

func (s *productService) Create(ctx context.Context, actorID string, req CreateProductRequest) (*ProductResponse, error) {
	groupID, err := uuid.Parse(req.AssetGroupID)
	if err != nil {
		return nil, apperr.Invalid("invalid asset group id")
	}
	typeID, err := uuid.Parse(req.AssetTypeID)
	if err != nil {
		return nil, apperr.Invalid("invalid asset type id")
	}
	stockedAt, err := time.Parse(time.RFC3339, req.StockedAt)
	if err != nil {
		return nil, apperr.Invalid("invalid stocked_at: expected RFC 3339 timestamp")
	}
	cost, err := decimal.NewFromString(req.Cost)
	if err != nil || cost.IsNegative() {
		return nil, apperr.Invalid("invalid cost: expected a non-negative decimal")
	}

	if _, err := s.productRepo.FindByTagNo(ctx, req.TagNo); err == nil {
		return nil, apperr.Conflict("tag number already exists")
	}
	if _, err := s.productRepo.FindBySerialNo(ctx, req.SerialNo); err == nil {
		return nil, apperr.Conflict("serial number already exists")
	}

	if err := s.validatePairing(ctx, groupID, typeID); err != nil {
		return nil, err
	}

	product := &model.Product{
		TagNo:        req.TagNo,
		AssetGroupID: groupID,
		AssetTypeID:  typeID,
		StockedAt:    stockedAt,
		ImagePath:    req.ImagePath,
		Status:       model.ProductFree,
		Brand:        req.Brand,
		Cost:         cost,
		SerialNo:     req.SerialNo,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Create(txCtx, product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		return s.writeAudit(txCtx, actorID, model.ActionCreateProduct, product, req)
	})
	if err != nil {
		return nil, err
	}
	return mapProduct(product), nil
}

func (s *productService) GetByID(ctx context.Context, id string) (*ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Invalid("invalid product id")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return mapProduct(product), nil
}

func (s *productService) List(ctx context.Context, page, limit int, filter repository.ProductFilter) ([]ProductResponse, int64, error) {
	products, total, err := s.productRepo.List(ctx, page, limit, filter)
	if err != nil {
		return nil, 0, err
	}
	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, *mapProduct(&products[i]))
	}
	return res, total, nil
}

// ListHeldBy returns the products the given employee currently holds.
func (s *productService) ListHeldBy(ctx context.Context, employeeID string) ([]ProductResponse, error) {
	eid, err := uuid.Parse(employeeID)
	if err != nil {
		return nil, apperr.Invalid("invalid employee id")
	}

	products, err := s.txRepo.ListHeldProducts(ctx, eid)
	if err != nil {
		return nil, err
	}
	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, *mapProduct(&products[i]))
	}
	return res, nil
}

func (s *productService) Update(ctx context.Context, actorID string, id string, req UpdateProductRequest) (*ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Invalid("invalid product id")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	// Structural lock: a taken product belongs to its holder until returned
	if product.Status == model.ProductTaken {
		return nil, apperr.InvalidState("cannot edit a taken product")
	}

	groupID, err := uuid.Parse(req.AssetGroupID)
	if err != nil {
		return nil, apperr.Invalid("invalid asset group id")
	}
	typeID, err := uuid.Parse(req.AssetTypeID)
	if err != nil {
		return nil, apperr.Invalid("invalid asset type id")
	}
	stockedAt, err := time.Parse(time.RFC3339, req.StockedAt)
	if err != nil {
		return nil, apperr.Invalid("invalid stocked_at: expected RFC 3339 timestamp")
	}
	cost, err := decimal.NewFromString(req.Cost)
	if err != nil || cost.IsNegative() {
		return nil, apperr.Invalid("invalid cost: expected a non-negative decimal")
	}

	if existing, err := s.productRepo.FindBySerialNo(ctx, req.SerialNo); err == nil && existing.ID != product.ID {
		return nil, apperr.Conflict("serial number already exists")
	}

	if err := s.validatePairing(ctx, groupID, typeID); err != nil {
		return nil, err
	}

	// Status is intentionally untouched here
	product.AssetGroupID = groupID
	product.AssetTypeID = typeID
	product.StockedAt = stockedAt
	product.ImagePath = req.ImagePath
	product.Brand = req.Brand
	product.Cost = cost
	product.SerialNo = req.SerialNo
	product.AssetGroup = nil
	product.AssetType = nil

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Update(txCtx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		return s.writeAudit(txCtx, actorID, model.ActionUpdateProduct, product, req)
	})
	if err != nil {
		return nil, err
	}
	return mapProduct(product), nil
}

// Delete refuses for taken products and for products with ledger history,
// mirroring the group/department reference guards.
func (s *productService) Delete(ctx context.Context, actorID string, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Invalid("invalid product id")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("product not found")
		}
		return fmt.Errorf("failed to load product: %w", err)
	}

	if product.Status == model.ProductTaken {
		return apperr.InvalidState("cannot delete a taken product")
	}

	txCount, err := s.txRepo.CountByProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to count transactions: %w", err)
	}
	if txCount > 0 {
		return apperr.Conflict("cannot delete product because it has ledger history")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Delete(txCtx, productID); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return s.writeAudit(txCtx, actorID, model.ActionDeleteProduct, product, map[string]bool{"deleted": true})
	})
}
