package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"assetms/internal/apperr"
	"assetms/internal/model"
	"assetms/internal/repository"
	ws "assetms/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type IssueRequest struct {
	ProductID  string `json:"product_id" binding:"required"`
	EmployeeID string `json:"employee_id" binding:"required"`
}

type ReturnRequest struct {
	ProductID  string `json:"product_id" binding:"required"`
	EmployeeID string `json:"employee_id" binding:"required"`
}

type TransactionResponse struct {
	ID              string `json:"id"`
	ProductID       string `json:"product_id"`
	EmployeeID      string `json:"employee_id"`
	EmployeeName    string `json:"employee_name,omitempty"`
	TransactionType string `json:"transaction_type"`
	IssuedBy        string `json:"issued_by"`
	CreatedAt       string `json:"created_at"`
}

type HolderResponse struct {
	ProductID  string  `json:"product_id"`
	EmployeeID *string `json:"employee_id"` // nil when the product is Free
}

// Websocket payload
type AssetEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// LifecycleService owns the Free/Taken state machine and the issue/return
// ledger. Product status is mutated here and nowhere else.
type LifecycleService interface {
	Issue(ctx context.Context, actorID string, req IssueRequest) (*TransactionResponse, error)
	Return(ctx context.Context, actorID string, req ReturnRequest) (*TransactionResponse, error)
	CurrentHolder(ctx context.Context, productID string) (*HolderResponse, error)
	HistoryFor(ctx context.Context, productID string, page, limit int) ([]TransactionResponse, int64, error)
}

type lifecycleService struct {
	productRepo  repository.ProductRepository
	employeeRepo repository.EmployeeRepository
	txRepo       repository.TransactionRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewLifecycleService(
	productRepo repository.ProductRepository,
	employeeRepo repository.EmployeeRepository,
	txRepo repository.TransactionRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) LifecycleService {
	return &lifecycleService{
		productRepo:  productRepo,
		employeeRepo: employeeRepo,
		txRepo:       txRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
	}
}

func mapTransaction(tx *model.AssetTransaction) *TransactionResponse {
	res := &TransactionResponse{
		ID:              tx.ID.String(),
		ProductID:       tx.ProductID.String(),
		EmployeeID:      tx.EmployeeID.String(),
		TransactionType: string(tx.TransactionType),
		IssuedBy:        tx.IssuedBy.String(),
		CreatedAt:       tx.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if tx.Employee != nil {
		res.EmployeeName = tx.Employee.FirstName + " " + tx.Employee.LastName
	}
	return res
}

// Issue hands a Free product to an Active employee. The row lock taken by
// FindByIDForUpdate holds until commit, so two concurrent issues on the same
// product cannot both observe Free.
func (s *lifecycleService) Issue(ctx context.Context, actorID string, req IssueRequest) (*TransactionResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, apperr.Invalid("invalid product id")
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return nil, apperr.Invalid("invalid employee id")
	}
	issuedBy, err := uuid.Parse(actorID)
	if err != nil {
		return nil, apperr.Invalid("invalid actor id")
	}

	var created *model.AssetTransaction
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.productRepo.FindByIDForUpdate(txCtx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("product not found")
			}
			return fmt.Errorf("failed to load product: %w", err)
		}
		if product.Status == model.ProductTaken {
			return apperr.InvalidState("product is already taken")
		}

		employee, err := s.employeeRepo.FindByID(txCtx, employeeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("employee not found")
			}
			return fmt.Errorf("failed to load employee: %w", err)
		}
		if employee.Status != model.EmployeeActive {
			return apperr.InvalidState("employee is inactive")
		}

		tx := &model.AssetTransaction{
			EmployeeID:      employeeID,
			ProductID:       productID,
			TransactionType: model.TxIssue,
			IssuedBy:        issuedBy,
		}
		if err := s.txRepo.Create(txCtx, tx); err != nil {
			return fmt.Errorf("failed to append issue transaction: %w", err)
		}

		if err := s.productRepo.UpdateStatus(txCtx, productID, model.ProductTaken); err != nil {
			return fmt.Errorf("failed to update product status: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"product_id":  productID.String(),
			"tag_no":      product.TagNo,
			"employee_id": employeeID.String(),
		})
		audit := &model.AuditLog{
			ActorID:    &issuedBy,
			Action:     model.ActionIssueAsset,
			EntityID:   productID.String(),
			EntityName: product.TagNo,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		created = tx
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("asset_issued", created)
	return mapTransaction(created), nil
}

// Return closes the open checkout. Only the current holder may return the
// product; anyone else gets InvalidState.
func (s *lifecycleService) Return(ctx context.Context, actorID string, req ReturnRequest) (*TransactionResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, apperr.Invalid("invalid product id")
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return nil, apperr.Invalid("invalid employee id")
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return nil, apperr.Invalid("invalid actor id")
	}

	var created *model.AssetTransaction
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.productRepo.FindByIDForUpdate(txCtx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("product not found")
			}
			return fmt.Errorf("failed to load product: %w", err)
		}
		if product.Status == model.ProductFree {
			return apperr.InvalidState("product is not taken")
		}

		latest, err := s.txRepo.FindLatestByProduct(txCtx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Status says Taken but the ledger is empty: refuse rather
				// than fabricate a holder.
				return apperr.InvalidState("product has no open issue transaction")
			}
			return fmt.Errorf("failed to load latest transaction: %w", err)
		}
		if latest.TransactionType != model.TxIssue || latest.EmployeeID != employeeID {
			return apperr.InvalidState("employee is not the current holder of this product")
		}

		tx := &model.AssetTransaction{
			EmployeeID:      employeeID,
			ProductID:       productID,
			TransactionType: model.TxReturn,
			IssuedBy:        actorUUID,
		}
		if err := s.txRepo.Create(txCtx, tx); err != nil {
			return fmt.Errorf("failed to append return transaction: %w", err)
		}

		if err := s.productRepo.UpdateStatus(txCtx, productID, model.ProductFree); err != nil {
			return fmt.Errorf("failed to update product status: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"product_id":  productID.String(),
			"tag_no":      product.TagNo,
			"employee_id": employeeID.String(),
		})
		audit := &model.AuditLog{
			ActorID:    &actorUUID,
			Action:     model.ActionReturnAsset,
			EntityID:   productID.String(),
			EntityName: product.TagNo,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		created = tx
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("asset_returned", created)
	return mapTransaction(created), nil
}

// CurrentHolder reports who holds the product right now. Pure read.
func (s *lifecycleService) CurrentHolder(ctx context.Context, productID string) (*HolderResponse, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, apperr.Invalid("invalid product id")
	}

	if _, err := s.productRepo.FindByID(ctx, pid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	latest, err := s.txRepo.FindLatestByProduct(ctx, pid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &HolderResponse{ProductID: productID}, nil
		}
		return nil, fmt.Errorf("failed to load latest transaction: %w", err)
	}

	if latest.TransactionType != model.TxIssue {
		return &HolderResponse{ProductID: productID}, nil
	}

	holder := latest.EmployeeID.String()
	return &HolderResponse{ProductID: productID, EmployeeID: &holder}, nil
}

// HistoryFor returns the product's audit trail in chronological order.
func (s *lifecycleService) HistoryFor(ctx context.Context, productID string, page, limit int) ([]TransactionResponse, int64, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, 0, apperr.Invalid("invalid product id")
	}

	if _, err := s.productRepo.FindByID(ctx, pid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, apperr.NotFound("product not found")
		}
		return nil, 0, fmt.Errorf("failed to load product: %w", err)
	}

	txs, total, err := s.txRepo.ListByProduct(ctx, pid, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]TransactionResponse, 0, len(txs))
	for i := range txs {
		res = append(res, *mapTransaction(&txs[i]))
	}
	return res, total, nil
}

// broadcast pushes an asset event to connected clients after commit. Nil hub
// is fine so tests can skip the websocket layer.
func (s *lifecycleService) broadcast(event string, tx *model.AssetTransaction) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(AssetEvent{
		Event: event,
		Data: map[string]interface{}{
			"product_id":  tx.ProductID.String(),
			"employee_id": tx.EmployeeID.String(),
			"issued_by":   tx.IssuedBy.String(),
		},
	})
	if err != nil {
		return
	}
	s.hub.Broadcast <- payload
}
