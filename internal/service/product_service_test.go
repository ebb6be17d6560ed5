package service

import (
	"context"
	"testing"
	"time"

	"assetms/internal/apperr"
	"assetms/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productFixture struct {
	svc      ProductService
	products *stubProductRepo
	types    *stubTypeRepo
	ledger   *stubTransactionRepo
	groupID  uuid.UUID
	typeID   uuid.UUID
	actor    string
}

func newProductFixture() *productFixture {
	products := newStubProductRepo()
	types := newStubTypeRepo(products)
	ledger := newStubTransactionRepo(products)
	groupID := uuid.New()
	typeID := types.add(&model.AssetType{GroupID: groupID, TypeName: "Laptop"})
	return &productFixture{
		svc:      NewProductService(products, types, ledger, &stubAuditRepo{}, &stubTxManager{}),
		products: products,
		types:    types,
		ledger:   ledger,
		groupID:  groupID,
		typeID:   typeID,
		actor:    uuid.NewString(),
	}
}

func (f *productFixture) createRequest(tagNo, serialNo string) CreateProductRequest {
	return CreateProductRequest{
		TagNo:        tagNo,
		AssetGroupID: f.groupID.String(),
		AssetTypeID:  f.typeID.String(),
		StockedAt:    time.Now().Format(time.RFC3339),
		Brand:        "Dell",
		Cost:         "1499.99",
		SerialNo:     serialNo,
	}
}

func TestCreateProductStartsFree(t *testing.T) {
	f := newProductFixture()

	res, err := f.svc.Create(context.Background(), f.actor, f.createRequest("TAG-001", "SN-001"))
	require.NoError(t, err)
	assert.Equal(t, string(model.ProductFree), res.Status)
	assert.Equal(t, "1499.99", res.Cost)
}

func TestCreateProductDuplicateTagNo(t *testing.T) {
	f := newProductFixture()

	_, err := f.svc.Create(context.Background(), f.actor, f.createRequest("TAG-001", "SN-001"))
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), f.actor, f.createRequest("TAG-001", "SN-002"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCreateProductDuplicateSerialNo(t *testing.T) {
	f := newProductFixture()

	_, err := f.svc.Create(context.Background(), f.actor, f.createRequest("TAG-001", "SN-001"))
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), f.actor, f.createRequest("TAG-002", "SN-001"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCreateProductInvalidPairing(t *testing.T) {
	f := newProductFixture()

	req := f.createRequest("TAG-001", "SN-001")
	req.AssetGroupID = uuid.NewString() // type belongs to a different group

	_, err := f.svc.Create(context.Background(), f.actor, req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCreateProductBadCost(t *testing.T) {
	f := newProductFixture()

	req := f.createRequest("TAG-001", "SN-001")
	req.Cost = "-10"
	_, err := f.svc.Create(context.Background(), f.actor, req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))

	req.Cost = "not-a-number"
	_, err = f.svc.Create(context.Background(), f.actor, req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestCreateProductBadStockedAt(t *testing.T) {
	f := newProductFixture()

	req := f.createRequest("TAG-001", "SN-001")
	req.StockedAt = "31/12/2025"

	_, err := f.svc.Create(context.Background(), f.actor, req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func (f *productFixture) seedProduct(status model.ProductStatus, tagNo, serialNo string) uuid.UUID {
	return f.products.add(&model.Product{
		TagNo:        tagNo,
		AssetGroupID: f.groupID,
		AssetTypeID:  f.typeID,
		StockedAt:    time.Now(),
		Status:       status,
		Brand:        "Dell",
		Cost:         decimal.NewFromInt(1200),
		SerialNo:     serialNo,
	})
}

func TestUpdateTakenProductRejected(t *testing.T) {
	f := newProductFixture()
	productID := f.seedProduct(model.ProductTaken, "TAG-001", "SN-001")

	_, err := f.svc.Update(context.Background(), f.actor, productID.String(), UpdateProductRequest{
		AssetGroupID: f.groupID.String(),
		AssetTypeID:  f.typeID.String(),
		StockedAt:    time.Now().Format(time.RFC3339),
		Brand:        "Lenovo",
		Cost:         "999.00",
		SerialNo:     "SN-001",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestUpdateNeverTouchesStatus(t *testing.T) {
	f := newProductFixture()
	productID := f.seedProduct(model.ProductFree, "TAG-001", "SN-001")

	res, err := f.svc.Update(context.Background(), f.actor, productID.String(), UpdateProductRequest{
		AssetGroupID: f.groupID.String(),
		AssetTypeID:  f.typeID.String(),
		StockedAt:    time.Now().Format(time.RFC3339),
		Brand:        "Lenovo",
		Cost:         "999.00",
		SerialNo:     "SN-001",
	})
	require.NoError(t, err)
	assert.Equal(t, string(model.ProductFree), res.Status)
	assert.Equal(t, "Lenovo", res.Brand)

	stored, err := f.products.FindByID(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, model.ProductFree, stored.Status)
}

func TestUpdateSerialNoCollision(t *testing.T) {
	f := newProductFixture()
	f.seedProduct(model.ProductFree, "TAG-001", "SN-001")
	productID := f.seedProduct(model.ProductFree, "TAG-002", "SN-002")

	_, err := f.svc.Update(context.Background(), f.actor, productID.String(), UpdateProductRequest{
		AssetGroupID: f.groupID.String(),
		AssetTypeID:  f.typeID.String(),
		StockedAt:    time.Now().Format(time.RFC3339),
		Brand:        "Dell",
		Cost:         "1200.00",
		SerialNo:     "SN-001",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestDeleteTakenProductRejected(t *testing.T) {
	f := newProductFixture()
	productID := f.seedProduct(model.ProductTaken, "TAG-001", "SN-001")

	err := f.svc.Delete(context.Background(), f.actor, productID.String())
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestDeleteProductWithLedgerHistoryRejected(t *testing.T) {
	f := newProductFixture()
	productID := f.seedProduct(model.ProductFree, "TAG-001", "SN-001")
	employeeID := uuid.New()

	// Issued and returned: the product is Free again but its trail remains.
	require.NoError(t, f.ledger.Create(context.Background(), &model.AssetTransaction{
		EmployeeID: employeeID, ProductID: productID, TransactionType: model.TxIssue, IssuedBy: uuid.New(),
	}))
	require.NoError(t, f.ledger.Create(context.Background(), &model.AssetTransaction{
		EmployeeID: employeeID, ProductID: productID, TransactionType: model.TxReturn, IssuedBy: uuid.New(),
	}))

	err := f.svc.Delete(context.Background(), f.actor, productID.String())
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestDeleteFreshProduct(t *testing.T) {
	f := newProductFixture()
	productID := f.seedProduct(model.ProductFree, "TAG-001", "SN-001")

	err := f.svc.Delete(context.Background(), f.actor, productID.String())
	require.NoError(t, err)

	_, err = f.products.FindByID(context.Background(), productID)
	assert.Error(t, err)
}

func TestListHeldBy(t *testing.T) {
	f := newProductFixture()
	heldID := f.seedProduct(model.ProductTaken, "TAG-001", "SN-001")
	f.seedProduct(model.ProductFree, "TAG-002", "SN-002")
	employeeID := uuid.New()

	require.NoError(t, f.ledger.Create(context.Background(), &model.AssetTransaction{
		EmployeeID: employeeID, ProductID: heldID, TransactionType: model.TxIssue, IssuedBy: uuid.New(),
	}))

	held, err := f.svc.ListHeldBy(context.Background(), employeeID.String())
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, heldID.String(), held[0].ID)
}
