package service

import (
	"context"
	"sync"
	"testing"

	"assetms/internal/apperr"
	"assetms/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lifecycleFixture struct {
	svc       LifecycleService
	products  *stubProductRepo
	employees *stubEmployeeRepo
	ledger    *stubTransactionRepo
	audits    *stubAuditRepo
	actor     uuid.UUID
}

func newLifecycleFixture() *lifecycleFixture {
	products := newStubProductRepo()
	employees := newStubEmployeeRepo()
	ledger := newStubTransactionRepo(products)
	audits := &stubAuditRepo{}
	return &lifecycleFixture{
		svc:       NewLifecycleService(products, employees, ledger, audits, &stubTxManager{}, nil),
		products:  products,
		employees: employees,
		ledger:    ledger,
		audits:    audits,
		actor:     uuid.New(),
	}
}

func (f *lifecycleFixture) seedProduct(status model.ProductStatus) uuid.UUID {
	return f.products.add(&model.Product{
		TagNo:        "TAG-" + uuid.NewString()[:8],
		AssetGroupID: uuid.New(),
		AssetTypeID:  uuid.New(),
		Status:       status,
		Brand:        "Dell",
		Cost:         decimal.NewFromInt(1200),
		SerialNo:     "SN-" + uuid.NewString()[:8],
	})
}

func (f *lifecycleFixture) seedEmployee(status model.EmployeeStatus) uuid.UUID {
	return f.employees.add(&model.Employee{
		UserID:       "EMP-" + uuid.NewString()[:8],
		FirstName:    "Jane",
		LastName:     "Doe",
		DepartmentID: uuid.New(),
		Title:        "Engineer",
		Level:        model.LevelMid,
		Email:        uuid.NewString()[:8] + "@example.com",
		Role:         model.RoleEmployee,
		Status:       status,
	})
}

func (f *lifecycleFixture) issue(t *testing.T, productID, employeeID uuid.UUID) *TransactionResponse {
	t.Helper()
	res, err := f.svc.Issue(context.Background(), f.actor.String(), IssueRequest{
		ProductID:  productID.String(),
		EmployeeID: employeeID.String(),
	})
	require.NoError(t, err)
	return res
}

func TestIssueFreeProduct(t *testing.T) {
	f := newLifecycleFixture()
	productID := f.seedProduct(model.ProductFree)
	employeeID := f.seedEmployee(model.EmployeeActive)

	res := f.issue(t, productID, employeeID)

	assert.Equal(t, string(model.TxIssue), res.TransactionType)
	assert.Equal(t, employeeID.String(), res.EmployeeID)
	assert.Equal(t, f.actor.String(), res.IssuedBy)

	product, err := f.products.FindByID(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, model.ProductTaken, product.Status)

	count, err := f.ledger.CountByProduct(context.Background(), productID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Contains(t, f.audits.actions(), model.ActionIssueAsset)
}

func TestIssueTakenProductRejected(t *testing.T) {
	f := newLifecycleFixture()
	productID := f.seedProduct(model.ProductFree)
	first := f.seedEmployee(model.EmployeeActive)
	second := f.seedEmployee(model.EmployeeActive)

	f.issue(t, productID, first)

	_, err := f.svc.Issue(context.Background(), f.actor.String(), IssueRequest{
		ProductID:  productID.String(),
		EmployeeID: second.String(),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	count, err := f.ledger.CountByProduct(context.Background(), productID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "rejected issue must not append a ledger row")
}

func TestIssueInactiveEmployeeRejected(t *testing.T) {
	f := newLifecycleFixture()
	productID := f.seedProduct(model.ProductFree)
	employeeID := f.seedEmployee(model.EmployeeInactive)

	_, err := f.svc.Issue(context.Background(), f.actor.String(), IssueRequest{
		ProductID:  productID.String(),
		EmployeeID: employeeID.String(),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	product, err := f.products.FindByID(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, model.ProductFree, product.Status)
}

func TestIssueUnknownProduct(t *testing.T) {
	f := newLifecycleFixture()
	employeeID := f.seedEmployee(model.EmployeeActive)

	_, err := f.svc.Issue(context.Background(), f.actor.String(), IssueRequest{
		ProductID:  uuid.NewString(),
		EmployeeID: employeeID.String(),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestIssueMalformedIDs(t *testing.T) {
	f := newLifecycleFixture()

	_, err := f.svc.Issue(context.Background(), f.actor.String(), IssueRequest{
		ProductID:  "not-a-uuid",
		EmployeeID: uuid.NewString(),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestReturnByHolder(t *testing.T) {
	f := newLifecycleFixture()
	productID := f.seedProduct(model.ProductFree)
	employeeID := f.seedEmployee(model.EmployeeActive)
	f.issue(t, productID, employeeID)

	res, err := f.svc.Return(context.Background(), f.actor.String(), ReturnRequest{
		ProductID:  productID.String(),
		EmployeeID: employeeID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, string(model.TxReturn), res.TransactionType)

	product, err := f.products.FindByID(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, model.ProductFree, product.Status)

	count, err := f.ledger.CountByProduct(context.Background(), productID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.Contains(t, f.audits.actions(), model.ActionReturnAsset)
}

func TestReturnByNonHolderRejected(t *testing.T) {
	f := newLifecycleFixture()
	productID := f.seedProduct(model.ProductFree)
	holder := f.seedEmployee(model.EmployeeActive)
	other := f.seedEmployee(model.EmployeeActive)
	f.issue(t, productID, holder)

	_, err := f.svc.Return(context.Background(), f.actor.String(), ReturnRequest{
		ProductID:  productID.String(),
		EmployeeID: other.String(),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	product, err := f.products.FindByID(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, model.ProductTaken, product.Status, "failed return must not free the product")
}

func TestReturnFreeProductRejected(t *testing.T) {
	f := newLifecycleFixture()
	productID := f.seedProduct(model.ProductFree)
	employeeID := f.seedEmployee(model.EmployeeActive)

	_, err := f.svc.Return(context.Background(), f.actor.String(), ReturnRequest{
		ProductID:  productID.String(),
		EmployeeID: employeeID.String(),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestReissueAfterReturn(t *testing.T) {
	f := newLifecycleFixture()
	productID := f.seedProduct(model.ProductFree)
	first := f.seedEmployee(model.EmployeeActive)
	second := f.seedEmployee(model.EmployeeActive)

	f.issue(t, productID, first)
	_, err := f.svc.Return(context.Background(), f.actor.String(), ReturnRequest{
		ProductID:  productID.String(),
		EmployeeID: first.String(),
	})
	require.NoError(t, err)

	f.issue(t, productID, second)

	holder, err := f.svc.CurrentHolder(context.Background(), productID.String())
	require.NoError(t, err)
	require.NotNil(t, holder.EmployeeID)
	assert.Equal(t, second.String(), *holder.EmployeeID)
}

func TestCurrentHolder(t *testing.T) {
	f := newLifecycleFixture()
	productID := f.seedProduct(model.ProductFree)
	employeeID := f.seedEmployee(model.EmployeeActive)

	holder, err := f.svc.CurrentHolder(context.Background(), productID.String())
	require.NoError(t, err)
	assert.Nil(t, holder.EmployeeID, "free product has no holder")

	f.issue(t, productID, employeeID)
	holder, err = f.svc.CurrentHolder(context.Background(), productID.String())
	require.NoError(t, err)
	require.NotNil(t, holder.EmployeeID)
	assert.Equal(t, employeeID.String(), *holder.EmployeeID)

	_, err = f.svc.Return(context.Background(), f.actor.String(), ReturnRequest{
		ProductID:  productID.String(),
		EmployeeID: employeeID.String(),
	})
	require.NoError(t, err)

	holder, err = f.svc.CurrentHolder(context.Background(), productID.String())
	require.NoError(t, err)
	assert.Nil(t, holder.EmployeeID, "returned product has no holder")
}

func TestCurrentHolderUnknownProduct(t *testing.T) {
	f := newLifecycleFixture()

	_, err := f.svc.CurrentHolder(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestHistoryChronological(t *testing.T) {
	f := newLifecycleFixture()
	productID := f.seedProduct(model.ProductFree)
	first := f.seedEmployee(model.EmployeeActive)
	second := f.seedEmployee(model.EmployeeActive)

	f.issue(t, productID, first)
	_, err := f.svc.Return(context.Background(), f.actor.String(), ReturnRequest{
		ProductID:  productID.String(),
		EmployeeID: first.String(),
	})
	require.NoError(t, err)
	f.issue(t, productID, second)

	history, total, err := f.svc.HistoryFor(context.Background(), productID.String(), 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, history, 3)

	assert.Equal(t, string(model.TxIssue), history[0].TransactionType)
	assert.Equal(t, first.String(), history[0].EmployeeID)
	assert.Equal(t, string(model.TxReturn), history[1].TransactionType)
	assert.Equal(t, string(model.TxIssue), history[2].TransactionType)
	assert.Equal(t, second.String(), history[2].EmployeeID)
}

func TestHistoryUnknownProduct(t *testing.T) {
	f := newLifecycleFixture()

	_, _, err := f.svc.HistoryFor(context.Background(), uuid.NewString(), 1, 20)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

// Two concurrent issues on the same product must produce exactly one winner:
// the transaction manager serializes them the way the row lock does in
// Postgres, so the loser observes Taken.
func TestConcurrentIssueSingleWinner(t *testing.T) {
	f := newLifecycleFixture()
	productID := f.seedProduct(model.ProductFree)
	first := f.seedEmployee(model.EmployeeActive)
	second := f.seedEmployee(model.EmployeeActive)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, employeeID := range []uuid.UUID{first, second} {
		wg.Add(1)
		go func(i int, employeeID uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.svc.Issue(context.Background(), f.actor.String(), IssueRequest{
				ProductID:  productID.String(),
				EmployeeID: employeeID.String(),
			})
		}(i, employeeID)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			failures++
			assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
		}
	}
	assert.Equal(t, 1, failures, "exactly one of the two issues must fail")

	count, err := f.ledger.CountByProduct(context.Background(), productID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	product, err := f.products.FindByID(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, model.ProductTaken, product.Status)
}
