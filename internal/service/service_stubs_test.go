package service

import (
	"context"
	"sync"
	"time"

	"assetms/internal/model"
	"assetms/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository stubs. RunInTx serializes callers with a mutex so the
// row-lock semantics of FindByIDForUpdate hold for concurrency tests.

type stubTxManager struct {
	mu sync.Mutex
}

func (m *stubTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

type stubProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) add(p *model.Product) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return p.ID
}

func (r *stubProductRepo) Create(ctx context.Context, product *model.Product) error {
	r.add(product)
	return nil
}

func (r *stubProductRepo) Update(ctx context.Context, product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[product.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *product
	r.products[product.ID] = &cp
	return nil
}

func (r *stubProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
	return nil
}

func (r *stubProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *stubProductRepo) FindByTagNo(ctx context.Context, tagNo string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.TagNo == tagNo {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) FindBySerialNo(ctx context.Context, serialNo string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SerialNo == serialNo {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) List(ctx context.Context, page, limit int, filter repository.ProductFilter) ([]model.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProductStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Status = status
	return nil
}

type stubEmployeeRepo struct {
	mu        sync.Mutex
	employees map[uuid.UUID]*model.Employee
}

func newStubEmployeeRepo() *stubEmployeeRepo {
	return &stubEmployeeRepo{employees: make(map[uuid.UUID]*model.Employee)}
}

func (r *stubEmployeeRepo) add(e *model.Employee) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.employees[e.ID] = e
	return e.ID
}

func (r *stubEmployeeRepo) Create(ctx context.Context, employee *model.Employee) error {
	r.add(employee)
	return nil
}

func (r *stubEmployeeRepo) Update(ctx context.Context, employee *model.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *employee
	r.employees[employee.ID] = &cp
	return nil
}

func (r *stubEmployeeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.employees, id)
	return nil
}

func (r *stubEmployeeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.employees[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *stubEmployeeRepo) FindByEmail(ctx context.Context, email string) (*model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.employees {
		if e.Email == email {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubEmployeeRepo) FindByUserID(ctx context.Context, userID string) (*model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.employees {
		if e.UserID == userID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubEmployeeRepo) List(ctx context.Context, page, limit int) ([]model.Employee, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Employee
	for _, e := range r.employees {
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

// stubTransactionRepo keeps ledger rows in insertion order, which doubles as
// chronological order for FindLatestByProduct and ListByProduct.
type stubTransactionRepo struct {
	mu       sync.Mutex
	ledger   []model.AssetTransaction
	products *stubProductRepo
}

func newStubTransactionRepo(products *stubProductRepo) *stubTransactionRepo {
	return &stubTransactionRepo{products: products}
}

func (r *stubTransactionRepo) Create(ctx context.Context, tx *model.AssetTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	r.ledger = append(r.ledger, *tx)
	return nil
}

func (r *stubTransactionRepo) FindLatestByProduct(ctx context.Context, productID uuid.UUID) (*model.AssetTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.ledger) - 1; i >= 0; i-- {
		if r.ledger[i].ProductID == productID {
			cp := r.ledger[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubTransactionRepo) ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.AssetTransaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []model.AssetTransaction
	for _, tx := range r.ledger {
		if tx.ProductID == productID {
			all = append(all, tx)
		}
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *stubTransactionRepo) ListHeldProducts(ctx context.Context, employeeID uuid.UUID) ([]model.Product, error) {
	r.mu.Lock()
	ledger := make([]model.AssetTransaction, len(r.ledger))
	copy(ledger, r.ledger)
	r.mu.Unlock()

	latest := make(map[uuid.UUID]model.AssetTransaction)
	for _, tx := range ledger {
		latest[tx.ProductID] = tx
	}

	var out []model.Product
	for productID, tx := range latest {
		if tx.TransactionType != model.TxIssue || tx.EmployeeID != employeeID {
			continue
		}
		p, err := r.products.FindByID(ctx, productID)
		if err != nil {
			continue
		}
		if p.Status == model.ProductTaken {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubTransactionRepo) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, tx := range r.ledger {
		if tx.ProductID == productID {
			count++
		}
	}
	return count, nil
}

func (r *stubTransactionRepo) CountByEmployee(ctx context.Context, employeeID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, tx := range r.ledger {
		if tx.EmployeeID == employeeID {
			count++
		}
	}
	return count, nil
}

type stubAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (r *stubAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *stubAuditRepo) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.AuditLog, len(r.entries))
	copy(out, r.entries)
	return out, int64(len(out)), nil
}

func (r *stubAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type stubDeptRepo struct {
	mu        sync.Mutex
	depts     map[uuid.UUID]*model.Department
	employees *stubEmployeeRepo
}

func newStubDeptRepo(employees *stubEmployeeRepo) *stubDeptRepo {
	return &stubDeptRepo{depts: make(map[uuid.UUID]*model.Department), employees: employees}
}

func (r *stubDeptRepo) add(d *model.Department) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	r.depts[d.ID] = d
	return d.ID
}

func (r *stubDeptRepo) Create(ctx context.Context, dept *model.Department) error {
	r.add(dept)
	return nil
}

func (r *stubDeptRepo) Update(ctx context.Context, dept *model.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *dept
	r.depts[dept.ID] = &cp
	return nil
}

func (r *stubDeptRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.depts, id)
	return nil
}

func (r *stubDeptRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.depts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *stubDeptRepo) FindByName(ctx context.Context, name string) (*model.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.depts {
		if d.DepartmentName == name {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubDeptRepo) List(ctx context.Context) ([]model.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Department
	for _, d := range r.depts {
		out = append(out, *d)
	}
	return out, nil
}

func (r *stubDeptRepo) CountEmployees(ctx context.Context, deptID uuid.UUID) (int64, error) {
	r.employees.mu.Lock()
	defer r.employees.mu.Unlock()
	var count int64
	for _, e := range r.employees.employees {
		if e.DepartmentID == deptID {
			count++
		}
	}
	return count, nil
}

type stubTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*model.RefreshToken
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{tokens: make(map[string]*model.RefreshToken)}
}

func (r *stubTokenRepo) Create(ctx context.Context, token *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	cp := *token
	r.tokens[token.Token] = &cp
	return nil
}

func (r *stubTokenRepo) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.tokens[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rt
	return &cp, nil
}

func (r *stubTokenRepo) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

func (r *stubTokenRepo) DeleteExpired(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, rt := range r.tokens {
		if time.Now().After(rt.ExpiresAt) {
			delete(r.tokens, token)
		}
	}
	return nil
}

type stubGroupRepo struct {
	mu     sync.Mutex
	groups map[uuid.UUID]*model.AssetGroup
	types  *stubTypeRepo
}

func newStubGroupRepo(types *stubTypeRepo) *stubGroupRepo {
	return &stubGroupRepo{groups: make(map[uuid.UUID]*model.AssetGroup), types: types}
}

func (r *stubGroupRepo) add(g *model.AssetGroup) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	r.groups[g.ID] = g
	return g.ID
}

func (r *stubGroupRepo) Create(ctx context.Context, group *model.AssetGroup) error {
	r.add(group)
	return nil
}

func (r *stubGroupRepo) Update(ctx context.Context, group *model.AssetGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *group
	r.groups[group.ID] = &cp
	return nil
}

func (r *stubGroupRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, id)
	return nil
}

func (r *stubGroupRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.AssetGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *stubGroupRepo) FindByName(ctx context.Context, name string) (*model.AssetGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.groups {
		if g.GroupName == name {
			cp := *g
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubGroupRepo) List(ctx context.Context) ([]model.AssetGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AssetGroup
	for _, g := range r.groups {
		out = append(out, *g)
	}
	return out, nil
}

func (r *stubGroupRepo) CountTypes(ctx context.Context, groupID uuid.UUID) (int64, error) {
	return r.types.countByGroup(groupID), nil
}

type stubTypeRepo struct {
	mu       sync.Mutex
	types    map[uuid.UUID]*model.AssetType
	products *stubProductRepo
}

func newStubTypeRepo(products *stubProductRepo) *stubTypeRepo {
	return &stubTypeRepo{types: make(map[uuid.UUID]*model.AssetType), products: products}
}

func (r *stubTypeRepo) add(t *model.AssetType) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.types[t.ID] = t
	return t.ID
}

func (r *stubTypeRepo) countByGroup(groupID uuid.UUID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, t := range r.types {
		if t.GroupID == groupID {
			count++
		}
	}
	return count
}

func (r *stubTypeRepo) Create(ctx context.Context, t *model.AssetType) error {
	r.add(t)
	return nil
}

func (r *stubTypeRepo) Update(ctx context.Context, t *model.AssetType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.types[t.ID] = &cp
	return nil
}

func (r *stubTypeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.types, id)
	return nil
}

func (r *stubTypeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.AssetType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.types[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *stubTypeRepo) FindByGroupAndName(ctx context.Context, groupID uuid.UUID, name string) (*model.AssetType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.types {
		if t.GroupID == groupID && t.TypeName == name {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubTypeRepo) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]model.AssetType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AssetType
	for _, t := range r.types {
		if t.GroupID == groupID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *stubTypeRepo) ExistsInGroup(ctx context.Context, typeID, groupID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.types[typeID]
	return ok && t.GroupID == groupID, nil
}

func (r *stubTypeRepo) CountProducts(ctx context.Context, typeID uuid.UUID) (int64, error) {
	r.products.mu.Lock()
	defer r.products.mu.Unlock()
	var count int64
	for _, p := range r.products.products {
		if p.AssetTypeID == typeID {
			count++
		}
	}
	return count, nil
}
