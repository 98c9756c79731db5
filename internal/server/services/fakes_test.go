package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/dmitrijs2005/salesdesk/internal/dbx"
	"github.com/dmitrijs2005/salesdesk/internal/server/models"
	"github.com/dmitrijs2005/salesdesk/internal/server/notify"
	"github.com/dmitrijs2005/salesdesk/internal/server/repositories/inventorylogs"
	"github.com/dmitrijs2005/salesdesk/internal/server/repositories/products"
	"github.com/dmitrijs2005/salesdesk/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/salesdesk/internal/server/repositories/sales"
	"github.com/dmitrijs2005/salesdesk/internal/server/repositories/users"
	"github.com/shopspring/decimal"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// --- users ---

type fakeUsersRepo struct {
	mu      sync.Mutex
	byID    map[int64]*models.User
	nextID  int64
	err     error
	created []*models.User
}

func newFakeUsers(users ...*models.User) *fakeUsersRepo {
	f := &fakeUsersRepo{byID: map[int64]*models.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
		if u.ID > f.nextID {
			f.nextID = u.ID
		}
	}
	return f
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, existing := range f.byID {
		if existing.UserName == u.UserName {
			return nil, common.ErrorAlreadyExists
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	f.byID[u.ID] = u
	f.created = append(f.created, u)
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.UserName == userName {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

// --- refresh tokens ---

type fakeRefreshRepo struct {
	mu         sync.Mutex
	tokens     map[string]*models.RefreshToken
	createErr  error
	consumeErr error
	deleteErr  error
}

func newFakeRefresh() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]*models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID int64, token string, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (f *fakeRefreshRepo) has(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tokens[token]
	return ok
}

func (f *fakeRefreshRepo) Consume(ctx context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.consumeErr != nil {
		return nil, f.consumeErr
	}
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(f.tokens, token)
	return t, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.tokens, token)
	return nil
}

// --- products ---

type fakeProductsRepo struct {
	mu     sync.Mutex
	items  map[int64]*models.Product
	nextID int64
	err    error
	decErr error
	setErr error
	locked []int64
}

func newFakeProducts(items ...*models.Product) *fakeProductsRepo {
	f := &fakeProductsRepo{items: map[int64]*models.Product{}}
	for _, p := range items {
		cp := *p
		f.items[p.ID] = &cp
		if p.ID > f.nextID {
			f.nextID = p.ID
		}
	}
	return f
}

func (f *fakeProductsRepo) stock(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id].Stock
}

func (f *fakeProductsRepo) List(ctx context.Context, search string) ([]*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Product, 0, len(f.items))
	for _, p := range f.items {
		if search == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeProductsRepo) Get(ctx context.Context, id int64) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductsRepo) GetForUpdate(ctx context.Context, id int64) (*models.Product, error) {
	f.mu.Lock()
	f.locked = append(f.locked, id)
	f.mu.Unlock()
	return f.Get(ctx, id)
}

func (f *fakeProductsRepo) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	cp := *p
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.items[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeProductsRepo) Update(ctx context.Context, p *models.Product) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	cur, ok := f.items[p.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cur.Name, cur.Price, cur.Stock, cur.UpdatedAt = p.Name, p.Price, p.Stock, time.Now()
	out := *cur
	return &out, nil
}

func (f *fakeProductsRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeProductsRepo) DecrementStock(ctx context.Context, id int64, qty int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.decErr != nil {
		return 0, f.decErr
	}
	p, ok := f.items[id]
	if !ok || p.Stock < qty {
		return 0, common.ErrInsufficientStock
	}
	p.Stock -= qty
	return p.Stock, nil
}

func (f *fakeProductsRepo) SetStock(ctx context.Context, id int64, stock int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	p, ok := f.items[id]
	if !ok {
		return common.ErrorNotFound
	}
	p.Stock = stock
	return nil
}

func (f *fakeProductsRepo) Count(ctx context.Context, lowThreshold int) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, 0, f.err
	}
	var low int64
	for _, p := range f.items {
		if p.Stock < lowThreshold {
			low++
		}
	}
	return int64(len(f.items)), low, nil
}

// --- sales ---

type fakeSalesRepo struct {
	mu        sync.Mutex
	items     []*models.Sale
	createErr error
	err       error

	listOut    []*models.SaleView
	lastFilter models.SaleFilter
	lastLimit  int
	totals     map[time.Time]models.SalesTotals
	daily      []models.DailyRevenue
	breakdown  []models.ProductSales
	sold       int64
	revenue    decimal.Decimal
}

func (f *fakeSalesRepo) Create(ctx context.Context, s *models.Sale) (*models.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	s.ID = int64(len(f.items) + 1)
	s.CreatedAt = time.Now()
	f.items = append(f.items, s)
	return s, nil
}

func (f *fakeSalesRepo) List(ctx context.Context, flt models.SaleFilter, limit int) ([]*models.SaleView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter, f.lastLimit = flt, limit
	if f.err != nil {
		return nil, f.err
	}
	return f.listOut, nil
}

func (f *fakeSalesRepo) Get(ctx context.Context, id int64) (*models.SaleView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, s := range f.items {
		if s.ID == id {
			return &models.SaleView{Sale: *s}, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeSalesRepo) ProductTotals(ctx context.Context, productID int64) (int64, decimal.Decimal, error) {
	if f.err != nil {
		return 0, decimal.Zero, f.err
	}
	return f.sold, f.revenue, nil
}

func (f *fakeSalesRepo) RecentByProduct(ctx context.Context, productID int64, limit int) ([]*models.Sale, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Sale, 0)
	for i := len(f.items) - 1; i >= 0 && len(out) < limit; i-- {
		if s := f.items[i]; s.ProductID != nil && *s.ProductID == productID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSalesRepo) Totals(ctx context.Context, from, to time.Time) (models.SalesTotals, error) {
	if f.err != nil {
		return models.SalesTotals{}, f.err
	}
	return f.totals[from], nil
}

func (f *fakeSalesRepo) DailyRevenue(ctx context.Context, since time.Time) ([]models.DailyRevenue, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.daily, nil
}

func (f *fakeSalesRepo) ProductBreakdown(ctx context.Context, from, to time.Time) ([]models.ProductSales, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.breakdown, nil
}

// --- inventory logs ---

type fakeLogsRepo struct {
	mu        sync.Mutex
	items     []*models.InventoryLog
	createErr error
	lastLimit int
}

func (f *fakeLogsRepo) Create(ctx context.Context, l *models.InventoryLog) (*models.InventoryLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	l.ID = int64(len(f.items) + 1)
	l.CreatedAt = time.Now()
	f.items = append(f.items, l)
	return l, nil
}

func (f *fakeLogsRepo) List(ctx context.Context, productID int64, limit int) ([]*models.InventoryLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	out := make([]*models.InventoryLog, 0)
	for _, l := range f.items {
		if productID <= 0 || l.ProductID == productID {
			out = append(out, l)
		}
	}
	return out, nil
}

// --- manager and publisher ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	p *fakeProductsRepo
	s *fakeSalesRepo
	l *fakeLogsRepo
}

func newFakeManager() *fakeRepoManager {
	return &fakeRepoManager{
		u: newFakeUsers(),
		r: newFakeRefresh(),
		p: newFakeProducts(),
		s: &fakeSalesRepo{},
		l: &fakeLogsRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.r }
func (m *fakeRepoManager) Products(dbx.DBTX) products.Repository           { return m.p }
func (m *fakeRepoManager) Sales(dbx.DBTX) sales.Repository                 { return m.s }
func (m *fakeRepoManager) InventoryLogs(dbx.DBTX) inventorylogs.Repository { return m.l }

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(e notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
