package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/dmitrijs2005/salesdesk/internal/logging"
	"github.com/dmitrijs2005/salesdesk/internal/server/auth"
	"github.com/dmitrijs2005/salesdesk/internal/server/models"
	"github.com/dmitrijs2005/salesdesk/internal/server/notify"
	"github.com/dmitrijs2005/salesdesk/internal/server/services"
	"github.com/stretchr/testify/require"
)

const goodToken = "Bearer good"

type fakeUsers struct {
	login    func(username, password string) (*services.TokenPair, *models.User, error)
	register func(username, password string) (*models.User, error)
	refresh  func(token string) (*services.TokenPair, error)
	revoked  []string
}

func (f *fakeUsers) Register(_ context.Context, username, password string) (*models.User, error) {
	return f.register(username, password)
}

func (f *fakeUsers) Login(_ context.Context, username, password string) (*services.TokenPair, *models.User, error) {
	return f.login(username, password)
}

func (f *fakeUsers) RefreshToken(_ context.Context, token string) (*services.TokenPair, error) {
	return f.refresh(token)
}

func (f *fakeUsers) Logout(_ context.Context, token string) error {
	if token == "" {
		return common.ErrorInvalidInput
	}
	f.revoked = append(f.revoked, token)
	return nil
}

func (f *fakeUsers) Verify(header string) (*auth.Identity, error) {
	switch header {
	case "":
		return nil, common.ErrMissingCredential
	case goodToken:
		return &auth.Identity{UserID: 7, Username: "alice"}, nil
	default:
		return nil, common.ErrInvalidToken
	}
}

type fakeProducts struct {
	lastSearch string
	lastID     int64
	lastInput  services.ProductInput
	lastUser   int64
	items      []*models.Product
	detail     *models.ProductDetail
	err        error
}

func (f *fakeProducts) List(_ context.Context, search string) ([]*models.Product, error) {
	f.lastSearch = search
	return f.items, f.err
}

func (f *fakeProducts) Create(_ context.Context, in services.ProductInput) (*models.Product, error) {
	f.lastInput = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Product{ID: 1, Name: in.Name, Price: in.Price, Stock: in.Stock}, nil
}

func (f *fakeProducts) Update(_ context.Context, id int64, in services.ProductInput, userID int64) (*models.Product, error) {
	f.lastID, f.lastInput, f.lastUser = id, in, userID
	if f.err != nil {
		return nil, f.err
	}
	return &models.Product{ID: id, Name: in.Name, Price: in.Price, Stock: in.Stock}, nil
}

func (f *fakeProducts) Delete(_ context.Context, id int64) error {
	f.lastID = id
	return f.err
}

func (f *fakeProducts) Detail(_ context.Context, id int64) (*models.ProductDetail, error) {
	f.lastID = id
	return f.detail, f.err
}

type fakeSales struct {
	lastFilter models.SaleFilter
	lastUser   int64
	lastID     int64
	receipt    *models.SaleReceipt
	items      []*models.SaleView
	err        error
}

func (f *fakeSales) RecordSale(_ context.Context, productID int64, quantity int, userID int64) (*models.SaleReceipt, error) {
	f.lastUser = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.receipt, nil
}

func (f *fakeSales) List(_ context.Context, filter models.SaleFilter) ([]*models.SaleView, error) {
	f.lastFilter = filter
	return f.items, f.err
}

func (f *fakeSales) Get(_ context.Context, id int64) (*models.SaleView, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	for _, v := range f.items {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, services.ErrSaleNotFound
}

type fakeInventory struct {
	lastAdjustment models.Adjustment
	lastProduct    int64
	lastLimit      int
	result         *models.AdjustmentResult
	logs           []*models.InventoryLog
	err            error
}

func (f *fakeInventory) Adjust(_ context.Context, a models.Adjustment) (*models.AdjustmentResult, error) {
	f.lastAdjustment = a
	return f.result, f.err
}

func (f *fakeInventory) Logs(_ context.Context, productID int64, limit int) ([]*models.InventoryLog, error) {
	f.lastProduct, f.lastLimit = productID, limit
	return f.logs, f.err
}

type fakeReports struct {
	dashboard   *models.Dashboard
	report      *models.Report
	start, end  time.Time
	lastFilter  models.SaleFilter
	csv         string
	inventory   string
	archive     *services.Archive
	err         error
	exportCalls int
}

func (f *fakeReports) Dashboard(context.Context) (*models.Dashboard, error) {
	return f.dashboard, f.err
}

func (f *fakeReports) Report(_ context.Context, start, end time.Time) (*models.Report, error) {
	f.start, f.end = start, end
	return f.report, f.err
}

func (f *fakeReports) ReportPDF(_ context.Context, start, end time.Time, w io.Writer) error {
	f.start, f.end = start, end
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, "%PDF-1.3")
	return err
}

func (f *fakeReports) ExportSales(_ context.Context, w io.Writer, filter models.SaleFilter) error {
	f.exportCalls++
	f.lastFilter = filter
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, f.csv)
	return err
}

func (f *fakeReports) ArchiveSales(_ context.Context, filter models.SaleFilter) (*services.Archive, error) {
	f.lastFilter = filter
	return f.archive, f.err
}

func (f *fakeReports) ExportInventory(_ context.Context, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, f.inventory)
	return err
}

type fakeArchives map[string]string

func (f fakeArchives) Path(name string) (string, error) {
	if p, ok := f[name]; ok {
		return p, nil
	}
	return "", common.ErrorNotFound
}

// fakeEvents hands out one pre-filled, closed channel.
type fakeEvents struct {
	mu           sync.Mutex
	events       []notify.Event
	unsubscribed int
}

func (f *fakeEvents) Subscribe() (<-chan notify.Event, func()) {
	ch := make(chan notify.Event, len(f.events))
	for _, e := range f.events {
		ch <- e
	}
	close(ch)
	return ch, func() {
		f.mu.Lock()
		f.unsubscribed++
		f.mu.Unlock()
	}
}

type fixture struct {
	srv       *HTTPServer
	users     *fakeUsers
	products  *fakeProducts
	sales     *fakeSales
	inventory *fakeInventory
	reports   *fakeReports
	events    *fakeEvents
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:     &fakeUsers{},
		products:  &fakeProducts{},
		sales:     &fakeSales{},
		inventory: &fakeInventory{},
		reports:   &fakeReports{},
		events:    &fakeEvents{},
	}
	f.srv = NewHTTPServer("127.0.0.1:0", logging.Discard(), Services{
		Users:     f.users,
		Products:  f.products,
		Sales:     f.sales,
		Inventory: f.inventory,
		Reports:   f.reports,
		Archives:  fakeArchives{},
		Events:    f.events,
	}, "*")
	return f
}

// do sends a request through the Fiber app. A non-empty body is sent as JSON.
func (f *fixture) do(t *testing.T, method, target, body string, authorized bool) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorized {
		req.Header.Set(common.AuthorizationHeaderName, goodToken)
	}
	resp, err := f.srv.App().Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
