package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/dmitrijs2005/salesdesk/internal/server/models"
	"github.com/dmitrijs2005/salesdesk/internal/server/notify"
	"github.com/dmitrijs2005/salesdesk/internal/server/services"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.users.login = func(username, password string) (*services.TokenPair, *models.User, error) {
		if username == "alice" && password == "pw" {
			return &services.TokenPair{AccessToken: "at", RefreshToken: "rt"}, &models.User{ID: 7, UserName: "alice"}, nil
		}
		return nil, nil, common.ErrorUnauthorized
	}

	for _, path := range []string{"/api/auth/login", "/api/auth"} {
		resp := f.do(t, http.MethodPost, path, `{"username":"alice","password":"pw"}`, false)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		body := decode(t, resp)
		assert.Equal(t, "at", body["token"])
		assert.Equal(t, "rt", body["refresh_token"])
		assert.Equal(t, map[string]any{"id": float64(7), "username": "alice"}, body["user"])
	}

	resp := f.do(t, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"bad"}`, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/auth/login", `{"username":"alice"}`, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/auth/login", `{not json`, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid input: invalid body", decode(t, resp)["error"])
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	f.users.register = func(username, password string) (*models.User, error) {
		if username == "taken" {
			return nil, fmt.Errorf("username %w", common.ErrorAlreadyExists)
		}
		return &models.User{ID: 3, UserName: username}, nil
	}

	resp := f.do(t, http.MethodPost, "/api/auth/register", `{"username":"bob","password":"pw"}`, false)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "bob", decode(t, resp)["user"].(map[string]any)["username"])

	resp = f.do(t, http.MethodPost, "/api/auth/register", `{"username":"taken","password":"pw"}`, false)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "username already exists", decode(t, resp)["error"])
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	f.users.refresh = func(token string) (*services.TokenPair, error) {
		if token == "old" {
			return &services.TokenPair{AccessToken: "at2", RefreshToken: "rt2"}, nil
		}
		return nil, common.ErrRefreshTokenExpired
	}

	resp := f.do(t, http.MethodPost, "/api/auth/refresh", `{"refresh_token":"old"}`, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "rt2", decode(t, resp)["refresh_token"])

	resp = f.do(t, http.MethodPost, "/api/auth/refresh", `{"refresh_token":"stale"}`, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/auth/refresh", `{}`, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/auth/logout", `{"refresh_token":"rt"}`, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"rt"}, f.users.revoked)

	resp = f.do(t, http.MethodPost, "/api/auth/logout", `{}`, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerify(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/api/auth", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, map[string]any{"id": float64(7), "username": "alice"}, body["user"])

	resp = f.do(t, http.MethodGet, "/api/auth", "", false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProducts_ListAndCreate(t *testing.T) {
	f := newFixture(t)
	f.products.items = []*models.Product{{ID: 1, Name: "Widget", Price: decimal.RequireFromString("10.00"), Stock: 5}}

	resp := f.do(t, http.MethodGet, "/api/products?search=wid", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "wid", f.products.lastSearch)
	items := decode(t, resp)["products"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(10), items[0].(map[string]any)["price"])

	resp = f.do(t, http.MethodPost, "/api/products", `{"name":"Gadget","price":9.99,"stock":0}`, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "9.99", f.products.lastInput.Price.String())
	assert.Equal(t, 0, f.products.lastInput.Stock)

	// stock is required even though zero is a valid value
	resp = f.do(t, http.MethodPost, "/api/products", `{"name":"Gadget","price":9.99}`, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProducts_Update(t *testing.T) {
	f := newFixture(t)
	body := `{"id":4,"name":"Widget","price":"12.50","stock":3}`

	resp := f.do(t, http.MethodPut, "/api/products", body, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(4), f.products.lastID)
	assert.Equal(t, int64(7), f.products.lastUser)

	resp = f.do(t, http.MethodPut, "/api/products/9", body, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(9), f.products.lastID, "path id wins over body id")

	resp = f.do(t, http.MethodPut, "/api/products", `{"name":"Widget","price":1,"stock":3}`, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	f.products.err = fmt.Errorf("product %w", common.ErrorNotFound)
	resp = f.do(t, http.MethodPut, "/api/products/9", body, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProducts_DeleteAndDetail(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodDelete, "/api/products?id=5", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(5), f.products.lastID)

	resp = f.do(t, http.MethodDelete, "/api/products/6", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(6), f.products.lastID)

	resp = f.do(t, http.MethodDelete, "/api/products", "", true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	f.products.detail = &models.ProductDetail{
		Product:      &models.Product{ID: 1, Name: "Widget", Price: decimal.RequireFromString("10.00"), Stock: 0},
		TotalSold:    5,
		TotalRevenue: decimal.RequireFromString("50.00"),
		StockStatus:  models.StockOutOfStock,
		StockAlert:   models.StockAlert(models.StockOutOfStock),
		RecentSales:  []*models.Sale{{ID: 1, Quantity: 5, Total: decimal.RequireFromString("50.00")}},
	}
	for _, path := range []string{"/api/products/1", "/api/product-detail?id=1"} {
		resp = f.do(t, http.MethodGet, path, "", true)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		data := decode(t, resp)["data"].(map[string]any)
		stats := data["statistics"].(map[string]any)
		assert.Equal(t, float64(5), stats["total_sold"])
		assert.Equal(t, float64(50), stats["total_revenue"])
		assert.Equal(t, "OUT_OF_STOCK", stats["stock_status"])
		assert.Len(t, data["recent_sales"], 1)
	}

	resp = f.do(t, http.MethodGet, "/api/products/abc", "", true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateSale(t *testing.T) {
	f := newFixture(t)
	f.sales.receipt = &models.SaleReceipt{
		Sale: &models.Sale{
			ID: 11, ProductID: ptr(int64(1)), Quantity: 3,
			UnitPrice: decimal.RequireFromString("10.00"), Total: decimal.RequireFromString("30.00"),
		},
		ProductName:    "Widget",
		RemainingStock: 2,
	}

	resp := f.do(t, http.MethodPost, "/api/sales", `{"product_id":1,"quantity":3}`, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sale := decode(t, resp)["sale"].(map[string]any)
	assert.Equal(t, float64(30), sale["total"])
	assert.Equal(t, float64(2), sale["remaining_stock"])
	assert.Equal(t, "Widget", sale["product_name"])
	assert.Equal(t, int64(7), f.sales.lastUser)

	resp = f.do(t, http.MethodPost, "/api/sales", `{"product_id":1}`, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateSale_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"insufficient", &common.InsufficientStockError{Available: 2, Requested: 3}, 400, "insufficient stock: only 2 left, 3 requested"},
		{"missing product", services.ErrProductNotFound, 404, "product not found"},
		{"storage", fmt.Errorf("%w: db error: deadlock detected", common.ErrorInternal), 500, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.sales.err = tt.err

			resp := f.do(t, http.MethodPost, "/api/sales", `{"product_id":1,"quantity":3}`, true)
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Equal(t, map[string]any{"success": false, "error": tt.msg}, decode(t, resp))
		})
	}
}

func TestListSales_Filter(t *testing.T) {
	f := newFixture(t)
	f.sales.items = []*models.SaleView{{
		Sale:        models.Sale{ID: 1, Quantity: 2, Total: decimal.RequireFromString("20.00")},
		ProductName: "",
	}}

	resp := f.do(t, http.MethodGet, "/api/sales?product_id=3&date_from=2024-05-01&date_to=2024-05-31&search=%20wid%20", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	want := models.SaleFilter{
		ProductID: 3,
		DateFrom:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		DateTo:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Search:    "wid",
	}
	if diff := cmp.Diff(want, f.sales.lastFilter); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}

	sale := decode(t, resp)["sales"].([]any)[0].(map[string]any)
	assert.Nil(t, sale["product_id"], "sale of a deleted product")
	assert.NotContains(t, sale, "product_price")

	for _, q := range []string{"date_from=05/01/2024", "date_to=yesterday", "product_id=x", "product_id=-1"} {
		resp = f.do(t, http.MethodGet, "/api/sales?"+q, "", true)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestExportSales(t *testing.T) {
	f := newFixture(t)
	f.reports.csv = "id,created_at\n1,2024-05-01T10:00:00Z\n"

	resp := f.do(t, http.MethodGet, "/api/sales/export?date_to=2024-05-01", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, f.reports.csv, string(data))
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), f.reports.lastFilter.DateTo)

	f.reports.err = fmt.Errorf("%w: db error", common.ErrorInternal)
	resp = f.do(t, http.MethodGet, "/api/sales/export", "", true)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, false, decode(t, resp)["success"])
}

func TestGetSale(t *testing.T) {
	f := newFixture(t)
	pid := int64(1)
	f.sales.items = []*models.SaleView{{
		Sale:        models.Sale{ID: 5, ProductID: &pid, Quantity: 2, UnitPrice: decimal.NewFromInt(10), Total: decimal.NewFromInt(20)},
		ProductName: "Widget",
	}}

	resp := f.do(t, http.MethodGet, "/api/sales/5", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sale := decode(t, resp)["sale"].(map[string]any)
	assert.Equal(t, float64(5), sale["id"])
	assert.Equal(t, "Widget", sale["product_name"])
	assert.Equal(t, float64(20), sale["total"])
	assert.Equal(t, int64(5), f.sales.lastID)

	resp = f.do(t, http.MethodGet, "/api/sales/6", "", true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "sale not found", decode(t, resp)["error"])

	resp = f.do(t, http.MethodGet, "/api/sales/abc", "", true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/sales/5", "", false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestExportInventory(t *testing.T) {
	f := newFixture(t)
	f.reports.inventory = "name,price,stock,status,value\nWidget,10.00,2,LOW_STOCK,20.00\nTOTAL,,2,,20.00\n"

	resp := f.do(t, http.MethodGet, "/api/inventory/export", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "inventory-")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, f.reports.inventory, string(data))

	f.reports.err = fmt.Errorf("%w: db error", common.ErrorInternal)
	resp = f.do(t, http.MethodGet, "/api/inventory/export", "", true)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestArchiveSales(t *testing.T) {
	f := newFixture(t)
	f.reports.archive = &services.Archive{Name: "sales.csv", URL: "/api/sales/archives/sales.csv"}

	resp := f.do(t, http.MethodPost, "/api/sales/export?product_id=2", "", true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	archive := decode(t, resp)["archive"].(map[string]any)
	assert.Equal(t, "/api/sales/archives/sales.csv", archive["url"])
	assert.NotContains(t, archive, "expires_at")
	assert.Equal(t, int64(2), f.reports.lastFilter.ProductID)
}

func TestDownloadArchive(t *testing.T) {
	dir := t.TempDir()
	name := "sales-20240501-100000-0f8fad5b-d9cb-469f-a165-70867728950e.csv"
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("id\n1\n"), 0o600))

	f := newFixture(t)
	f.srv.svc.Archives = fakeArchives{name: path}

	resp := f.do(t, http.MethodGet, ArchivesPath+"/"+name, "", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), name)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "id\n1\n", string(data))

	resp = f.do(t, http.MethodGet, ArchivesPath+"/other.csv", "", false)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdjustInventory(t *testing.T) {
	f := newFixture(t)
	f.inventory.result = &models.AdjustmentResult{
		Product:          &models.Product{ID: 1, Name: "Widget", Stock: 15},
		PreviousQuantity: 5,
		NewQuantity:      15,
		Log:              &models.InventoryLog{ID: 1, ProductID: 1, ChangeType: models.ChangeIncrease, QuantityChange: 10},
	}

	resp := f.do(t, http.MethodPost, "/api/inventory/adjust", `{"product_id":1,"type":"increase","quantity":10,"reason":"delivery"}`, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, float64(15), body["new_quantity"])
	assert.Equal(t, models.Adjustment{ProductID: 1, Kind: "increase", Quantity: 10, Reason: "delivery", UserID: 7}, f.inventory.lastAdjustment)

	resp = f.do(t, http.MethodPost, "/api/inventory/adjust", `{"product_id":1,"quantity":10}`, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	f.inventory.err = &common.InsufficientStockError{Available: 5, Requested: 10}
	resp = f.do(t, http.MethodPost, "/api/inventory/adjust", `{"product_id":1,"type":"decrease","quantity":10}`, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInventoryLogs(t *testing.T) {
	f := newFixture(t)
	f.inventory.logs = []*models.InventoryLog{{ID: 2, ProductID: 1, ChangeType: models.ChangeSale, QuantityChange: -3, Reference: "sale:11"}}

	resp := f.do(t, http.MethodGet, "/api/inventory/logs?product_id=1&limit=5", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), f.inventory.lastProduct)
	assert.Equal(t, 5, f.inventory.lastLimit)
	logs := decode(t, resp)["logs"].([]any)
	require.Len(t, logs, 1)
	assert.Equal(t, "sale:11", logs[0].(map[string]any)["reference"])

	resp = f.do(t, http.MethodGet, "/api/inventory/logs?limit=many", "", true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	f.reports.dashboard = &models.Dashboard{
		TotalProducts: 3,
		LowStockCount: 1,
		AllTime:       models.SalesTotals{Count: 4, Revenue: decimal.RequireFromString("80.00")},
		Today:         models.SalesTotals{Count: 1, Revenue: decimal.RequireFromString("20.00")},
		LastDays:      []models.DailyRevenue{{Day: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Revenue: decimal.RequireFromString("20.00"), Count: 1}},
	}

	resp := f.do(t, http.MethodGet, "/api/dashboard", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decode(t, resp)["data"].(map[string]any)
	assert.Equal(t, float64(3), data["total_products"])
	assert.Equal(t, float64(80), data["total_revenue"])
	assert.Equal(t, float64(20), data["today_revenue"])
	assert.Equal(t, "2024-05-01", data["daily_revenue"].([]any)[0].(map[string]any)["date"])
	assert.Equal(t, []any{}, data["recent_sales"])
}

func TestReport(t *testing.T) {
	f := newFixture(t)
	f.reports.report = &models.Report{
		From:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Totals: models.SalesTotals{Count: 2, Quantity: 5, Revenue: decimal.RequireFromString("50.00")},
		Products: []models.ProductSales{
			{ProductID: ptr(int64(1)), ProductName: "Widget", Quantity: 5, Revenue: decimal.RequireFromString("50.00"), Count: 2},
		},
	}

	resp := f.do(t, http.MethodGet, "/api/reports?start=2024-05-01&end=2024-05-31", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), f.reports.start)
	assert.Equal(t, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), f.reports.end)
	data := decode(t, resp)["data"].(map[string]any)
	assert.Equal(t, "2024-05-31", data["end"])
	assert.Equal(t, float64(5), data["totals"].(map[string]any)["quantity"])

	resp = f.do(t, http.MethodGet, "/api/reports", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, DefaultReportDays-1, int(f.reports.end.Sub(f.reports.start).Hours()/24))

	resp = f.do(t, http.MethodGet, "/api/reports?start=may", "", true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEvents_Stream(t *testing.T) {
	f := newFixture(t)
	total := decimal.RequireFromString("30.00")
	f.events.events = []notify.Event{
		{Type: notify.TypeNewSale, ProductID: 1, ProductName: "Widget", Quantity: 3, Stock: 2, Total: &total, SaleID: 11},
		{Type: notify.TypeLowStock, ProductID: 1, ProductName: "Widget", Stock: 2, Message: "Widget is running low: 2 left"},
	}

	resp := f.do(t, http.MethodGet, "/api/events", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.HasPrefix(out, ": connected\n\n"))
	assert.Contains(t, out, "event: new_sale\ndata: {\"type\":\"new_sale\",\"product_id\":1")
	assert.Contains(t, out, "\"total\":30")
	assert.Contains(t, out, "event: low_stock\n")
	assert.Less(t, strings.Index(out, "new_sale"), strings.Index(out, "low_stock"))
	assert.Equal(t, 1, f.events.unsubscribed)
}

func TestEvents_QueryToken(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/api/events?token=good", "", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/events", "", false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestReportPDF(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/api/reports/pdf?start=2024-05-01&end=2024-05-31", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "sales-report-2024-05-01-to-2024-05-31.pdf")

	f.reports.err = fmt.Errorf("%w: start must not be after end", common.ErrorInvalidInput)
	resp = f.do(t, http.MethodGet, "/api/reports/pdf?start=2024-06-01&end=2024-05-31", "", true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
