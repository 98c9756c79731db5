package httpapi

import (
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/server/models"
	"github.com/shopspring/decimal"
)

// Request bodies use pointer fields so a missing field can be told apart
// from a zero value.

type credentialsRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

type refreshRequest struct {
	RefreshToken *string `json:"refresh_token"`
}

type productRequest struct {
	ID    *int64           `json:"id"`
	Name  *string          `json:"name"`
	Price *decimal.Decimal `json:"price"`
	Stock *int             `json:"stock"`
}

type saleRequest struct {
	ProductID *int64 `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

type adjustRequest struct {
	ProductID *int64  `json:"product_id"`
	Type      *string `json:"type"`
	Quantity  *int    `json:"quantity"`
	Reason    string  `json:"reason"`
}

type userResponse struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func toUser(u *models.User) userResponse {
	r := userResponse{ID: u.ID, Username: u.UserName}
	if !u.CreatedAt.IsZero() {
		t := u.CreatedAt
		r.CreatedAt = &t
	}
	return r
}

type productResponse struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toProduct(p *models.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toProducts(items []*models.Product) []productResponse {
	out := make([]productResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toProduct(p))
	}
	return out
}

type saleResponse struct {
	ID             int64            `json:"id"`
	ProductID      *int64           `json:"product_id"`
	ProductName    string           `json:"product_name"`
	ProductPrice   *decimal.Decimal `json:"product_price,omitempty"`
	Quantity       int              `json:"quantity"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	Total          decimal.Decimal  `json:"total"`
	CreatedAt      time.Time        `json:"created_at"`
	RemainingStock *int             `json:"remaining_stock,omitempty"`
}

func saleFields(s *models.Sale) saleResponse {
	return saleResponse{
		ID:        s.ID,
		ProductID: s.ProductID,
		Quantity:  s.Quantity,
		UnitPrice: s.UnitPrice,
		Total:     s.Total,
		CreatedAt: s.CreatedAt,
	}
}

func toSaleView(v *models.SaleView) saleResponse {
	r := saleFields(&v.Sale)
	r.ProductName = v.ProductName
	if v.ProductPrice.Valid {
		price := v.ProductPrice.Decimal
		r.ProductPrice = &price
	}
	return r
}

func toSaleViews(items []*models.SaleView) []saleResponse {
	out := make([]saleResponse, 0, len(items))
	for _, v := range items {
		out = append(out, toSaleView(v))
	}
	return out
}

func toReceipt(r *models.SaleReceipt) saleResponse {
	out := saleFields(r.Sale)
	out.ProductName = r.ProductName
	remaining := r.RemainingStock
	out.RemainingStock = &remaining
	return out
}

type recentSaleResponse struct {
	ID        int64           `json:"id"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

type statisticsResponse struct {
	TotalSold    int64           `json:"total_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	StockStatus  string          `json:"stock_status"`
	StockAlert   string          `json:"stock_alert,omitempty"`
}

type productDetailResponse struct {
	Product     productResponse      `json:"product"`
	Statistics  statisticsResponse   `json:"statistics"`
	RecentSales []recentSaleResponse `json:"recent_sales"`
}

func toDetail(d *models.ProductDetail) productDetailResponse {
	recent := make([]recentSaleResponse, 0, len(d.RecentSales))
	for _, s := range d.RecentSales {
		recent = append(recent, recentSaleResponse{ID: s.ID, Quantity: s.Quantity, Total: s.Total, CreatedAt: s.CreatedAt})
	}
	return productDetailResponse{
		Product: toProduct(d.Product),
		Statistics: statisticsResponse{
			TotalSold:    d.TotalSold,
			TotalRevenue: d.TotalRevenue,
			StockStatus:  d.StockStatus,
			StockAlert:   d.StockAlert,
		},
		RecentSales: recent,
	}
}

type inventoryLogResponse struct {
	ID               int64     `json:"id"`
	ProductID        int64     `json:"product_id"`
	ChangeType       string    `json:"change_type"`
	QuantityChange   int       `json:"quantity_change"`
	PreviousQuantity int       `json:"previous_quantity"`
	NewQuantity      int       `json:"new_quantity"`
	Reason           string    `json:"reason,omitempty"`
	Reference        string    `json:"reference,omitempty"`
	UserID           *int64    `json:"user_id"`
	CreatedAt        time.Time `json:"created_at"`
}

func toLog(l *models.InventoryLog) inventoryLogResponse {
	return inventoryLogResponse{
		ID:               l.ID,
		ProductID:        l.ProductID,
		ChangeType:       l.ChangeType,
		QuantityChange:   l.QuantityChange,
		PreviousQuantity: l.PreviousQuantity,
		NewQuantity:      l.NewQuantity,
		Reason:           l.Reason,
		Reference:        l.Reference,
		UserID:           l.UserID,
		CreatedAt:        l.CreatedAt,
	}
}

type totalsResponse struct {
	Count    int64           `json:"count"`
	Quantity int64           `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

func toTotals(t models.SalesTotals) totalsResponse {
	return totalsResponse{Count: t.Count, Quantity: t.Quantity, Revenue: t.Revenue}
}

type dailyRevenueResponse struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Count   int64           `json:"count"`
}

type dashboardResponse struct {
	TotalProducts int64                  `json:"total_products"`
	LowStockCount int64                  `json:"low_stock_count"`
	TotalSales    int64                  `json:"total_sales"`
	TotalRevenue  decimal.Decimal        `json:"total_revenue"`
	TodaySales    int64                  `json:"today_sales"`
	TodayRevenue  decimal.Decimal        `json:"today_revenue"`
	DailyRevenue  []dailyRevenueResponse `json:"daily_revenue"`
	RecentSales   []saleResponse         `json:"recent_sales"`
}

func toDashboard(d *models.Dashboard) dashboardResponse {
	days := make([]dailyRevenueResponse, 0, len(d.LastDays))
	for _, r := range d.LastDays {
		days = append(days, dailyRevenueResponse{Date: r.Day.Format(time.DateOnly), Revenue: r.Revenue, Count: r.Count})
	}
	return dashboardResponse{
		TotalProducts: d.TotalProducts,
		LowStockCount: d.LowStockCount,
		TotalSales:    d.AllTime.Count,
		TotalRevenue:  d.AllTime.Revenue,
		TodaySales:    d.Today.Count,
		TodayRevenue:  d.Today.Revenue,
		DailyRevenue:  days,
		RecentSales:   toSaleViews(d.RecentSales),
	}
}

type productSalesResponse struct {
	ProductID   *int64          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
	Count       int64           `json:"count"`
}

type reportResponse struct {
	Start    string                 `json:"start"`
	End      string                 `json:"end"`
	Totals   totalsResponse         `json:"totals"`
	Products []productSalesResponse `json:"products"`
}

// toReport renders the half-open [From, To) range as inclusive dates.
func toReport(r *models.Report) reportResponse {
	rows := make([]productSalesResponse, 0, len(r.Products))
	for _, p := range r.Products {
		rows = append(rows, productSalesResponse(p))
	}
	return reportResponse{
		Start:    r.From.Format(time.DateOnly),
		End:      r.To.AddDate(0, 0, -1).Format(time.DateOnly),
		Totals:   toTotals(r.Totals),
		Products: rows,
	}
}

type archiveResponse struct {
	Name      string     `json:"name"`
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
