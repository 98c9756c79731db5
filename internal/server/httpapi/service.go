package httpapi

import (
	"context"
	"io"
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/server/auth"
	"github.com/dmitrijs2005/salesdesk/internal/server/models"
	"github.com/dmitrijs2005/salesdesk/internal/server/notify"
	"github.com/dmitrijs2005/salesdesk/internal/server/services"
)

type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, *models.User, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Verify(header string) (*auth.Identity, error)
}

type ProductService interface {
	List(ctx context.Context, search string) ([]*models.Product, error)
	Create(ctx context.Context, in services.ProductInput) (*models.Product, error)
	Update(ctx context.Context, id int64, in services.ProductInput, userID int64) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
	Detail(ctx context.Context, id int64) (*models.ProductDetail, error)
}

type SaleService interface {
	RecordSale(ctx context.Context, productID int64, quantity int, userID int64) (*models.SaleReceipt, error)
	List(ctx context.Context, f models.SaleFilter) ([]*models.SaleView, error)
	Get(ctx context.Context, id int64) (*models.SaleView, error)
}

type InventoryService interface {
	Adjust(ctx context.Context, a models.Adjustment) (*models.AdjustmentResult, error)
	Logs(ctx context.Context, productID int64, limit int) ([]*models.InventoryLog, error)
}

type ReportService interface {
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	Report(ctx context.Context, start, end time.Time) (*models.Report, error)
	ReportPDF(ctx context.Context, start, end time.Time, w io.Writer) error
	ExportSales(ctx context.Context, w io.Writer, f models.SaleFilter) error
	ArchiveSales(ctx context.Context, f models.SaleFilter) (*services.Archive, error)
	ExportInventory(ctx context.Context, w io.Writer) error
}

// ArchiveFiles resolves a stored export to a file on disk.
type ArchiveFiles interface {
	Path(name string) (string, error)
}

// EventSource hands out event subscriptions.
type EventSource interface {
	Subscribe() (<-chan notify.Event, func())
}
