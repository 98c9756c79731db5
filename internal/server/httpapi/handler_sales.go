package httpapi

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/dmitrijs2005/salesdesk/internal/server/models"
	"github.com/dmitrijs2005/salesdesk/internal/timex"
	"github.com/gofiber/fiber/v2"
)

func queryDate(c *fiber.Ctx, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := timex.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", common.ErrorInvalidInput, name)
	}
	return t, nil
}

// saleFilter reads product_id, date_from, date_to and search. date_to names
// the last included day.
func saleFilter(c *fiber.Ctx) (models.SaleFilter, error) {
	var f models.SaleFilter

	if raw := c.Query("product_id"); raw != "" {
		id, err := parseID("product_id", raw)
		if err != nil {
			return f, err
		}
		f.ProductID = id
	}

	from, err := queryDate(c, "date_from")
	if err != nil {
		return f, err
	}
	to, err := queryDate(c, "date_to")
	if err != nil {
		return f, err
	}
	f.DateFrom = from
	if !to.IsZero() {
		f.DateTo = to.AddDate(0, 0, 1)
	}

	f.Search = strings.TrimSpace(c.Query("search"))
	return f, nil
}

func (s *HTTPServer) listSales(c *fiber.Ctx) error {
	f, err := saleFilter(c)
	if err != nil {
		return err
	}
	items, err := s.svc.Sales.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "sales": toSaleViews(items)})
}

func (s *HTTPServer) getSale(c *fiber.Ctx) error {
	id, err := parseID("id", c.Params("id"))
	if err != nil {
		return err
	}
	v, err := s.svc.Sales.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "sale": toSaleView(v)})
}

func (s *HTTPServer) createSale(c *fiber.Ctx) error {
	var req saleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.ProductID == nil || req.Quantity == nil {
		return fmt.Errorf("%w: product_id and quantity are required", common.ErrorInvalidInput)
	}

	receipt, err := s.svc.Sales.RecordSale(c.UserContext(), *req.ProductID, *req.Quantity, userIDOf(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "sale": toReceipt(receipt)})
}

// exportSales streams the filtered sales list as a CSV attachment. The CSV
// is rendered in full first so a storage error still yields a JSON error.
func (s *HTTPServer) exportSales(c *fiber.Ctx) error {
	f, err := saleFilter(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := s.svc.Reports.ExportSales(c.UserContext(), &buf, f); err != nil {
		return err
	}

	name := fmt.Sprintf("sales-%s.csv", time.Now().UTC().Format("20060102"))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(buf.Bytes())
}

func (s *HTTPServer) archiveSales(c *fiber.Ctx) error {
	f, err := saleFilter(c)
	if err != nil {
		return err
	}

	a, err := s.svc.Reports.ArchiveSales(c.UserContext(), f)
	if err != nil {
		return err
	}

	r := archiveResponse{Name: a.Name, URL: a.URL}
	if !a.ExpiresAt.IsZero() {
		r.ExpiresAt = &a.ExpiresAt
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "archive": r})
}

func (s *HTTPServer) downloadArchive(c *fiber.Ctx) error {
	if s.svc.Archives == nil {
		return fmt.Errorf("archive %w", common.ErrorNotFound)
	}
	name := c.Params("name")
	path, err := s.svc.Archives.Path(name)
	if err != nil {
		return err
	}
	return c.Download(path, name)
}
