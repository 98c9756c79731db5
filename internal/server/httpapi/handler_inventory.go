package httpapi

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/dmitrijs2005/salesdesk/internal/server/models"
	"github.com/gofiber/fiber/v2"
)

func (s *HTTPServer) adjustInventory(c *fiber.Ctx) error {
	var req adjustRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.ProductID == nil || req.Type == nil || req.Quantity == nil {
		return fmt.Errorf("%w: product_id, type and quantity are required", common.ErrorInvalidInput)
	}

	res, err := s.svc.Inventory.Adjust(c.UserContext(), models.Adjustment{
		ProductID: *req.ProductID,
		Kind:      *req.Type,
		Quantity:  *req.Quantity,
		Reason:    req.Reason,
		UserID:    userIDOf(c),
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":           true,
		"product":           toProduct(res.Product),
		"previous_quantity": res.PreviousQuantity,
		"new_quantity":      res.NewQuantity,
		"log":               toLog(res.Log),
	})
}

func (s *HTTPServer) inventoryLogs(c *fiber.Ctx) error {
	var productID int64
	if raw := c.Query("product_id"); raw != "" {
		id, err := parseID("product_id", raw)
		if err != nil {
			return err
		}
		productID = id
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: limit must be an integer", common.ErrorInvalidInput)
		}
		limit = v
	}

	logs, err := s.svc.Inventory.Logs(c.UserContext(), productID, limit)
	if err != nil {
		return err
	}

	out := make([]inventoryLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, toLog(l))
	}
	return c.JSON(fiber.Map{"success": true, "logs": out})
}

func (s *HTTPServer) exportInventory(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := s.svc.Reports.ExportInventory(c.UserContext(), &buf); err != nil {
		return err
	}

	name := fmt.Sprintf("inventory-%s.csv", time.Now().UTC().Format("20060102"))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(buf.Bytes())
}
