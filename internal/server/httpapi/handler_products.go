package httpapi

import (
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/dmitrijs2005/salesdesk/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", common.ErrorInvalidInput, name)
	}
	return id, nil
}

// productID reads the product id from the path, falling back to the
// ?id= query parameter used by the older routes.
func productID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	if raw == "" {
		raw = c.Query("id")
	}
	if raw == "" {
		return 0, fmt.Errorf("%w: id is required", common.ErrorInvalidInput)
	}
	return parseID("id", raw)
}

func (r productRequest) input() (services.ProductInput, error) {
	if r.Name == nil || r.Price == nil || r.Stock == nil {
		return services.ProductInput{}, fmt.Errorf("%w: name, price and stock are required", common.ErrorInvalidInput)
	}
	return services.ProductInput{Name: *r.Name, Price: *r.Price, Stock: *r.Stock}, nil
}

func (s *HTTPServer) listProducts(c *fiber.Ctx) error {
	items, err := s.svc.Products.List(c.UserContext(), c.Query("search"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "products": toProducts(items)})
}

func (s *HTTPServer) createProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return err
	}

	p, err := s.svc.Products.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "product": toProduct(p)})
}

func (s *HTTPServer) updateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	var id int64
	if c.Params("id") != "" {
		v, err := parseID("id", c.Params("id"))
		if err != nil {
			return err
		}
		id = v
	} else if req.ID != nil {
		id = *req.ID
	}
	if id <= 0 {
		return fmt.Errorf("%w: id is required", common.ErrorInvalidInput)
	}

	in, err := req.input()
	if err != nil {
		return err
	}

	p, err := s.svc.Products.Update(c.UserContext(), id, in, userIDOf(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "product": toProduct(p)})
}

func (s *HTTPServer) deleteProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	if err := s.svc.Products.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "product deleted"})
}

func (s *HTTPServer) productDetail(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	d, err := s.svc.Products.Detail(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": toDetail(d)})
}
