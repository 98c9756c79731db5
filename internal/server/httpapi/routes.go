package httpapi

import "github.com/gofiber/fiber/v2"

// ArchivesPath is where locally stored exports are served from.
const ArchivesPath = "/api/sales/archives"

func (s *HTTPServer) registerRoutes(app *fiber.App) {
	api := app.Group("/api")
	gate := s.requireAuth

	api.Get("/health", s.health)

	api.Post("/auth", s.login)
	api.Post("/auth/login", s.login)
	api.Post("/auth/register", s.register)
	api.Post("/auth/refresh", s.refresh)
	api.Post("/auth/logout", s.logout)
	api.Get("/auth", s.verify)

	api.Get("/products", gate, s.listProducts)
	api.Post("/products", gate, s.createProduct)
	api.Put("/products", gate, s.updateProduct)
	api.Delete("/products", gate, s.deleteProduct)
	api.Get("/products/:id", gate, s.productDetail)
	api.Put("/products/:id", gate, s.updateProduct)
	api.Delete("/products/:id", gate, s.deleteProduct)
	api.Get("/product-detail", gate, s.productDetail)

	api.Get("/sales", gate, s.listSales)
	api.Post("/sales", gate, s.createSale)
	api.Get("/sales/export", gate, s.exportSales)
	api.Post("/sales/export", gate, s.archiveSales)
	// unauthenticated; archive names carry a random uuid
	api.Get("/sales/archives/:name", s.downloadArchive)
	api.Get("/sales/:id", gate, s.getSale)

	api.Post("/inventory/adjust", gate, s.adjustInventory)
	api.Get("/inventory/logs", gate, s.inventoryLogs)
	api.Get("/inventory/export", gate, s.exportInventory)

	api.Get("/dashboard", gate, s.dashboard)
	api.Get("/reports", gate, s.report)
	api.Get("/reports/pdf", gate, s.reportPDF)
	api.Get("/events", s.streamAuth, s.events)
}
