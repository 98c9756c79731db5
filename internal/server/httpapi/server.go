// Package httpapi exposes the salesdesk services as a JSON API over Fiber,
// including the server-sent events stream used for live notifications.
package httpapi

import (
	"context"
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/logging"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"
)

const (
	// DefaultHeartbeat is how often an idle event stream gets a comment line.
	DefaultHeartbeat = 25 * time.Second

	shutdownTimeout = 5 * time.Second
)

func init() {
	// prices and totals go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// Services groups what the handlers call into. Archives may be nil when
// exports are not stored locally.
type Services struct {
	Users     UserService
	Products  ProductService
	Sales     SaleService
	Inventory InventoryService
	Reports   ReportService
	Archives  ArchiveFiles
	Events    EventSource
}

type HTTPServer struct {
	address     string
	logger      logging.Logger
	svc         Services
	corsOrigins string
	heartbeat   time.Duration
	app         *fiber.App
}

func NewHTTPServer(a string, l logging.Logger, svc Services, corsOrigins string) *HTTPServer {
	if corsOrigins == "" {
		corsOrigins = "*"
	}
	s := &HTTPServer{
		address:     a,
		logger:      l.With("module", "http_server"),
		svc:         svc,
		corsOrigins: corsOrigins,
		heartbeat:   DefaultHeartbeat,
	}
	s.app = s.newApp()
	return s
}

// App returns the underlying Fiber application.
func (s *HTTPServer) App() *fiber.App {
	return s.app
}

func (s *HTTPServer) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "salesdesk",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
		ReadTimeout:           15 * time.Second,
		IdleTimeout:           60 * time.Second,
	})

	app.Use(s.requestID, s.requestLogger)
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: s.corsOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	s.registerRoutes(app)
	return app
}

func (s *HTTPServer) Run(ctx context.Context) error {

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	// blocks until the listener is closed by Shutdown
	if err := s.app.Listen(s.address); err != nil {
		return err
	}

	return nil
}
