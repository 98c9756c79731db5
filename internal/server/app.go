// Package server wires the salesdesk application together: it opens the
// database, runs migrations, builds the services and the notification hub,
// and runs the HTTP API until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/logging"
	"github.com/dmitrijs2005/salesdesk/internal/server/config"
	"github.com/dmitrijs2005/salesdesk/internal/server/httpapi"
	"github.com/dmitrijs2005/salesdesk/internal/server/notify"
	"github.com/dmitrijs2005/salesdesk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/salesdesk/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
	migrateTimeout  = time.Minute
)

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	hub    *notify.Hub
	api    httpapi.Services
}

// OpenDB opens the pgx-backed pool described by dsn and checks it is reachable.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

// newArchiver picks object storage when it is enabled, the local export
// directory otherwise. The second value is non-nil only for local storage.
func newArchiver(c *config.Config) (services.Archiver, *services.LocalArchiver, error) {
	if c.S3Enabled {
		return services.NewS3Archiver(c), nil, nil
	}
	local, err := services.NewLocalArchiver(c.ExportDir, httpapi.ArchivesPath)
	if err != nil {
		return nil, nil, fmt.Errorf("export dir error: %w", err)
	}
	return local, local, nil
}

func NewApp(c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	db, err := OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	archiver, local, err := newArchiver(c)
	if err != nil {
		db.Close()
		return nil, err
	}

	hub := notify.NewHub(notify.DefaultBuffer)

	svc := httpapi.Services{
		Users:     services.NewUserService(db, rm, c),
		Products:  services.NewProductService(db, rm, c.LowStockThreshold, hub),
		Sales:     services.NewSaleService(db, rm, c.LowStockThreshold, hub),
		Inventory: services.NewInventoryService(db, rm, c.LowStockThreshold, hub),
		Reports:   services.NewReportService(db, rm, c.LowStockThreshold, archiver),
		Events:    hub,
	}
	if local != nil {
		svc.Archives = local
	}

	return &App{config: c, logger: logger, db: db, hub: hub, api: svc}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.api, app.config.CORSOrigins)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// ends open event streams and closes the database.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	// event streams only end when the hub closes, so close it before
	// the HTTP server waits for open connections
	go func() {
		<-ctx.Done()
		app.hub.Close()
	}()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped", "dropped_events", app.hub.Dropped())
}
