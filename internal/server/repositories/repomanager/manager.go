package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/salesdesk/internal/dbx"
	"github.com/dmitrijs2005/salesdesk/internal/server/repositories/inventorylogs"
	"github.com/dmitrijs2005/salesdesk/internal/server/repositories/products"
	"github.com/dmitrijs2005/salesdesk/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/salesdesk/internal/server/repositories/sales"
	"github.com/dmitrijs2005/salesdesk/internal/server/repositories/users"
)

// RepositoryManager binds repositories to a connection or a transaction.
// Services call it with *sql.DB for plain reads and with *sql.Tx inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Products(db dbx.DBTX) products.Repository
	Sales(db dbx.DBTX) sales.Repository
	InventoryLogs(db dbx.DBTX) inventorylogs.Repository
}
