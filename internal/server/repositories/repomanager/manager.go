// Package repomanager hands out repositories bound to a dbx.DBTX, so the same
// service code can run against the pool or inside a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/daybook/internal/dbx"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/autosaves"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/entries"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/groups"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a DBTX, so a service can
// use the same set inside and outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Entries(db dbx.DBTX) entries.Repository
	Autosaves(db dbx.DBTX) autosaves.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	Groups(db dbx.DBTX) groups.Repository
}
