// Package repomanager wires repository constructors together so services can
// request a repository bound to either the pooled connection or an open
// transaction.
package repomanager

import (
	"context"
	"database/sql"

	"devfolio/internal/dbx"
	"devfolio/internal/server/repositories/connections"
	"devfolio/internal/server/repositories/conversations"
	"devfolio/internal/server/repositories/files"
	"devfolio/internal/server/repositories/messages"
	"devfolio/internal/server/repositories/portfolio"
	"devfolio/internal/server/repositories/refreshtokens"
	"devfolio/internal/server/repositories/roadmaps"
	"devfolio/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX and
// exposes a schema migration hook.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Portfolio(db dbx.DBTX) portfolio.Repository
	Connections(db dbx.DBTX) connections.Repository
	Conversations(db dbx.DBTX) conversations.Repository
	Messages(db dbx.DBTX) messages.Repository
	Roadmaps(db dbx.DBTX) roadmaps.Repository
	Files(db dbx.DBTX) files.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
