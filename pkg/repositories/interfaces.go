// Package repositories defines the external collaborator interfaces the
// safety layer depends on. Implementations live with the database drivers,
// not here.
package repositories

import (
	"context"

	"github.com/raphplt/QoreDB/pkg/models"
)

// Executor runs a single statement on a live session. It is the only
// channel through which statements actually reach a database.
type Executor interface {
	Execute(ctx context.Context, session models.SessionID, statement string) (*models.QueryResult, error)
}

// MetadataFetcher backs metadata cache misses.
type MetadataFetcher interface {
	FetchNamespaces(ctx context.Context, session models.SessionID) ([]models.Namespace, error)
	FetchCollections(ctx context.Context, session models.SessionID, namespace models.Namespace) ([]models.Collection, error)
	FetchTableSchema(ctx context.Context, session models.SessionID, namespace models.Namespace, table string) (*models.TableSchema, error)
}
