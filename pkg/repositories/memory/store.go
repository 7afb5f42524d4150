// Package memory provides an in-memory repository backend. It is used
// by tests and by the CLI when no live database session is attached;
// real deployments plug in driver-backed implementations instead.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/raphplt/QoreDB/pkg/errors"
	"github.com/raphplt/QoreDB/pkg/models"
)

// Store implements repositories.Executor and repositories.MetadataFetcher
// over in-process maps. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	byNS    map[string][]models.Collection
	schemas map[string]*models.TableSchema
	nsList  []models.Namespace

	executed []ExecutedStatement
}

// ExecutedStatement is one statement the store accepted, in order.
type ExecutedStatement struct {
	Session   models.SessionID
	Statement string
	At        time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		byNS:    make(map[string][]models.Collection),
		schemas: make(map[string]*models.TableSchema),
	}
}

// AddNamespace registers a namespace.
func (s *Store) AddNamespace(ns models.Namespace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.nsList {
		if existing.Equal(ns) {
			return
		}
	}
	s.nsList = append(s.nsList, ns)
}

// AddCollection registers a collection, creating its namespace as needed.
func (s *Store) AddCollection(col models.Collection) {
	s.AddNamespace(col.Namespace)
	s.mu.Lock()
	defer s.mu.Unlock()
	key := col.Namespace.Key()
	s.byNS[key] = append(s.byNS[key], col)
}

// SetTableSchema registers the schema of a table or collection.
func (s *Store) SetTableSchema(ns models.Namespace, table string, schema *models.TableSchema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[ns.TableKey(table)] = schema
}

// Executed returns the statements accepted so far, in execution order.
func (s *Store) Executed() []ExecutedStatement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ExecutedStatement, len(s.executed))
	copy(out, s.executed)
	return out
}

// Execute records the statement and reports zero affected rows. The
// store does not interpret SQL; it stands in for a live session.
func (s *Store) Execute(ctx context.Context, session models.SessionID, statement string) (*models.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeExecutionFailed, "execution cancelled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.executed = append(s.executed, ExecutedStatement{
		Session:   session,
		Statement: statement,
		At:        time.Now(),
	})

	affected := int64(0)
	return &models.QueryResult{AffectedRows: &affected}, nil
}

// FetchNamespaces lists the registered namespaces.
func (s *Store) FetchNamespaces(ctx context.Context, session models.SessionID) ([]models.Namespace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Namespace, len(s.nsList))
	copy(out, s.nsList)
	return out, nil
}

// FetchCollections lists the collections of one namespace.
func (s *Store) FetchCollections(ctx context.Context, session models.SessionID, namespace models.Namespace) ([]models.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cols, ok := s.byNS[namespace.Key()]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "namespace not found").WithDetail("namespace", namespace.Key())
	}
	out := make([]models.Collection, len(cols))
	copy(out, cols)
	return out, nil
}

// FetchTableSchema returns the schema of one table.
func (s *Store) FetchTableSchema(ctx context.Context, session models.SessionID, namespace models.Namespace, table string) (*models.TableSchema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	schema, ok := s.schemas[namespace.TableKey(table)]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "table not found").WithDetail("table", namespace.TableKey(table))
	}
	return schema, nil
}
