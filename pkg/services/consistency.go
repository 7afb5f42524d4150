package services

import (
	"github.com/raphplt/QoreDB/pkg/models"
)

// ConsistencyCoordinator ties a successfully executed mutation to the
// cache invalidations it requires. Exactly one rule fires per mutation:
// the most specific scope the classifier assigned. Broader scopes are
// never invalidated on behalf of narrower changes.
type ConsistencyCoordinator struct {
	cache   CacheInvalidator
	logger  Logger
	metrics MetricsCollector
}

// NewConsistencyCoordinator creates a coordinator over the given cache.
func NewConsistencyCoordinator(cache CacheInvalidator, logger Logger, metrics MetricsCollector) *ConsistencyCoordinator {
	return &ConsistencyCoordinator{
		cache:   cache,
		logger:  logger,
		metrics: metrics,
	}
}

// OnMutationSucceeded must be called immediately after a statement the
// classifier marked as a mutation executed successfully. The namespace
// is the caller's best knowledge of where the statement applied; the
// table argument may be empty when extraction failed, in which case
// table-level invalidation degrades to a no-op.
func (c *ConsistencyCoordinator) OnMutationSucceeded(
	session models.SessionID,
	classification StatementClassification,
	namespace models.Namespace,
	table string,
) {
	if !classification.IsMutation {
		return
	}

	switch classification.Scope {
	case ScopeNamespace:
		c.logger.Debug("Invalidating namespace list after mutation",
			"session", session.String())
		c.cache.InvalidateNamespaces(session)
		c.metrics.IncrementCounter("cache_invalidations_total", "scope", "namespace")

	case ScopeCollection:
		c.logger.Debug("Invalidating collection list after mutation",
			"session", session.String(),
			"namespace", namespace.Key())
		c.cache.InvalidateCollections(session, namespace)
		c.metrics.IncrementCounter("cache_invalidations_total", "scope", "collection")

	case ScopeTable:
		if table == "" {
			table = classification.Table
		}
		if table == "" {
			return
		}
		// Row-level mutations leave the structure intact but make the
		// cached row count estimate volatile.
		c.logger.Debug("Invalidating table schema after mutation",
			"session", session.String(),
			"table", namespace.TableKey(table))
		c.cache.InvalidateTableSchema(session, namespace, table)
		c.metrics.IncrementCounter("cache_invalidations_total", "scope", "table")
	}
}
