package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphplt/QoreDB/pkg/models"
)

func setupTestCoordinator() (*ConsistencyCoordinator, *mockInvalidator) {
	inv := &mockInvalidator{}
	return NewConsistencyCoordinator(inv, &mockLogger{}, &mockMetricsCollector{}), inv
}

func TestConsistencyCoordinator_OnMutationSucceeded(t *testing.T) {
	session := models.NewSessionID()
	ns := models.Namespace{Database: "shop", Schema: "public"}

	t.Run("table scope invalidates the schema only", func(t *testing.T) {
		coordinator, inv := setupTestCoordinator()
		coordinator.OnMutationSucceeded(session, StatementClassification{
			IsMutation: true,
			Scope:      ScopeTable,
			Table:      "orders",
		}, ns, "orders")

		require.Len(t, inv.calls, 1)
		assert.Equal(t, "schema", inv.calls[0].kind)
		assert.Equal(t, ns, inv.calls[0].namespace)
		assert.Equal(t, "orders", inv.calls[0].table)
	})

	t.Run("collection scope invalidates the collection list only", func(t *testing.T) {
		coordinator, inv := setupTestCoordinator()
		coordinator.OnMutationSucceeded(session, StatementClassification{
			IsMutation: true,
			Scope:      ScopeCollection,
			Table:      "orders",
		}, ns, "orders")

		require.Len(t, inv.calls, 1)
		assert.Equal(t, "collections", inv.calls[0].kind)
		assert.Equal(t, ns, inv.calls[0].namespace)
	})

	t.Run("namespace scope invalidates the namespace list only", func(t *testing.T) {
		coordinator, inv := setupTestCoordinator()
		coordinator.OnMutationSucceeded(session, StatementClassification{
			IsMutation: true,
			Scope:      ScopeNamespace,
		}, ns, "")

		require.Len(t, inv.calls, 1)
		assert.Equal(t, "namespaces", inv.calls[0].kind)
	})

	t.Run("non-mutation is a no-op", func(t *testing.T) {
		coordinator, inv := setupTestCoordinator()
		coordinator.OnMutationSucceeded(session, StatementClassification{
			Scope: ScopeTable,
			Table: "orders",
		}, ns, "orders")

		assert.Empty(t, inv.calls)
	})

	t.Run("scope none is a no-op", func(t *testing.T) {
		coordinator, inv := setupTestCoordinator()
		coordinator.OnMutationSucceeded(session, StatementClassification{
			IsMutation: true,
			Scope:      ScopeNone,
		}, ns, "")

		assert.Empty(t, inv.calls)
	})

	t.Run("table scope without a table degrades to a no-op", func(t *testing.T) {
		coordinator, inv := setupTestCoordinator()
		coordinator.OnMutationSucceeded(session, StatementClassification{
			IsMutation: true,
			Scope:      ScopeTable,
		}, ns, "")

		assert.Empty(t, inv.calls)
	})

	t.Run("classification table is the fallback", func(t *testing.T) {
		coordinator, inv := setupTestCoordinator()
		coordinator.OnMutationSucceeded(session, StatementClassification{
			IsMutation: true,
			Scope:      ScopeTable,
			Table:      "orders",
		}, ns, "")

		require.Len(t, inv.calls, 1)
		assert.Equal(t, "orders", inv.calls[0].table)
	})
}
