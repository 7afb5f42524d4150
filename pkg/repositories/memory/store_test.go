package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphplt/QoreDB/pkg/errors"
	"github.com/raphplt/QoreDB/pkg/models"
)

func TestStore_Metadata(t *testing.T) {
	ctx := context.Background()
	session := models.NewSessionID()
	ns := models.Namespace{Database: "shop", Schema: "public"}

	store := NewStore()
	store.AddCollection(models.Collection{
		Namespace: ns,
		Name:      "orders",
		Type:      models.CollectionTypeTable,
	})
	store.SetTableSchema(ns, "orders", &models.TableSchema{
		Columns:    []models.TableColumn{{Name: "id", DataType: "bigint", IsPrimaryKey: true}},
		PrimaryKey: []string{"id"},
	})

	namespaces, err := store.FetchNamespaces(ctx, session)
	require.NoError(t, err)
	require.Len(t, namespaces, 1)
	assert.Equal(t, ns, namespaces[0])

	collections, err := store.FetchCollections(ctx, session, ns)
	require.NoError(t, err)
	require.Len(t, collections, 1)
	assert.Equal(t, "orders", collections[0].Name)

	schema, err := store.FetchTableSchema(ctx, session, ns, "orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, schema.PrimaryKey)

	_, err = store.FetchCollections(ctx, session, models.Namespace{Database: "missing"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, err = store.FetchTableSchema(ctx, session, ns, "missing")
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestStore_AddNamespaceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ns := models.Namespace{Database: "shop"}

	store := NewStore()
	store.AddNamespace(ns)
	store.AddNamespace(ns)

	namespaces, err := store.FetchNamespaces(ctx, models.NewSessionID())
	require.NoError(t, err)
	assert.Len(t, namespaces, 1)
}

func TestStore_Execute(t *testing.T) {
	ctx := context.Background()
	session := models.NewSessionID()

	store := NewStore()
	result, err := store.Execute(ctx, session, "INSERT INTO orders VALUES (1)")
	require.NoError(t, err)
	require.NotNil(t, result.AffectedRows)

	executed := store.Executed()
	require.Len(t, executed, 1)
	assert.Equal(t, "INSERT INTO orders VALUES (1)", executed[0].Statement)
	assert.Equal(t, session, executed[0].Session)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.Execute(cancelled, session, "SELECT 1")
	require.Error(t, err)
	assert.Equal(t, errors.CodeExecutionFailed, errors.GetCode(err))
}
