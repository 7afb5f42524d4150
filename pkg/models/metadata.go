// Package models provides data structures used throughout the safety layer.
package models

import "strings"

// Environment identifies the deployment tier of a connection.
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentStaging     Environment = "staging"
	EnvironmentProduction  Environment = "production"
)

// ParseEnvironment maps a config string to an Environment, defaulting to development.
func ParseEnvironment(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return EnvironmentProduction
	case "staging", "stage":
		return EnvironmentStaging
	default:
		return EnvironmentDevelopment
	}
}

// ConnectionInfo carries the per-session metadata the guard needs.
// It is supplied by the caller; this layer does not own connections.
type ConnectionInfo struct {
	Environment  Environment `json:"environment"`
	ReadOnly     bool        `json:"read_only"`
	DisplayName  string      `json:"display_name"`
	DatabaseName string      `json:"database_name"`
}

// Namespace represents the hierarchy level above collections:
// database for MySQL/MongoDB, database+schema for PostgreSQL.
type Namespace struct {
	Database string `json:"database"`
	Schema   string `json:"schema,omitempty"`
}

// NewNamespace creates a namespace without a schema component.
func NewNamespace(database string) Namespace {
	return Namespace{Database: database}
}

// NewNamespaceWithSchema creates a namespace with a schema component.
func NewNamespaceWithSchema(database, schema string) Namespace {
	return Namespace{Database: database, Schema: schema}
}

// Key returns the canonical cache key for this namespace.
// The empty-string schema and the absent schema are equivalent.
func (n Namespace) Key() string {
	return n.Database + ":" + n.Schema
}

// Equal reports whether two namespaces identify the same container.
func (n Namespace) Equal(other Namespace) bool {
	return n.Key() == other.Key()
}

// TableKey returns the canonical cache key for a table in this namespace.
func (n Namespace) TableKey(table string) string {
	return n.Key() + ":" + table
}

// CollectionType distinguishes tables, views, and document collections.
type CollectionType string

const (
	CollectionTypeTable      CollectionType = "table"
	CollectionTypeView       CollectionType = "view"
	CollectionTypeCollection CollectionType = "collection"
)

// Collection represents a table (SQL) or collection (NoSQL) in a namespace.
type Collection struct {
	Namespace Namespace      `json:"namespace"`
	Name      string         `json:"name"`
	Type      CollectionType `json:"type"`
}

// TableColumn describes one column of a table schema.
type TableColumn struct {
	Name         string `json:"name"`
	DataType     string `json:"data_type"`
	Nullable     bool   `json:"nullable"`
	DefaultValue string `json:"default_value,omitempty"`
	IsPrimaryKey bool   `json:"is_primary_key"`
}

// TableSchema holds the structure of a table or collection.
type TableSchema struct {
	Columns          []TableColumn `json:"columns"`
	PrimaryKey       []string      `json:"primary_key,omitempty"`
	RowCountEstimate *int64        `json:"row_count_estimate,omitempty"`
}
