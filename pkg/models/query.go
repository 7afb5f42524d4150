// Package models provides data structures used throughout the safety layer.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionID identifies one active connection session.
type SessionID struct {
	uuid.UUID
}

// NewSessionID generates a fresh session identifier.
func NewSessionID() SessionID {
	return SessionID{uuid.New()}
}

// ParseSessionID parses a session identifier from its string form.
func ParseSessionID(s string) (SessionID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return SessionID{}, fmt.Errorf("invalid session ID: %w", err)
	}
	return SessionID{id}, nil
}

// ColumnInfo describes one result column.
type ColumnInfo struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Nullable bool   `json:"nullable"`
}

// Row is a single row of result data, indexed by column order.
type Row struct {
	Values []interface{} `json:"values"`
}

// QueryResult is the outcome of one executed statement.
type QueryResult struct {
	Columns       []ColumnInfo  `json:"columns"`
	Rows          []Row         `json:"rows"`
	AffectedRows  *int64        `json:"affected_rows,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
}
