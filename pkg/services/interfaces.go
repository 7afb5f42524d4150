// Package services contains the statement classification, safety guard,
// and submission logic of the safety layer.
package services

import (
	"github.com/raphplt/QoreDB/pkg/models"
)

// Logger defines logging interface.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// MetricsCollector defines metrics collection interface.
type MetricsCollector interface {
	IncrementCounter(name string, labels ...string)
	RecordHistogram(name string, value float64, labels ...string)
	RecordGauge(name string, value float64, labels ...string)
	StartTimer(name string) Timer
}

// Timer represents a timing measurement.
type Timer interface {
	Stop() float64
}

// CacheInvalidator is the slice of the metadata cache the consistency
// coordinator needs. Implemented by cache.MetadataCache.
type CacheInvalidator interface {
	InvalidateNamespaces(session models.SessionID)
	InvalidateCollections(session models.SessionID, namespace models.Namespace)
	InvalidateTableSchema(session models.SessionID, namespace models.Namespace, table string)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

// NoopLogger returns a Logger that discards everything.
func NoopLogger() Logger { return noopLogger{} }
