package services

import (
	"context"

	"github.com/raphplt/QoreDB/pkg/models"
)

// mockLogger implements Logger
type mockLogger struct {
	debugFunc func(msg string, keysAndValues ...interface{})
	infoFunc  func(msg string, keysAndValues ...interface{})
	warnFunc  func(msg string, keysAndValues ...interface{})
	errorFunc func(msg string, keysAndValues ...interface{})
}

func (m *mockLogger) Debug(msg string, keysAndValues ...interface{}) {
	if m.debugFunc != nil {
		m.debugFunc(msg, keysAndValues...)
	}
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	if m.infoFunc != nil {
		m.infoFunc(msg, keysAndValues...)
	}
}

func (m *mockLogger) Warn(msg string, keysAndValues ...interface{}) {
	if m.warnFunc != nil {
		m.warnFunc(msg, keysAndValues...)
	}
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	if m.errorFunc != nil {
		m.errorFunc(msg, keysAndValues...)
	}
}

// mockMetricsCollector implements MetricsCollector
type mockMetricsCollector struct {
	incrementCounterFunc func(name string, labels ...string)
	recordHistogramFunc  func(name string, value float64, labels ...string)
	recordGaugeFunc      func(name string, value float64, labels ...string)
	startTimerFunc       func(name string) Timer
}

func (m *mockMetricsCollector) IncrementCounter(name string, labels ...string) {
	if m.incrementCounterFunc != nil {
		m.incrementCounterFunc(name, labels...)
	}
}

func (m *mockMetricsCollector) RecordHistogram(name string, value float64, labels ...string) {
	if m.recordHistogramFunc != nil {
		m.recordHistogramFunc(name, value, labels...)
	}
}

func (m *mockMetricsCollector) RecordGauge(name string, value float64, labels ...string) {
	if m.recordGaugeFunc != nil {
		m.recordGaugeFunc(name, value, labels...)
	}
}

func (m *mockMetricsCollector) StartTimer(name string) Timer {
	if m.startTimerFunc != nil {
		return m.startTimerFunc(name)
	}
	return &mockTimer{}
}

// mockTimer implements Timer
type mockTimer struct{}

func (m *mockTimer) Stop() float64 {
	return 0
}

// invalidation records one call against the mock invalidator.
type invalidation struct {
	kind      string
	session   models.SessionID
	namespace models.Namespace
	table     string
}

// mockInvalidator implements CacheInvalidator
type mockInvalidator struct {
	calls []invalidation
}

func (m *mockInvalidator) InvalidateNamespaces(session models.SessionID) {
	m.calls = append(m.calls, invalidation{kind: "namespaces", session: session})
}

func (m *mockInvalidator) InvalidateCollections(session models.SessionID, namespace models.Namespace) {
	m.calls = append(m.calls, invalidation{kind: "collections", session: session, namespace: namespace})
}

func (m *mockInvalidator) InvalidateTableSchema(session models.SessionID, namespace models.Namespace, table string) {
	m.calls = append(m.calls, invalidation{kind: "schema", session: session, namespace: namespace, table: table})
}

// mockExecutor implements repositories.Executor
type mockExecutor struct {
	executeFunc func(ctx context.Context, session models.SessionID, statement string) (*models.QueryResult, error)
	executed    []string
}

func (m *mockExecutor) Execute(ctx context.Context, session models.SessionID, statement string) (*models.QueryResult, error) {
	m.executed = append(m.executed, statement)
	if m.executeFunc != nil {
		return m.executeFunc(ctx, session, statement)
	}
	return &models.QueryResult{}, nil
}
