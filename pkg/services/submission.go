package services

import (
	"context"

	"github.com/raphplt/QoreDB/pkg/errors"
	"github.com/raphplt/QoreDB/pkg/models"
	"github.com/raphplt/QoreDB/pkg/repositories"
)

// SubmissionState tracks one submission through its lifecycle.
type SubmissionState int

const (
	// StateIdle: created, not yet classified.
	StateIdle SubmissionState = iota
	// StateReady: allowed (directly or after confirmation), may execute.
	StateReady
	// StatePendingConfirmation: waiting for the user to confirm.
	StatePendingConfirmation
	// StateBlocked: refused by the guard, terminal.
	StateBlocked
	// StateExecuting: statements are running.
	StateExecuting
	// StateSucceeded: every statement executed, terminal.
	StateSucceeded
	// StateFailed: a statement failed, terminal.
	StateFailed
	// StateCancelled: the user cancelled the confirmation, terminal.
	StateCancelled
)

// String returns the string representation of the submission state.
func (s SubmissionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StatePendingConfirmation:
		return "pending_confirmation"
	case StateBlocked:
		return "blocked"
	case StateExecuting:
		return "executing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// SubmissionRequest describes one user-composed script to run.
type SubmissionRequest struct {
	Session    models.SessionID
	Connection models.ConnectionInfo
	Dialect    Dialect
	Text       string
	// TargetNamespace is the namespace the caller is focused on. It is
	// the default invalidation target when a statement does not qualify
	// the object it touches.
	TargetNamespace models.Namespace
}

// Submission is the per-submission state machine. It is not safe for
// concurrent use; one submission belongs to one caller.
type Submission struct {
	request  SubmissionRequest
	script   ScriptClassification
	decision SafetyDecision
	state    SubmissionState
}

// State returns the current lifecycle state.
func (s *Submission) State() SubmissionState { return s.state }

// Decision returns the guard verdict computed at Begin time.
func (s *Submission) Decision() SafetyDecision { return s.decision }

// Script returns the per-statement classifications.
func (s *Submission) Script() ScriptClassification { return s.script }

// SubmissionService runs the classify → guard → execute → invalidate
// pipeline. Execution and metadata fetching stay behind interfaces; this
// layer never opens a database connection itself.
type SubmissionService struct {
	classifier  *StatementClassifier
	guard       *SafetyGuard
	executor    repositories.Executor
	coordinator *ConsistencyCoordinator
	logger      Logger
	metrics     MetricsCollector
}

// NewSubmissionService creates a submission service.
func NewSubmissionService(
	classifier *StatementClassifier,
	guard *SafetyGuard,
	executor repositories.Executor,
	coordinator *ConsistencyCoordinator,
	logger Logger,
	metrics MetricsCollector,
) *SubmissionService {
	return &SubmissionService{
		classifier:  classifier,
		guard:       guard,
		executor:    executor,
		coordinator: coordinator,
		logger:      logger,
		metrics:     metrics,
	}
}

// Begin classifies the script and computes the guard decision for the
// whole submission before any statement executes. The returned
// submission is in StateReady, StatePendingConfirmation, or
// StateBlocked.
func (s *SubmissionService) Begin(req SubmissionRequest) (*Submission, error) {
	timer := s.metrics.StartTimer("submission_classify")
	defer timer.Stop()

	script := s.classifier.ClassifyScript(req.Text, req.Dialect)
	if len(script.Statements) == 0 {
		return nil, errors.ErrEmptyStatement
	}

	decision := s.guard.Decide(script, req.Connection)

	sub := &Submission{
		request:  req,
		script:   script,
		decision: decision,
	}

	switch decision.Kind {
	case DecisionAllowed:
		sub.state = StateReady
	case DecisionBlocked:
		sub.state = StateBlocked
	default:
		sub.state = StatePendingConfirmation
	}

	s.logger.Debug("Submission classified",
		"statements", len(script.Statements),
		"mutation", script.IsMutation,
		"dangerous", script.IsDangerous,
		"decision", decision.Kind.String())
	s.metrics.IncrementCounter("submissions_total",
		"decision", decision.Kind.String())

	return sub, nil
}

// Confirm attempts the PendingConfirmation → Ready transition. For a
// typed confirmation the input must equal the expected label byte for
// byte; a mismatch leaves the submission pending until cancelled.
func (s *SubmissionService) Confirm(sub *Submission, typed string) error {
	if sub.state != StatePendingConfirmation {
		return errors.New(errors.CodeInvalidRequest, "submission is not awaiting confirmation")
	}

	if sub.decision.Kind == DecisionRequiresTypedConfirmation && typed != sub.decision.ExpectedLabel {
		s.metrics.IncrementCounter("confirmation_mismatches_total")
		return errors.New(errors.CodeConfirmation, "typed confirmation does not match the expected label").
			WithDetail("expected_length", len(sub.decision.ExpectedLabel))
	}

	sub.state = StateReady
	return nil
}

// Cancel abandons a pending confirmation.
func (s *SubmissionService) Cancel(sub *Submission) {
	if sub.state == StatePendingConfirmation {
		sub.state = StateCancelled
	}
}

// Execute runs the submission's statements in order. It refuses to run
// unless the submission is Ready, so a blocked decision can never reach
// the executor. On the first failing statement execution stops, the
// submission fails, and no cache invalidation happens for the failed
// statement. Each successfully executed mutation triggers the
// consistency coordinator before the next statement starts.
func (s *SubmissionService) Execute(ctx context.Context, sub *Submission) ([]*models.QueryResult, error) {
	switch sub.state {
	case StateReady:
	case StateBlocked:
		code := sub.decision.BlockCode
		if code == "" {
			code = errors.CodePolicyBlocked
		}
		return nil, errors.New(code, sub.decision.Reason)
	default:
		return nil, errors.New(errors.CodeInvalidRequest, "submission is not ready to execute")
	}

	sub.state = StateExecuting
	timer := s.metrics.StartTimer("submission_execute")
	defer timer.Stop()

	results := make([]*models.QueryResult, 0, len(sub.script.Statements))
	for i, stmt := range sub.script.Statements {
		result, err := s.executor.Execute(ctx, sub.request.Session, stmt.Raw)
		if err != nil {
			sub.state = StateFailed
			s.logger.Error("Statement execution failed",
				"error", err,
				"statement_index", i)
			s.metrics.IncrementCounter("statement_errors_total")
			return results, errors.Wrap(err, errors.CodeExecutionFailed, "statement execution failed")
		}
		results = append(results, result)

		cl := sub.script.Classifications[i]
		if cl.IsMutation {
			s.coordinator.OnMutationSucceeded(
				sub.request.Session,
				cl,
				s.invalidationNamespace(sub, cl),
				cl.Table,
			)
		}
	}

	sub.state = StateSucceeded
	s.metrics.IncrementCounter("submissions_succeeded_total")
	return results, nil
}

// invalidationNamespace resolves the namespace a mutation applied to:
// the submission's target namespace, refined by the schema qualifier
// extracted from the statement when one was present.
func (s *SubmissionService) invalidationNamespace(sub *Submission, cl StatementClassification) models.Namespace {
	ns := sub.request.TargetNamespace
	if ns.Database == "" {
		ns.Database = sub.request.Connection.DatabaseName
	}
	if cl.Qualifier != "" {
		ns.Schema = cl.Qualifier
	}
	return ns
}
