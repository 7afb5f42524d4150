package services

import (
	"github.com/raphplt/QoreDB/pkg/errors"
	"github.com/raphplt/QoreDB/pkg/models"
)

// SafetyPolicy is the organizational policy applied on top of the
// per-connection environment flags. Managed deployments override the
// stored values through QOREDB_* environment variables (see config).
type SafetyPolicy struct {
	// ProdRequireConfirmation gates the simple-confirmation prompt for
	// non-dangerous mutations on production connections.
	ProdRequireConfirmation bool `mapstructure:"prod_require_confirmation" yaml:"prod_require_confirmation"`
	// ProdBlockDangerousSQL upgrades dangerous statements on production
	// connections from "confirm" to "block".
	ProdBlockDangerousSQL bool `mapstructure:"prod_block_dangerous_sql" yaml:"prod_block_dangerous_sql"`
}

// DefaultSafetyPolicy returns the shipped policy defaults.
func DefaultSafetyPolicy() SafetyPolicy {
	return SafetyPolicy{
		ProdRequireConfirmation: true,
		ProdBlockDangerousSQL:   false,
	}
}

// DecisionKind enumerates the guard outcomes.
type DecisionKind int

const (
	// DecisionAllowed lets the submission execute silently.
	DecisionAllowed DecisionKind = iota
	// DecisionBlocked refuses the submission outright.
	DecisionBlocked
	// DecisionRequiresSimpleConfirmation asks for a yes/no confirmation.
	DecisionRequiresSimpleConfirmation
	// DecisionRequiresTypedConfirmation asks the user to type the
	// expected label exactly before the submission may proceed.
	DecisionRequiresTypedConfirmation
)

// String returns the string representation of the decision kind.
func (k DecisionKind) String() string {
	switch k {
	case DecisionAllowed:
		return "allowed"
	case DecisionBlocked:
		return "blocked"
	case DecisionRequiresSimpleConfirmation:
		return "requires_simple_confirmation"
	case DecisionRequiresTypedConfirmation:
		return "requires_typed_confirmation"
	default:
		return "unknown"
	}
}

// SafetyDecision is the guard verdict for a whole submission. It is
// recomputed per submission and never stored.
type SafetyDecision struct {
	Kind   DecisionKind
	Reason string
	// ExpectedLabel is the string a typed confirmation must match
	// byte for byte.
	ExpectedLabel string
	// BlockCode is the error code a blocked decision surfaces as,
	// distinguishing a read-only block from a policy block.
	BlockCode string
}

// typedConfirmationFallback is used when neither a danger target nor any
// connection name is available for the typed-confirmation label.
const typedConfirmationFallback = "PROD"

// SafetyGuard turns a script classification plus connection metadata
// into an execution decision. Decisions are pure computations; the guard
// never fails with an error.
type SafetyGuard struct {
	policy  SafetyPolicy
	logger  Logger
	metrics MetricsCollector
}

// NewSafetyGuard creates a guard with the given organizational policy.
func NewSafetyGuard(policy SafetyPolicy, logger Logger, metrics MetricsCollector) *SafetyGuard {
	return &SafetyGuard{
		policy:  policy,
		logger:  logger,
		metrics: metrics,
	}
}

// Policy returns the effective organizational policy.
func (g *SafetyGuard) Policy() SafetyPolicy {
	return g.policy
}

// Decide evaluates the guard rules in order:
//
//  1. read-only connections never execute mutations;
//  2. dangerous statements are blocked by policy or gated behind
//     confirmation, typed on production and for drop-database;
//  3. non-dangerous mutations on production get a simple confirmation;
//  4. everything else is allowed.
func (g *SafetyGuard) Decide(script ScriptClassification, conn models.ConnectionInfo) SafetyDecision {
	if conn.ReadOnly && script.IsMutation {
		g.logger.Warn("Mutation blocked on read-only connection",
			"connection", conn.DisplayName)
		g.metrics.IncrementCounter("guard_blocked_total", "reason", "read_only")
		return SafetyDecision{
			Kind:      DecisionBlocked,
			Reason:    "connection is read-only",
			BlockCode: errors.CodeReadOnlyBlocked,
		}
	}

	production := conn.Environment == models.EnvironmentProduction

	if script.IsDangerous {
		if production && g.policy.ProdBlockDangerousSQL {
			g.logger.Warn("Dangerous statement blocked by safety policy",
				"connection", conn.DisplayName,
				"reason", script.DangerReason)
			g.metrics.IncrementCounter("guard_blocked_total", "reason", "policy")
			return SafetyDecision{
				Kind:      DecisionBlocked,
				Reason:    "dangerous statement blocked by safety policy",
				BlockCode: errors.CodePolicyBlocked,
			}
		}

		requiresTyping := production || script.IsDropDatabase
		label := script.DangerTarget
		if label == "" {
			label = conn.DisplayName
		}
		if label == "" {
			label = conn.DatabaseName
		}
		if label == "" {
			label = typedConfirmationFallback
		}

		g.metrics.IncrementCounter("guard_dangerous_total",
			"environment", string(conn.Environment))
		if requiresTyping {
			return SafetyDecision{
				Kind:          DecisionRequiresTypedConfirmation,
				Reason:        script.DangerReason,
				ExpectedLabel: label,
			}
		}
		return SafetyDecision{
			Kind:   DecisionRequiresSimpleConfirmation,
			Reason: script.DangerReason,
		}
	}

	if production && script.IsMutation && g.policy.ProdRequireConfirmation {
		return SafetyDecision{
			Kind:   DecisionRequiresSimpleConfirmation,
			Reason: "mutation on a production connection",
		}
	}

	return SafetyDecision{Kind: DecisionAllowed}
}
