// Package main provides the entry point for the QoreDB safety layer CLI.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/raphplt/QoreDB/cmd/qoredb/config"
	"github.com/raphplt/QoreDB/pkg/cache"
	"github.com/raphplt/QoreDB/pkg/infrastructure/metrics"
	"github.com/raphplt/QoreDB/pkg/models"
	"github.com/raphplt/QoreDB/pkg/repositories/memory"
	"github.com/raphplt/QoreDB/pkg/services"
)

var (
	// Version information (set by build flags)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "qoredb",
	Short: "QoreDB statement safety layer",
	Long: `Classify database statements and apply the QoreDB safety policy.

The safety layer decides, before anything executes, whether a statement
is a mutation, whether it is dangerous, and what confirmation (if any)
the user must give.`,
}

var checkCmd = &cobra.Command{
	Use:   "check [statement]",
	Short: "Classify a statement and print the safety decision",
	Long: `Classify a statement against the safety rules and print the verdict.

The statement is taken from the arguments, or from stdin when none are
given. The connection is described by flags so the same statement can be
checked against different environments.

Example:
  qoredb check 'DELETE FROM orders'
  qoredb check --environment production 'DROP TABLE "public"."orders"'
  echo 'TRUNCATE TABLE logs' | qoredb check --read-only`,
	RunE: runCheck,
}

var runCmd = &cobra.Command{
	Use:   "run [statement]",
	Short: "Run a statement through the full safety pipeline",
	Long: `Run a statement through classification, the safety guard, and
execution against an in-memory session. Useful for trying out how a
script would be gated without touching a real database.

Confirmation is non-interactive: pass --yes for a simple confirmation
or --confirm <label> for a typed one.

Example:
  qoredb run 'INSERT INTO orders VALUES (1)'
  qoredb run --environment production --confirm orders 'DROP TABLE orders'`,
	RunE: runRun,
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Print the effective safety policy",
	Long: `Print the effective safety policy after applying the stored
configuration and QOREDB_* environment overrides.`,
	RunE: runPolicy,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(policyCmd)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path (default ~/.qoredb/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	checkCmd.Flags().String("dialect", "sql", "statement dialect (sql, document)")
	checkCmd.Flags().String("environment", "development", "connection environment (development, staging, production)")
	checkCmd.Flags().Bool("read-only", false, "treat the connection as read-only")
	checkCmd.Flags().String("database", "", "connection database name")
	checkCmd.Flags().String("name", "", "connection display name")
	checkCmd.Flags().Bool("json", false, "print the verdict as JSON")

	runCmd.Flags().String("dialect", "sql", "statement dialect (sql, document)")
	runCmd.Flags().String("environment", "development", "connection environment (development, staging, production)")
	runCmd.Flags().Bool("read-only", false, "treat the connection as read-only")
	runCmd.Flags().String("database", "", "connection database name")
	runCmd.Flags().String("name", "", "connection display name")
	runCmd.Flags().Bool("yes", false, "answer a simple confirmation prompt")
	runCmd.Flags().String("confirm", "", "typed confirmation label")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(fmt.Errorf("failed to bind flags: %w", err))
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("QoreDB Safety Layer\n")
			fmt.Printf("Version:    %s\n", version)
			fmt.Printf("Commit:     %s\n", commit)
			fmt.Printf("Build Date: %s\n", buildDate)
		},
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// checkVerdict is the printable outcome of one check invocation.
type checkVerdict struct {
	Statements  int    `json:"statements"`
	Mutation    bool   `json:"mutation"`
	Dangerous   bool   `json:"dangerous"`
	Reason      string `json:"reason,omitempty"`
	Target      string `json:"target,omitempty"`
	Decision    string `json:"decision"`
	TypedLabel  string `json:"typed_label,omitempty"`
	Environment string `json:"environment"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogging(cfg.LogLevel)

	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read statement from stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no statement given")
	}

	conn := models.ConnectionInfo{
		Environment:  models.ParseEnvironment(mustString(cmd, "environment")),
		ReadOnly:     mustBool(cmd, "read-only"),
		DisplayName:  mustString(cmd, "name"),
		DatabaseName: mustString(cmd, "database"),
	}
	dialect := services.ParseDialect(mustString(cmd, "dialect"))

	log := &loggerAdapter{logger: logger}
	collector := &serviceMetricsAdapter{collector: metrics.NewNoOpCollector()}

	classifier := services.NewStatementClassifier()
	guard := services.NewSafetyGuard(cfg.Policy, log, collector)

	script := classifier.ClassifyScript(text, dialect)
	if len(script.Statements) == 0 {
		return fmt.Errorf("statement is empty after stripping comments")
	}
	decision := guard.Decide(script, conn)

	verdict := checkVerdict{
		Statements:  len(script.Statements),
		Mutation:    script.IsMutation,
		Dangerous:   script.IsDangerous,
		Reason:      decision.Reason,
		Target:      script.DangerTarget,
		Decision:    decision.Kind.String(),
		TypedLabel:  decision.ExpectedLabel,
		Environment: string(conn.Environment),
	}

	if mustBool(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(verdict)
	}

	fmt.Printf("statements:  %d\n", verdict.Statements)
	fmt.Printf("mutation:    %v\n", verdict.Mutation)
	fmt.Printf("dangerous:   %v\n", verdict.Dangerous)
	if verdict.Reason != "" {
		fmt.Printf("reason:      %s\n", verdict.Reason)
	}
	if verdict.Target != "" {
		fmt.Printf("target:      %s\n", verdict.Target)
	}
	fmt.Printf("decision:    %s\n", verdict.Decision)
	if verdict.TypedLabel != "" {
		fmt.Printf("type to confirm: %s\n", verdict.TypedLabel)
	}
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogging(cfg.LogLevel)

	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read statement from stdin: %w", err)
		}
		text = string(data)
	}

	conn := models.ConnectionInfo{
		Environment:  models.ParseEnvironment(mustString(cmd, "environment")),
		ReadOnly:     mustBool(cmd, "read-only"),
		DisplayName:  mustString(cmd, "name"),
		DatabaseName: mustString(cmd, "database"),
	}
	dialect := services.ParseDialect(mustString(cmd, "dialect"))

	log := &loggerAdapter{logger: logger}
	base := metrics.NewNoOpCollector()
	if cfg.Metrics.Enabled {
		base = metrics.NewPrometheusCollector()

		metricsServer := metrics.NewMetricsServer(cfg.Metrics.Address, cfg.Metrics.Path)
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
		defer func() {
			if err := metricsServer.Stop(); err != nil {
				logger.Error().Err(err).Msg("Failed to stop metrics server")
			}
		}()
		logger.Info().
			Str("address", cfg.Metrics.Address).
			Str("path", cfg.Metrics.Path).
			Msg("Metrics server started")
	}
	collector := &serviceMetricsAdapter{collector: base}

	store := memory.NewStore()
	metadataCache := cache.NewMetadataCache(store, cfg.Cache.TTL, log, collector)
	service := services.NewSubmissionService(
		services.NewStatementClassifier(),
		services.NewSafetyGuard(cfg.Policy, log, collector),
		store,
		services.NewConsistencyCoordinator(metadataCache, log, collector),
		log,
		collector,
	)

	session := models.NewSessionID()
	sub, err := service.Begin(services.SubmissionRequest{
		Session:         session,
		Connection:      conn,
		Dialect:         dialect,
		Text:            text,
		TargetNamespace: models.Namespace{Database: conn.DatabaseName},
	})
	if err != nil {
		return err
	}

	switch sub.Decision().Kind {
	case services.DecisionBlocked:
		return fmt.Errorf("blocked: %s", sub.Decision().Reason)
	case services.DecisionRequiresSimpleConfirmation:
		if !mustBool(cmd, "yes") {
			return fmt.Errorf("confirmation required (%s); re-run with --yes", sub.Decision().Reason)
		}
		if err := service.Confirm(sub, ""); err != nil {
			return err
		}
	case services.DecisionRequiresTypedConfirmation:
		typed := mustString(cmd, "confirm")
		if typed == "" {
			return fmt.Errorf("typed confirmation required (%s); re-run with --confirm %q",
				sub.Decision().Reason, sub.Decision().ExpectedLabel)
		}
		if err := service.Confirm(sub, typed); err != nil {
			return err
		}
	}

	results, err := service.Execute(cmd.Context(), sub)
	if err != nil {
		return err
	}

	fmt.Printf("state:      %s\n", sub.State().String())
	fmt.Printf("statements: %d\n", len(results))
	for i, stmt := range store.Executed() {
		fmt.Printf("  %d: %s\n", i+1, stmt.Statement)
	}
	return nil
}

func runPolicy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Policy   services.SafetyPolicy `json:"policy"`
		CacheTTL string                `json:"cache_ttl"`
		Source   string                `json:"config_file"`
	}{
		Policy:   cfg.Policy,
		CacheTTL: cfg.Cache.TTL.String(),
		Source:   configFilePath(),
	})
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFilePath())
	if err != nil {
		return nil, err
	}
	if level := viper.GetString("log-level"); level != "" {
		cfg.LogLevel = level
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func configFilePath() string {
	if path := viper.GetString("config"); path != "" {
		return path
	}
	return config.DefaultPath()
}

func mustString(cmd *cobra.Command, name string) string {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(err)
	}
	return value
}

func mustBool(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(err)
	}
	return value
}

func setupLogging(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond

	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stderr).
		Level(logLevel).
		With().
		Timestamp().
		Str("service", "qoredb-safety").
		Logger()

	return logger
}
