package services

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Dialect selects which rule table the classifier applies.
type Dialect int

const (
	// DialectSQL covers the relational engines (PostgreSQL, MySQL, generic SQL).
	DialectSQL Dialect = iota
	// DialectDocument covers the document-store command format
	// (db.collection.method(...) calls or JSON payloads).
	DialectDocument
)

// String returns the string representation of the dialect.
func (d Dialect) String() string {
	switch d {
	case DialectSQL:
		return "sql"
	case DialectDocument:
		return "document"
	default:
		return "unknown"
	}
}

// ParseDialect maps a config string to a Dialect, defaulting to SQL.
func ParseDialect(s string) Dialect {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "document", "mongodb", "mongo":
		return DialectDocument
	default:
		return DialectSQL
	}
}

// MutationScope describes which level of cached metadata a successful
// mutation can have changed.
type MutationScope int

const (
	// ScopeNone: no structural or row-level effect this layer tracks.
	ScopeNone MutationScope = iota
	// ScopeTable: rows of a single table changed, structure intact.
	ScopeTable
	// ScopeCollection: the set of collections in a namespace changed.
	ScopeCollection
	// ScopeNamespace: the set of namespaces changed.
	ScopeNamespace
)

// String returns the string representation of the mutation scope.
func (s MutationScope) String() string {
	switch s {
	case ScopeTable:
		return "table"
	case ScopeCollection:
		return "collection"
	case ScopeNamespace:
		return "namespace"
	default:
		return "none"
	}
}

// StatementClassification is the safety verdict for one statement.
// A statement the rule tables do not recognize classifies as neither
// mutating nor dangerous: the classifier fails open toward "safe" and
// never returns an error.
type StatementClassification struct {
	IsMutation     bool
	IsDangerous    bool
	DangerReason   string
	DangerTarget   string
	IsDropDatabase bool

	// Scope and Table feed the cache consistency coordinator.
	Scope MutationScope
	Table string
	// Qualifier is the schema/database qualifier of the extracted
	// object, when the statement names one (e.g. "public" in
	// DROP TABLE "public"."orders").
	Qualifier string
}

// ScriptClassification aggregates per-statement verdicts across a
// multi-statement submission. The flags are the logical OR of the
// statements; the danger fields come from the first dangerous statement.
type ScriptClassification struct {
	Statements      []Statement
	Classifications []StatementClassification

	IsMutation     bool
	IsDangerous    bool
	IsDropDatabase bool
	DangerReason   string
	DangerTarget   string
	Qualifier      string
}

// sqlDangerRule is one entry of the ordered dangerous-pattern table.
// Rules are evaluated top to bottom; the first whose match pattern hits
// decides, with an optional exempting pattern (a WHERE clause) that
// downgrades the hit to safe.
type sqlDangerRule struct {
	match  *regexp.Regexp
	exempt *regexp.Regexp
	reason string
	target *regexp.Regexp
}

// StatementClassifier decides whether statements mutate data and whether
// they are dangerous enough to require confirmation. It is pure and
// stateless after construction; the rule tables are compiled once.
type StatementClassifier struct {
	mutationKeywords map[string]bool
	dangerRules      []sqlDangerRule
	tableTargets     []*regexp.Regexp
	namespaceChange  *regexp.Regexp
	collectionChange *regexp.Regexp
	rowChange        *regexp.Regexp
	dropDatabase     *regexp.Regexp

	docCall       *regexp.Regexp
	docCreateColl *regexp.Regexp
	docDropDB     *regexp.Regexp
	docMutations  map[string]bool
	docOperations map[string]MutationScope

	tokenPattern *regexp.Regexp
}

var whereClause = regexp.MustCompile(`(?i)\bWHERE\b`)

// NewStatementClassifier creates a classifier with compiled rule tables.
func NewStatementClassifier() *StatementClassifier {
	c := &StatementClassifier{
		mutationKeywords: make(map[string]bool),
		docMutations:     make(map[string]bool),
		tokenPattern:     regexp.MustCompile(`[A-Z0-9_]+`),
	}

	for _, kw := range []string{
		"INSERT", "UPDATE", "DELETE", "DROP", "TRUNCATE", "ALTER",
		"CREATE", "REPLACE", "MERGE", "GRANT", "REVOKE", "CALL",
		"EXEC", "EXECUTE", "COPY",
	} {
		c.mutationKeywords[kw] = true
	}

	// Ordered dangerous-pattern table, first match wins. Matching runs
	// against a shadow with comments blanked to whitespace; target
	// extraction runs against a shadow that keeps quoted identifiers.
	c.dangerRules = []sqlDangerRule{
		{
			match:  regexp.MustCompile(`(?i)^\s*DROP\s+(TABLE|DATABASE|SCHEMA|INDEX|VIEW|FUNCTION|TRIGGER)\b`),
			reason: "destroys a data structure permanently",
			target: regexp.MustCompile(`(?i)^\s*DROP\s+(?:TABLE|DATABASE|SCHEMA|INDEX|VIEW|FUNCTION|TRIGGER)\s+(?:IF\s+EXISTS\s+)?(?:CONCURRENTLY\s+)?([^\s;(,]+)`),
		},
		{
			match:  regexp.MustCompile(`(?i)^\s*TRUNCATE\b`),
			reason: "deletes all rows in the table",
			target: regexp.MustCompile(`(?i)^\s*TRUNCATE\s+(?:TABLE\s+)?(?:ONLY\s+)?([^\s;(,]+)`),
		},
		{
			match:  regexp.MustCompile(`(?i)^\s*DELETE\s+FROM\b`),
			exempt: whereClause,
			reason: "removes all rows",
			target: regexp.MustCompile(`(?i)^\s*DELETE\s+FROM\s+(?:ONLY\s+)?([^\s;(,]+)`),
		},
		{
			match:  regexp.MustCompile(`(?i)^\s*UPDATE\b`),
			exempt: whereClause,
			reason: "modifies all rows",
			target: regexp.MustCompile(`(?i)^\s*UPDATE\s+(?:ONLY\s+)?([^\s;(,]+)`),
		},
		{
			match:  regexp.MustCompile(`(?i)^\s*ALTER\s+TABLE\b[\s\S]*\bDROP\b`),
			reason: "drops columns or constraints",
			target: regexp.MustCompile(`(?i)^\s*ALTER\s+TABLE\s+(?:IF\s+EXISTS\s+)?(?:ONLY\s+)?([^\s;(,]+)`),
		},
	}

	// Best-effort table extraction for row-level mutations, used only
	// for cache invalidation, never for blocking.
	c.tableTargets = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*INSERT\s+INTO\s+([^\s;(,]+)`),
		regexp.MustCompile(`(?i)^\s*REPLACE\s+INTO\s+([^\s;(,]+)`),
		regexp.MustCompile(`(?i)^\s*MERGE\s+INTO\s+([^\s;(,]+)`),
		regexp.MustCompile(`(?i)^\s*UPDATE\s+(?:ONLY\s+)?([^\s;(,]+)`),
		regexp.MustCompile(`(?i)^\s*DELETE\s+FROM\s+(?:ONLY\s+)?([^\s;(,]+)`),
		regexp.MustCompile(`(?i)^\s*CREATE\s+(?:OR\s+REPLACE\s+)?(?:TEMP(?:ORARY)?\s+)?(?:TABLE|VIEW)\s+(?:IF\s+NOT\s+EXISTS\s+)?([^\s;(,]+)`),
		regexp.MustCompile(`(?i)^\s*DROP\s+(?:TABLE|VIEW)\s+(?:IF\s+EXISTS\s+)?([^\s;(,]+)`),
		regexp.MustCompile(`(?i)^\s*TRUNCATE\s+(?:TABLE\s+)?(?:ONLY\s+)?([^\s;(,]+)`),
		regexp.MustCompile(`(?i)^\s*ALTER\s+TABLE\s+(?:IF\s+EXISTS\s+)?(?:ONLY\s+)?([^\s;(,]+)`),
	}

	c.namespaceChange = regexp.MustCompile(`(?i)^\s*(?:CREATE|DROP)\s+(?:DATABASE|SCHEMA)\b`)
	c.collectionChange = regexp.MustCompile(`(?i)^\s*(?:(?:CREATE|DROP|ALTER)\s+(?:OR\s+REPLACE\s+)?(?:TEMP(?:ORARY)?\s+)?(?:TABLE|VIEW)|TRUNCATE)\b`)
	c.rowChange = regexp.MustCompile(`(?i)^\s*(?:INSERT|UPDATE|DELETE|REPLACE|MERGE)\b`)
	c.dropDatabase = regexp.MustCompile(`(?i)^\s*DROP\s+DATABASE\b`)

	c.docCall = regexp.MustCompile(`^\s*db\.([A-Za-z0-9_.$\-]+)\.([A-Za-z]+)\s*\(`)
	c.docCreateColl = regexp.MustCompile(`^\s*db\.createCollection\s*\(\s*["']([^"']+)["']`)
	c.docDropDB = regexp.MustCompile(`^\s*db\.dropDatabase\s*\(`)

	for _, m := range []string{
		"insert", "insertOne", "insertMany",
		"update", "updateOne", "updateMany", "replaceOne",
		"deleteOne", "deleteMany", "remove", "bulkWrite",
		"findOneAndUpdate", "findOneAndDelete", "findOneAndReplace",
		"drop", "renameCollection", "createIndex", "dropIndex",
	} {
		c.docMutations[m] = true
	}

	// Explicit payload operations: {"operation": "...", ...}
	c.docOperations = map[string]MutationScope{
		"create_collection": ScopeNamespace,
		"drop_collection":   ScopeCollection,
		"drop_database":     ScopeNamespace,
		"insert":            ScopeTable,
		"insert_one":        ScopeTable,
		"insert_many":       ScopeTable,
		"update":            ScopeTable,
		"update_one":        ScopeTable,
		"update_many":       ScopeTable,
		"delete":            ScopeTable,
		"delete_one":        ScopeTable,
		"delete_many":       ScopeTable,
		"replace_one":       ScopeTable,
		"bulk_write":        ScopeTable,
	}

	return c
}

// Classify analyzes a single statement under the given dialect.
func (c *StatementClassifier) Classify(statement string, dialect Dialect) StatementClassification {
	raw := strings.TrimSpace(statement)
	if raw == "" {
		return StatementClassification{}
	}
	if dialect == DialectDocument {
		return c.classifyDocument(raw)
	}
	return c.classifySQL(Statement{Raw: raw, Normalized: strings.TrimSpace(NormalizeStatement(raw))})
}

// ClassifyScript splits a SQL submission into statements and classifies
// each one; the aggregate is the logical OR across statements. Document
// commands are single payloads and are never split.
func (c *StatementClassifier) ClassifyScript(text string, dialect Dialect) ScriptClassification {
	var statements []Statement
	if dialect == DialectDocument {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			statements = []Statement{{Raw: trimmed, Normalized: trimmed}}
		}
	} else {
		statements = SplitStatements(text)
	}

	script := ScriptClassification{Statements: statements}
	for _, stmt := range statements {
		var cl StatementClassification
		if dialect == DialectDocument {
			cl = c.classifyDocument(stmt.Raw)
		} else {
			cl = c.classifySQL(stmt)
		}
		script.Classifications = append(script.Classifications, cl)

		script.IsMutation = script.IsMutation || cl.IsMutation
		script.IsDropDatabase = script.IsDropDatabase || cl.IsDropDatabase
		if cl.IsDangerous && !script.IsDangerous {
			script.IsDangerous = true
			script.DangerReason = cl.DangerReason
			script.DangerTarget = cl.DangerTarget
			script.Qualifier = cl.Qualifier
		}
	}
	return script
}

// classifySQL applies the SQL rule tables to one statement. The rule
// patterns join keywords with plain whitespace, so matching runs on a
// shadow where comment spans, markers included, are blanked to spaces;
// DROP /*x*/ TABLE must classify exactly like DROP TABLE. Extraction
// runs on a second shadow that drops comments but keeps literals, so
// quoted identifiers come out intact.
func (c *StatementClassifier) classifySQL(stmt Statement) StatementClassification {
	var cl StatementClassification

	matchable := matchShadow(stmt.Raw)
	extractable := extractShadow(stmt.Raw)

	upper := strings.ToUpper(matchable)
	for _, token := range c.tokenPattern.FindAllString(upper, -1) {
		if c.mutationKeywords[token] {
			cl.IsMutation = true
			break
		}
	}

	for _, rule := range c.dangerRules {
		if !rule.match.MatchString(matchable) {
			continue
		}
		if rule.exempt != nil && rule.exempt.MatchString(matchable) {
			break // the exempting clause downgrades the hit, first match still wins
		}
		cl.IsDangerous = true
		cl.DangerReason = rule.reason
		if m := rule.target.FindStringSubmatch(extractable); m != nil {
			cl.DangerTarget, cl.Qualifier = splitQualifiedIdentifier(m[1])
		}
		break
	}

	if c.dropDatabase.MatchString(matchable) {
		cl.IsDropDatabase = true
	}

	cl.Scope = c.sqlScope(matchable)
	if cl.Scope == ScopeTable || cl.Scope == ScopeCollection {
		for _, pattern := range c.tableTargets {
			if m := pattern.FindStringSubmatch(extractable); m != nil {
				table, qualifier := splitQualifiedIdentifier(m[1])
				cl.Table = table
				if cl.Qualifier == "" {
					cl.Qualifier = qualifier
				}
				break
			}
		}
	}

	return cl
}

// sqlScope determines the most specific metadata level a statement can
// have structurally changed.
func (c *StatementClassifier) sqlScope(normalized string) MutationScope {
	switch {
	case c.namespaceChange.MatchString(normalized):
		return ScopeNamespace
	case c.collectionChange.MatchString(normalized):
		return ScopeCollection
	case c.rowChange.MatchString(normalized):
		return ScopeTable
	default:
		return ScopeNone
	}
}

// classifyDocument applies the document-command rule table.
func (c *StatementClassifier) classifyDocument(raw string) StatementClassification {
	if strings.HasPrefix(raw, "{") {
		return c.classifyDocumentPayload(raw)
	}

	var cl StatementClassification

	if c.docDropDB.MatchString(raw) {
		cl.IsMutation = true
		cl.IsDangerous = true
		cl.IsDropDatabase = true
		cl.DangerReason = "drops the entire database permanently"
		cl.Scope = ScopeNamespace
		return cl
	}
	if m := c.docCreateColl.FindStringSubmatch(raw); m != nil {
		cl.IsMutation = true
		cl.Scope = ScopeNamespace
		cl.Table = m[1]
		return cl
	}
	if m := c.docCall.FindStringSubmatch(raw); m != nil {
		collection, method := m[1], m[2]
		if !c.docMutations[method] {
			return cl
		}
		cl.IsMutation = true
		cl.Table = collection
		cl.Scope = ScopeTable
		if method == "drop" || method == "renameCollection" {
			cl.Scope = ScopeCollection
		}
		if method == "drop" {
			cl.IsDangerous = true
			cl.DangerReason = "drops the collection permanently"
			cl.DangerTarget = collection
		}
		return cl
	}

	// Unrecognized shape: fail open toward safe.
	return cl
}

// classifyDocumentPayload handles the JSON command form:
// {"database": "db", "collection": "col", "operation": "...", ...}.
func (c *StatementClassifier) classifyDocumentPayload(raw string) StatementClassification {
	var cl StatementClassification

	var payload struct {
		Database   string `json:"database"`
		Collection string `json:"collection"`
		Operation  string `json:"operation"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return cl // malformed payload classifies as safe
	}

	scope, ok := c.docOperations[payload.Operation]
	if !ok {
		return cl
	}

	cl.IsMutation = true
	cl.Scope = scope
	cl.Table = payload.Collection

	switch payload.Operation {
	case "drop_collection":
		cl.IsDangerous = true
		cl.DangerReason = "drops the collection permanently"
		cl.DangerTarget = payload.Collection
	case "drop_database":
		cl.IsDangerous = true
		cl.IsDropDatabase = true
		cl.DangerReason = "drops the entire database permanently"
		cl.DangerTarget = payload.Database
	}
	return cl
}

// splitQualifiedIdentifier splits a possibly qualified, possibly quoted
// identifier like "public"."orders" or `db`.`tbl` into (name, qualifier).
// Dots inside quoted parts do not split.
func splitQualifiedIdentifier(ident string) (name, qualifier string) {
	var parts []string
	var part strings.Builder
	var quote byte

	for i := 0; i < len(ident); i++ {
		ch := ident[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				part.WriteByte(ch)
			}
		case ch == '"' || ch == '`':
			quote = ch
		case ch == '[':
			quote = ']'
		case ch == '.':
			parts = append(parts, part.String())
			part.Reset()
		default:
			part.WriteByte(ch)
		}
	}
	parts = append(parts, part.String())

	name = parts[len(parts)-1]
	if len(parts) > 1 {
		qualifier = parts[len(parts)-2]
	}
	return name, qualifier
}
