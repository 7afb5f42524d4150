package services

import "strings"

// Statement is one executable statement carved out of a submission,
// carrying both the raw text (what gets executed) and its normalized
// shadow (what splitting and comment detection operate on).
type Statement struct {
	Raw        string
	Normalized string
}

// SplitStatements divides a possibly multi-statement submission into
// individual statements on top-level semicolons. Because normalization
// is length-preserving, semicolons found in the normalized text index
// directly into the raw text, so separators hidden inside literals or
// comments are never split on. Empty statements are discarded; the
// returned order is the execution order.
func SplitStatements(raw string) []Statement {
	normalized := NormalizeStatement(raw)

	var statements []Statement
	start := 0
	for i := 0; i <= len(normalized); i++ {
		if i != len(normalized) && normalized[i] != ';' {
			continue
		}
		rawPart := strings.TrimSpace(raw[start:i])
		normPart := strings.TrimSpace(normalized[start:i])
		if normPart != "" && !isOnlyComment(normPart) {
			statements = append(statements, Statement{Raw: rawPart, Normalized: normPart})
		}
		start = i + 1
	}
	return statements
}

// isOnlyComment reports whether a normalized fragment contains nothing
// but comment markers and whitespace. Comment bodies are already blanked
// by normalization, so only the markers themselves can remain.
func isOnlyComment(normalized string) bool {
	replacer := strings.NewReplacer("--", "", "/*", "", "*/", "")
	return strings.TrimSpace(replacer.Replace(normalized)) == ""
}
