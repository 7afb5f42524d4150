package services

// NormalizeStatement blanks out the content of string literals and SQL
// comments so that later keyword matching cannot be fooled by text that
// only looks like SQL. The output has exactly the same length as the
// input: every masked character becomes a space (newlines are kept so
// line positions stay meaningful), and the quote characters delimiting
// a literal are preserved. Statement offsets therefore remain valid in
// both the raw and the normalized text.
//
// Doubled quotes inside a literal ('' or "") are the SQL escape for a
// literal quote character and do not terminate the span. An unterminated
// comment or literal consumes the remainder of the input; a keyword
// hidden in such a span stays invisible to the classifier.
func NormalizeStatement(text string) string {
	return maskStatement(text, false, true)
}

// matchShadow blanks literals like NormalizeStatement but additionally
// blanks the comment markers themselves, so a whole comment span reads
// as whitespace. Rule matching runs on this shadow: a comment sitting
// between two keywords must not break the pattern apart.
func matchShadow(text string) string {
	return maskStatement(text, true, true)
}

// extractShadow blanks comment spans, markers included, but leaves
// string literals and quoted identifiers intact. Identifier extraction
// runs on this shadow so quoted object names survive.
func extractShadow(text string) string {
	return maskStatement(text, true, false)
}

func maskStatement(text string, maskMarkers, maskLiterals bool) string {
	const (
		stateNormal = iota
		stateLineComment
		stateBlockComment
		stateSingleQuote
		stateDoubleQuote
	)

	out := []byte(text)
	state := stateNormal

	for i := 0; i < len(out); i++ {
		c := out[i]
		switch state {
		case stateNormal:
			switch {
			case c == '-' && i+1 < len(out) && out[i+1] == '-':
				state = stateLineComment
				if maskMarkers {
					out[i] = ' '
					out[i+1] = ' '
				}
				i++
			case c == '/' && i+1 < len(out) && out[i+1] == '*':
				state = stateBlockComment
				if maskMarkers {
					out[i] = ' '
					out[i+1] = ' '
				}
				i++
			case c == '\'':
				state = stateSingleQuote
			case c == '"':
				state = stateDoubleQuote
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
			} else {
				out[i] = ' '
			}
		case stateBlockComment:
			if c == '*' && i+1 < len(out) && out[i+1] == '/' {
				state = stateNormal
				if maskMarkers {
					out[i] = ' '
					out[i+1] = ' '
				}
				i++
			} else if c != '\n' {
				out[i] = ' '
			}
		case stateSingleQuote:
			if c == '\'' {
				if i+1 < len(out) && out[i+1] == '\'' {
					// escaped quote, still inside the literal
					if maskLiterals {
						out[i] = ' '
						out[i+1] = ' '
					}
					i++
				} else {
					state = stateNormal
				}
			} else if maskLiterals {
				out[i] = ' '
			}
		case stateDoubleQuote:
			if c == '"' {
				if i+1 < len(out) && out[i+1] == '"' {
					if maskLiterals {
						out[i] = ' '
						out[i+1] = ' '
					}
					i++
				} else {
					state = stateNormal
				}
			} else if maskLiterals {
				out[i] = ' '
			}
		}
	}

	return string(out)
}
