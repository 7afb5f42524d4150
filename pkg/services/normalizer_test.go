package services

import (
	"testing"
)

func TestNormalizeStatement(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"plain statement untouched",
			"SELECT * FROM users",
			"SELECT * FROM users",
		},
		{
			"single-quoted literal blanked",
			"SELECT 'DROP TABLE users' FROM t",
			"SELECT '                ' FROM t",
		},
		{
			"double-quoted identifier blanked",
			`DROP TABLE "orders"`,
			`DROP TABLE "      "`,
		},
		{
			"line comment blanked after marker",
			"SELECT 1 -- DELETE FROM users",
			"SELECT 1 --                  ",
		},
		{
			"line comment ends at newline",
			"-- note\nSELECT 1",
			"--     \nSELECT 1",
		},
		{
			"block comment blanked between markers",
			"SELECT /* TRUNCATE t */ 1",
			"SELECT /*            */ 1",
		},
		{
			"block comment keeps newlines",
			"/* a\nb */ SELECT 1",
			"/*  \n  */ SELECT 1",
		},
		{
			"doubled single quote stays inside literal",
			"SELECT 'it''s' FROM t",
			"SELECT '     ' FROM t",
		},
		{
			"doubled double quote stays inside identifier",
			`SELECT "a""b" FROM t`,
			`SELECT "    " FROM t`,
		},
		{
			"unterminated literal consumes the rest",
			"SELECT 'oops; DROP TABLE t",
			"SELECT '                  ",
		},
		{
			"unterminated block comment consumes the rest",
			"SELECT 1 /* DELETE",
			"SELECT 1 /*       ",
		},
		{
			"empty input",
			"",
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeStatement(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeStatement(%q) = %q, want %q", tt.input, result, tt.expected)
			}
			if len(result) != len(tt.input) {
				t.Errorf("NormalizeStatement(%q) changed length: %d != %d", tt.input, len(result), len(tt.input))
			}
		})
	}
}

func TestMatchShadow(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"block comment reads as whitespace",
			"DROP /*x*/ TABLE orders",
			"DROP       TABLE orders",
		},
		{
			"line comment reads as whitespace",
			"DROP -- x\nTABLE t",
			"DROP     \nTABLE t",
		},
		{
			"literal interior still blanked",
			"SELECT 'keep' FROM t",
			"SELECT '    ' FROM t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := matchShadow(tt.input)
			if result != tt.expected {
				t.Errorf("matchShadow(%q) = %q, want %q", tt.input, result, tt.expected)
			}
			if len(result) != len(tt.input) {
				t.Errorf("matchShadow(%q) changed length: %d != %d", tt.input, len(result), len(tt.input))
			}
		})
	}
}

func TestExtractShadow(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"comment blanked but quoted identifier kept",
			`DROP /*x*/ TABLE "public"."orders"`,
			`DROP       TABLE "public"."orders"`,
		},
		{
			"line comment blanked but literal kept",
			"DELETE FROM t -- x\nWHERE id = 'a'",
			"DELETE FROM t     \nWHERE id = 'a'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractShadow(tt.input)
			if result != tt.expected {
				t.Errorf("extractShadow(%q) = %q, want %q", tt.input, result, tt.expected)
			}
			if len(result) != len(tt.input) {
				t.Errorf("extractShadow(%q) changed length: %d != %d", tt.input, len(result), len(tt.input))
			}
		})
	}
}
