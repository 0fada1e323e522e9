package sqltext

import (
	"testing"
)

func TestStripArtifacts_FencedBlock(t *testing.T) {
	input := "Here is the query:\n```sql\nSELECT * FROM users\n```\nLet me know if you need more."
	got := StripArtifacts(input)
	if got != "SELECT * FROM users" {
		t.Errorf("expected fenced contents, got %q", got)
	}
}

func TestStripArtifacts_UntaggedFence(t *testing.T) {
	input := "```\nSELECT 1\n```"
	if got := StripArtifacts(input); got != "SELECT 1" {
		t.Errorf("expected %q, got %q", "SELECT 1", got)
	}
}

func TestStripArtifacts_LooseBackticks(t *testing.T) {
	input := "`SELECT name FROM accounts`"
	if got := StripArtifacts(input); got != "SELECT name FROM accounts" {
		t.Errorf("expected backticks stripped, got %q", got)
	}
}

func TestStripArtifacts_PlainSQL(t *testing.T) {
	input := "  SELECT 1  "
	if got := StripArtifacts(input); got != "SELECT 1" {
		t.Errorf("expected trimmed input, got %q", got)
	}
}

func TestIsCommentOnly(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want bool
	}{
		{"line comment only", "-- no query possible", true},
		{"multiple comment lines", "-- first\n-- second", true},
		{"block comment", "/* nothing to do */", true},
		{"comment then select", "-- explanation\nSELECT 1", false},
		{"select with trailing comment", "SELECT 1 -- trailing", false},
		{"plain select", "SELECT * FROM t", false},
		{"lowercase select in comment", "-- try select later", false},
		{"empty string", "", false},
		{"whitespace only", "  \n\t ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCommentOnly(tt.sql); got != tt.want {
				t.Errorf("IsCommentOnly(%q) = %v, want %v", tt.sql, got, tt.want)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantClean string
		wantOK    bool
	}{
		{"plain query", "SELECT 1", "SELECT 1", true},
		{"fenced query", "```sql\nSELECT 1\n```", "SELECT 1", true},
		{"comment only", "-- no query possible", "", false},
		{"empty", "", "", false},
		{"fence around comment", "```sql\n-- nothing\n```", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean, ok := Sanitize(tt.raw)
			if ok != tt.wantOK || clean != tt.wantClean {
				t.Errorf("Sanitize(%q) = (%q, %v), want (%q, %v)", tt.raw, clean, ok, tt.wantClean, tt.wantOK)
			}
		})
	}
}

func TestCheckParam(t *testing.T) {
	if _, bad := CheckParam("alice"); bad {
		t.Error("plain string flagged as injection")
	}
	if _, bad := CheckParam(42); bad {
		t.Error("non-string parameter flagged as injection")
	}
	fingerprint, bad := CheckParam("1' OR '1'='1")
	if !bad {
		t.Fatal("classic injection not flagged")
	}
	if fingerprint == "" {
		t.Error("expected non-empty fingerprint for flagged parameter")
	}
}
