package nlq

import (
	"testing"
)

func TestExtractSQL_FencedBlockWinsVerbatim(t *testing.T) {
	completion := "This query lists the top accounts by balance.\n" +
		"```sql\nSELECT name, balance\nFROM accounts\nORDER BY balance DESC\n```\n" +
		"Adjust the ordering if you need ascending results."

	sql, explanation := ExtractSQL(completion)
	want := "SELECT name, balance\nFROM accounts\nORDER BY balance DESC"
	if sql != want {
		t.Errorf("expected fenced contents verbatim, got %q", sql)
	}
	if explanation == "" {
		t.Error("expected surrounding prose as explanation")
	}
}

func TestExtractSQL_NoFenceReturnsWholeCompletion(t *testing.T) {
	completion := "SELECT id, name\nFROM customers\nWHERE active = true"
	sql, explanation := ExtractSQL(completion)
	if sql != completion {
		t.Errorf("expected whole trimmed completion, got %q", sql)
	}
	if explanation != "" {
		t.Errorf("expected empty explanation, got %q", explanation)
	}
}

func TestExtractSQL_ProseWithKeywordReturnsEverything(t *testing.T) {
	// A keyword anywhere signals the completion is likely pure SQL; the
	// whole trimmed text comes back, not just the matching line.
	completion := "WITH totals AS (SELECT 1)\nSELECT * FROM totals"
	sql, _ := ExtractSQL(completion)
	if sql != completion {
		t.Errorf("expected entire completion, got %q", sql)
	}
}

func TestExtractSQL_EmptyCompletion(t *testing.T) {
	sql, _ := ExtractSQL("   \n  ")
	if sql != "" {
		t.Errorf("expected empty string, got %q", sql)
	}
}

func TestLooksLikeSQL(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"SELECT 1", true},
		{"  with cte as (select 1) select * from cte", true},
		{"DELETE FROM t", true},
		{"I cannot answer that question.", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := LooksLikeSQL(tt.text); got != tt.want {
			t.Errorf("LooksLikeSQL(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
