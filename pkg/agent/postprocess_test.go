package agent

import (
	"testing"
)

func TestTruncateAnswer_FirstParagraphOnly(t *testing.T) {
	input := "Revenue grew 12% last quarter.\n\nHere is a much longer breakdown by region that nobody asked for."
	got := TruncateAnswer(input)
	if got != "Revenue grew 12% last quarter." {
		t.Errorf("expected first paragraph only, got %q", got)
	}
}

func TestTruncateAnswer_SentenceCap(t *testing.T) {
	input := "One. Two. Three. Four. Five."
	got := TruncateAnswer(input)
	if got != "One. Two. Three." {
		t.Errorf("expected three sentences, got %q", got)
	}
}

func TestTruncateAnswer_NormalizesEscapes(t *testing.T) {
	input := `Top account is \"Acme\".\n\nMore detail follows here.`
	got := TruncateAnswer(input)
	if got != `Top account is "Acme".` {
		t.Errorf("expected normalized first paragraph, got %q", got)
	}
}

func TestTruncateAnswer_ShortAnswerPassesThrough(t *testing.T) {
	input := "There are 42 active users"
	if got := TruncateAnswer(input); got != input {
		t.Errorf("expected passthrough, got %q", got)
	}
}

func TestIsDeclined(t *testing.T) {
	tests := []struct {
		response string
		want     bool
	}{
		{"null", true},
		{"NULL", true},
		{" Null \n", true},
		{`"null"`, true},
		{"The data is not suitable for a chart.", true},
		{"This result cannot be visualized.", true},
		{"I don't know how to chart this.", true},
		{`{"type": "bar"}`, false},
		{"A nullable column exists.", false},
	}
	for _, tt := range tests {
		if got := IsDeclined(tt.response); got != tt.want {
			t.Errorf("IsDeclined(%q) = %v, want %v", tt.response, got, tt.want)
		}
	}
}

func TestHumanizeKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"customer_name", "Customer Name"},
		{"totalAmount", "Total Amount"},
		{"revenue", "Revenue"},
		{"order-date", "Order Date"},
	}
	for _, tt := range tests {
		if got := HumanizeKey(tt.key); got != tt.want {
			t.Errorf("HumanizeKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
