package llm

import (
	"testing"
)

func TestExtractJSON_PlainObject(t *testing.T) {
	input := `{"name": "test", "value": 123}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_WithThinkTags(t *testing.T) {
	input := `<think>
The user wants a chart config.
</think>
{"type": "bar"}`

	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != `{"type": "bar"}` {
		t.Errorf("expected think tags stripped, got %q", result)
	}
}

func TestExtractJSON_MarkdownCodeBlock(t *testing.T) {
	input := "Here is the config:\n```json\n{\"type\": \"pie\"}\n```"
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != `{"type": "pie"}` {
		t.Errorf("expected inner JSON, got %q", result)
	}
}

func TestExtractJSON_ArrayBeforeObject(t *testing.T) {
	input := `[{"a": 1}] trailing {"b": 2}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != `[{"a": 1}]` {
		t.Errorf("expected first array, got %q", result)
	}
}

func TestExtractJSON_BracesInsideStrings(t *testing.T) {
	input := `{"text": "a { nested } brace"}`
	result, err := ExtractJSON(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestExtractJSON_NoJSON(t *testing.T) {
	if _, err := ExtractJSON("the data is not suitable for a chart"); err == nil {
		t.Error("expected an error for prose without JSON")
	}
}

func TestParseJSONResponse(t *testing.T) {
	type chart struct {
		Type string `json:"type"`
	}
	got, err := ParseJSONResponse[chart]("prefix {\"type\": \"line\"} suffix")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type != "line" {
		t.Errorf("expected line, got %q", got.Type)
	}
}
