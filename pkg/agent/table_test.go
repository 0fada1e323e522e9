package agent

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/llm"
	"github.com/askdb-io/askdb-engine/pkg/models"
)

func suggestTableWith(t *testing.T, response string) *models.TableSuggestion {
	t.Helper()
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temp float64) (string, error) {
		return response, nil
	}
	return SuggestTable(context.Background(), mock, "question", "answer", "data", zap.NewNop())
}

func TestSuggestTable_Declined(t *testing.T) {
	for _, response := range []string{"null", "This cannot be displayed as a table, not suitable."} {
		if got := suggestTableWith(t, response); got != nil {
			t.Errorf("response %q: expected nil, got %+v", response, got)
		}
	}
}

func TestSuggestTable_ModelColumnsKept(t *testing.T) {
	response := `{"rows": [{"name": "Acme", "revenue": 1200}],
		"columns": [{"key": "name", "header": "Customer"}, {"key": "revenue", "header": "Revenue", "numeric": true}],
		"footer": {"revenue": 1200}}`
	got := suggestTableWith(t, response)
	if got == nil {
		t.Fatal("expected a suggestion")
	}
	if len(got.Columns) != 2 || got.Columns[0].Header != "Customer" {
		t.Errorf("model columns altered: %+v", got.Columns)
	}
	for _, col := range got.Columns {
		if col.Color == "" {
			t.Errorf("column %q missing palette color", col.Key)
		}
	}
	if got.Footer["revenue"] == nil {
		t.Error("footer dropped")
	}
}

func TestSuggestTable_DerivesColumnsFromFirstRow(t *testing.T) {
	response := `{"rows": [{"customer_name": "Acme", "total_amount": 99.5}]}`
	got := suggestTableWith(t, response)
	if got == nil {
		t.Fatal("expected a suggestion")
	}
	if len(got.Columns) != 2 {
		t.Fatalf("expected derived columns, got %+v", got.Columns)
	}

	byKey := map[string]models.TableColumn{}
	for _, col := range got.Columns {
		byKey[col.Key] = col
	}
	name := byKey["customer_name"]
	if name.Header != "Customer Name" || name.Numeric {
		t.Errorf("unexpected name column: %+v", name)
	}
	amount := byKey["total_amount"]
	if amount.Header != "Total Amount" || !amount.Numeric {
		t.Errorf("unexpected amount column: %+v", amount)
	}
}

func TestSuggestTable_EmptyRowsIsAbsent(t *testing.T) {
	if got := suggestTableWith(t, `{"rows": [], "columns": []}`); got != nil {
		t.Errorf("expected nil for empty rows, got %+v", got)
	}
}

func TestDeriveColumns_NumericDetection(t *testing.T) {
	cols := DeriveColumns(map[string]any{"count": float64(3), "label": "x"})
	for _, col := range cols {
		switch col.Key {
		case "count":
			if !col.Numeric {
				t.Error("count should be numeric")
			}
		case "label":
			if col.Numeric {
				t.Error("label should not be numeric")
			}
		}
	}
}
