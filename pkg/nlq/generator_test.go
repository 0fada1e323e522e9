package nlq

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/apperrors"
	"github.com/askdb-io/askdb-engine/pkg/llm"
	"github.com/askdb-io/askdb-engine/pkg/models"
	"github.com/askdb-io/askdb-engine/pkg/schema"
)

type fakeSchemaStore struct {
	snapshot *models.SchemaSnapshot
	err      error
}

func (f *fakeSchemaStore) Get(ctx context.Context, connectionID uuid.UUID) (*models.SchemaSnapshot, error) {
	return f.snapshot, f.err
}

func (f *fakeSchemaStore) Replace(ctx context.Context, connectionID uuid.UUID, columns []models.SchemaColumn) error {
	return nil
}

func newTestGenerator(d models.Dialect, client llm.Client, store *fakeSchemaStore, customPrompt string) *Generator {
	logger := zap.NewNop()
	return NewGenerator(&GeneratorConfig{
		Dialect:      d,
		Client:       client,
		Schemas:      schema.NewProvider(store, logger),
		ConnectionID: uuid.New(),
		CustomPrompt: customPrompt,
		Logger:       logger,
	})
}

func TestGenerateQuery_PromptBlockOrder(t *testing.T) {
	store := &fakeSchemaStore{snapshot: &models.SchemaSnapshot{
		Columns: []models.SchemaColumn{
			{TableName: "orders", ColumnName: "id", DataType: "integer", IsIdentity: true},
			{TableName: "orders", ColumnName: "total", DataType: "numeric"},
		},
	}}
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temp float64) (string, error) {
		return "```sql\nSELECT 1\n```", nil
	}
	gen := newTestGenerator(models.DialectPostgres, mock, store, "Always exclude test accounts.")

	if _, err := gen.GenerateQuery(context.Background(), "total sales", "previous query timed out"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := mock.SeenPrompts[0]
	ordered := []string{
		"SQL expert for PostgreSQL",
		"chart well",
		"TO_CHAR",
		"previous query timed out",
		"TABLE orders",
		"Always exclude test accounts.",
		"Question: total sales",
	}
	last := -1
	for _, fragment := range ordered {
		idx := strings.Index(prompt, fragment)
		if idx < 0 {
			t.Fatalf("prompt missing %q:\n%s", fragment, prompt)
		}
		if idx < last {
			t.Errorf("prompt block %q out of order", fragment)
		}
		last = idx
	}
}

func TestGenerateQuery_GenericGuidanceWithoutSnapshot(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temp float64) (string, error) {
		return "SELECT 1", nil
	}
	gen := newTestGenerator(models.DialectMySQL, mock, &fakeSchemaStore{}, "")

	if _, err := gen.GenerateQuery(context.Background(), "anything", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(mock.SeenPrompts[0], "No schema information is available") {
		t.Error("expected generic schema guidance when no snapshot exists")
	}
}

func TestGenerateQuery_EmptyCompletionFails(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temp float64) (string, error) {
		return "   ", nil
	}
	gen := newTestGenerator(models.DialectPostgres, mock, &fakeSchemaStore{}, "")

	_, err := gen.GenerateQuery(context.Background(), "anything", "")
	if !errors.Is(err, apperrors.ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestGenerateQuery_MySQLFallbackOnModelError(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temp float64) (string, error) {
		return "", errors.New("model unavailable")
	}
	gen := newTestGenerator(models.DialectMySQL, mock, &fakeSchemaStore{}, "")

	result, err := gen.GenerateQuery(context.Background(), "top 5 customers by revenue", "")
	if err != nil {
		t.Fatalf("expected canned fallback, got error: %v", err)
	}
	if !strings.Contains(result.SQL, "JOIN customers") {
		t.Errorf("expected canned top-customers query, got:\n%s", result.SQL)
	}
}

func TestGenerateQuery_MySQLNoFallbackMatchSurfacesError(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temp float64) (string, error) {
		return "", errors.New("model unavailable")
	}
	gen := newTestGenerator(models.DialectMySQL, mock, &fakeSchemaStore{}, "")

	_, err := gen.GenerateQuery(context.Background(), "how many widgets exist", "")
	if !errors.Is(err, apperrors.ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestGenerateQuery_PostgresModelErrorSurfaces(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temp float64) (string, error) {
		return "", errors.New("model unavailable")
	}
	gen := newTestGenerator(models.DialectPostgres, mock, &fakeSchemaStore{}, "")

	// The canned fallback is MySQL-only; other dialects surface the error
	// even for a matching phrase.
	_, err := gen.GenerateQuery(context.Background(), "top 5 customers by revenue", "")
	if !errors.Is(err, apperrors.ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed, got %v", err)
	}
}
