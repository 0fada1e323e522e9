package nlq

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/llm"
	"github.com/askdb-io/askdb-engine/pkg/models"
	"github.com/askdb-io/askdb-engine/pkg/schema"
)

type fakeManager struct {
	initErr     error
	initCalls   int
	chatConn    uuid.UUID
	execResult  *models.QueryResult
	execErr     error
	execCalls   int
	executedSQL []string
	closed      bool
}

func (f *fakeManager) Initialize(ctx context.Context, userID, connectionID uuid.UUID) error {
	f.initCalls++
	return f.initErr
}

func (f *fakeManager) ExecuteQuery(ctx context.Context, sqlQuery string, params ...any) (*models.QueryResult, error) {
	f.execCalls++
	f.executedSQL = append(f.executedSQL, sqlQuery)
	if f.execErr != nil {
		return nil, f.execErr
	}
	if f.execResult != nil {
		return f.execResult, nil
	}
	return models.EmptyResult(), nil
}

func (f *fakeManager) ConnectionForChat(ctx context.Context, userID, chatID uuid.UUID) (uuid.UUID, error) {
	return f.chatConn, nil
}

func (f *fakeManager) Close() error {
	f.closed = true
	return nil
}

type fakeConnectionStore struct {
	conn *models.Connection
	err  error
}

func (f *fakeConnectionStore) GetByID(ctx context.Context, userID, connectionID uuid.UUID) (*models.Connection, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.conn, nil
}

func (f *fakeConnectionStore) Create(ctx context.Context, conn *models.Connection) error {
	return nil
}

func newTestTool(d models.Dialect, manager *fakeManager, client llm.Client, connectionID, chatID uuid.UUID) *Tool {
	logger := zap.NewNop()
	return NewTool(&ToolConfig{
		Dialect:      d,
		Manager:      manager,
		Client:       client,
		Schemas:      schema.NewProvider(&fakeSchemaStore{}, logger),
		Connections:  &fakeConnectionStore{conn: &models.Connection{Dialect: d}},
		UserID:       uuid.New(),
		ChatID:       chatID,
		ConnectionID: connectionID,
		Logger:       logger,
	})
}

func TestToolExecute_NoConnectionIsTerminal(t *testing.T) {
	manager := &fakeManager{}
	tool := newTestTool(models.DialectPostgres, manager, llm.NewMockClient(), uuid.Nil, uuid.Nil)

	msg, err := tool.Execute(context.Background(), "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != MsgNoConnection {
		t.Errorf("expected no-connection message, got %q", msg)
	}
	if manager.initCalls != 0 {
		t.Error("manager must not be initialized without a connection")
	}
}

func TestToolExecute_ChatLookupPinsConnection(t *testing.T) {
	manager := &fakeManager{
		chatConn:   uuid.New(),
		execResult: &models.QueryResult{Rows: []map[string]any{{"n": 1}}, RowCount: 1},
	}
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temp float64) (string, error) {
		return "SELECT 1", nil
	}
	tool := newTestTool(models.DialectPostgres, manager, mock, uuid.Nil, uuid.New())

	msg, err := tool.Execute(context.Background(), "count things")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if manager.initCalls != 1 {
		t.Errorf("expected one initialize call, got %d", manager.initCalls)
	}
	if !strings.Contains(msg, `"rowCount":1`) {
		t.Errorf("expected serialized result, got %q", msg)
	}
}

func TestToolExecute_InitFailureIsTerminal(t *testing.T) {
	manager := &fakeManager{initErr: errors.New("connection refused")}
	tool := newTestTool(models.DialectPostgres, manager, llm.NewMockClient(), uuid.New(), uuid.Nil)

	msg, err := tool.Execute(context.Background(), "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != MsgConnectFail {
		t.Errorf("expected connect-failure message, got %q", msg)
	}
	if strings.Contains(msg, "connection refused") {
		t.Error("raw error must not cross the tool boundary")
	}
}

func TestToolExecute_GenerationRetryBound(t *testing.T) {
	manager := &fakeManager{}
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temp float64) (string, error) {
		return "", errors.New("model down")
	}
	tool := newTestTool(models.DialectPostgres, manager, mock, uuid.New(), uuid.Nil)

	msg, err := tool.Execute(context.Background(), "total sales")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != MsgGenerateFail {
		t.Errorf("expected generation-failure message, got %q", msg)
	}
	if mock.CompleteCalls != MaxRetries+1 {
		t.Errorf("expected exactly %d generation attempts, got %d", MaxRetries+1, mock.CompleteCalls)
	}
	if manager.execCalls != 0 {
		t.Error("execution must not run when generation never succeeds")
	}
}

func TestToolExecute_RephraseOnlyAfterGenerationFailure(t *testing.T) {
	manager := &fakeManager{}
	calls := 0
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temp float64) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("model hiccup")
		}
		return "SELECT 1", nil
	}
	tool := newTestTool(models.DialectPostgres, manager, mock, uuid.New(), uuid.Nil)

	if _, err := tool.Execute(context.Background(), "total sales"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// First retry follows a generation failure and rephrases; later
	// empty-result retries reuse the original wording.
	if !strings.Contains(mock.SeenPrompts[1], "get information about total sales") {
		t.Error("second attempt should use the rephrased input")
	}
	if len(mock.SeenPrompts) >= 3 && strings.Contains(mock.SeenPrompts[2], "get information about") {
		t.Error("empty-result retries must keep the original wording")
	}
}

func TestToolExecute_EmptyResultExhaustion(t *testing.T) {
	manager := &fakeManager{} // every execution returns an empty result
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, prompt, system string, temp float64) (string, error) {
		return "SELECT 1", nil
	}
	tool := newTestTool(models.DialectPostgres, manager, mock, uuid.New(), uuid.Nil)

	msg, err := tool.Execute(context.Background(), "total sales")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != MsgNoResults {
		t.Errorf("expected no-results message, got %q", msg)
	}
	if manager.execCalls != MaxRetries+1 {
		t.Errorf("expected %d execution attempts, got %d", MaxRetries+1, manager.execCalls)
	}
	for i, prompt := range mock.SeenPrompts {
		if strings.Contains(prompt, "get information about") {
			t.Errorf("attempt %d rephrased after a non-generation failure", i+1)
		}
	}
}

func TestToolExecute_SerializationPerDialect(t *testing.T) {
	result := &models.QueryResult{
		Columns:  []models.ColumnInfo{{Name: "n", Type: "INT4"}},
		Rows:     []map[string]any{{"n": 42}},
		RowCount: 1,
	}
	completion := "The query counts rows.\n```sql\nSELECT count(*) AS n FROM t\n```"

	tests := []struct {
		dialect         models.Dialect
		wantSQL         bool
		wantExplanation bool
	}{
		{models.DialectPostgres, true, false},
		{models.DialectMySQL, false, false},
		{models.DialectSQLServer, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			manager := &fakeManager{execResult: result}
			mock := llm.NewMockClient()
			mock.CompleteFunc = func(ctx context.Context, prompt, system string, temp float64) (string, error) {
				return completion, nil
			}
			tool := newTestTool(tt.dialect, manager, mock, uuid.New(), uuid.Nil)

			msg, err := tool.Execute(context.Background(), "how many rows")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var payload map[string]any
			if err := json.Unmarshal([]byte(msg), &payload); err != nil {
				t.Fatalf("result is not JSON: %v", err)
			}
			if _, ok := payload["sqlQuery"]; ok != tt.wantSQL {
				t.Errorf("sqlQuery present = %v, want %v", ok, tt.wantSQL)
			}
			if _, ok := payload["explanation"]; ok != tt.wantExplanation {
				t.Errorf("explanation present = %v, want %v", ok, tt.wantExplanation)
			}
		})
	}
}
