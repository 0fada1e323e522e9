package nlq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/apperrors"
	"github.com/askdb-io/askdb-engine/pkg/dialect"
	"github.com/askdb-io/askdb-engine/pkg/llm"
	"github.com/askdb-io/askdb-engine/pkg/models"
	"github.com/askdb-io/askdb-engine/pkg/schema"
	"github.com/askdb-io/askdb-engine/pkg/stores"
)

// MaxRetries bounds retry rounds after the first attempt, so a question gets
// at most MaxRetries+1 generation attempts.
const MaxRetries = 2

// Terminal user-facing messages. Raw errors never cross this boundary.
const (
	MsgNoConnection = "I could not find a database connection for this chat. Please select a connection and try again."
	MsgConnectFail  = "I could not connect to the database. Please check the connection settings and try again."
	MsgGenerateFail = "I was unable to translate that question into a query. Please try rephrasing it."
	MsgExecuteFail  = "The generated query could not be executed. Please try rephrasing the question or check the connection."
	MsgNoResults    = "The query ran successfully but returned no results. Try rephrasing the question."
)

// Tool answers one question against one dialect's database. It owns the
// bounded retry loop around generation and execution.
type Tool struct {
	dialect      models.Dialect
	manager      dialect.Manager
	client       llm.Client
	schemas      *schema.Provider
	connections  stores.ConnectionStore
	userID       uuid.UUID
	chatID       uuid.UUID
	connectionID uuid.UUID
	logger       *zap.Logger
}

// ToolConfig holds dependencies for creating a Tool. ChatID and
// ConnectionID may each be uuid.Nil; a pinned ConnectionID wins over the
// chat lookup.
type ToolConfig struct {
	Dialect      models.Dialect
	Manager      dialect.Manager
	Client       llm.Client
	Schemas      *schema.Provider
	Connections  stores.ConnectionStore
	UserID       uuid.UUID
	ChatID       uuid.UUID
	ConnectionID uuid.UUID
	Logger       *zap.Logger
}

// NewTool creates a question-answering tool for one request.
func NewTool(cfg *ToolConfig) *Tool {
	return &Tool{
		dialect:      cfg.Dialect,
		manager:      cfg.Manager,
		client:       cfg.Client,
		schemas:      cfg.Schemas,
		connections:  cfg.Connections,
		userID:       cfg.UserID,
		chatID:       cfg.ChatID,
		connectionID: cfg.ConnectionID,
		logger:       cfg.Logger.Named("tool"),
	}
}

// Execute resolves the connection, then loops generate-execute-evaluate with
// bounded retries. Rephrasing happens only after a generation failure;
// execution failures and empty results retry with the original wording.
func (t *Tool) Execute(ctx context.Context, input string) (string, error) {
	connID := t.connectionID
	if connID == uuid.Nil && t.chatID != uuid.Nil {
		id, err := t.manager.ConnectionForChat(ctx, t.userID, t.chatID)
		if err != nil {
			t.logger.Warn("chat connection lookup failed", zap.Error(err))
		}
		connID = id
	}
	if connID == uuid.Nil {
		t.logger.Info("question declined",
			zap.String("chat_id", t.chatID.String()),
			zap.Error(apperrors.ErrNoConnection))
		return MsgNoConnection, nil
	}

	if err := t.manager.Initialize(ctx, t.userID, connID); err != nil {
		t.logger.Warn("connection initialization failed",
			zap.String("connection_id", connID.String()),
			zap.Error(err))
		return MsgConnectFail, nil
	}

	customPrompt := ""
	if conn, err := t.connections.GetByID(ctx, t.userID, connID); err == nil {
		customPrompt = conn.CustomPrompt
	}

	generator := NewGenerator(&GeneratorConfig{
		Dialect:      t.dialect,
		Client:       t.client,
		Schemas:      t.schemas,
		ConnectionID: connID,
		CustomPrompt: customPrompt,
		Logger:       t.logger,
	})

	currentInput := input
	errorContext := ""

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		gen, err := generator.GenerateQuery(ctx, currentInput, errorContext)
		if err != nil {
			if attempt < MaxRetries {
				// A failed generation likely means the question was unclear.
				currentInput = "get information about " + input
				errorContext = err.Error()
				continue
			}
			return MsgGenerateFail, nil
		}

		result, err := t.manager.ExecuteQuery(ctx, gen.SQL)
		if err != nil {
			if attempt < MaxRetries {
				currentInput = input
				errorContext = err.Error()
				continue
			}
			return MsgExecuteFail, nil
		}

		if result.RowCount == 0 {
			if attempt < MaxRetries {
				currentInput = input
				errorContext = "the previous query returned no rows"
				continue
			}
			return MsgNoResults, nil
		}

		return t.serialize(gen, result)
	}

	return MsgNoResults, nil
}

// serialize renders a successful result as JSON for the agent. Postgres and
// SQL Server embed the generated SQL; SQL Server also carries the model's
// explanation when it produced one.
func (t *Tool) serialize(gen *Generation, result *models.QueryResult) (string, error) {
	payload := map[string]any{
		"rows":     result.Rows,
		"rowCount": result.RowCount,
	}
	if t.dialect == models.DialectPostgres || t.dialect == models.DialectSQLServer {
		payload["sqlQuery"] = gen.SQL
	}
	if t.dialect == models.DialectSQLServer && gen.Explanation != "" {
		payload["explanation"] = gen.Explanation
	}

	out, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(out), nil
}
