// Package agent orchestrates one question's journey: dialect selection, the
// tool-calling loop, and the answer, chart, and table post-processing.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/dialect"
	"github.com/askdb-io/askdb-engine/pkg/dialect/mssql"
	"github.com/askdb-io/askdb-engine/pkg/dialect/mysql"
	"github.com/askdb-io/askdb-engine/pkg/dialect/postgres"
	"github.com/askdb-io/askdb-engine/pkg/llm"
	"github.com/askdb-io/askdb-engine/pkg/models"
	"github.com/askdb-io/askdb-engine/pkg/nlq"
	"github.com/askdb-io/askdb-engine/pkg/schema"
	"github.com/askdb-io/askdb-engine/pkg/stores"
)

// maxAgentIterations bounds tool-invocation rounds per question.
const maxAgentIterations = 3

const queryDatabaseTool = "query_database"

const agentSystemMessage = `You are a data analyst assistant. Answer the user's question about
their data. Use the query_database tool to fetch the numbers; never invent
values. Answer concisely in plain language.`

const composePromptTemplate = `Answer the question concisely using only the query result below.

Question: %s
Query result: %s`

const answerFailureMessage = "I ran into a problem answering that question. Please try again."

// Orchestrator holds the long-lived collaborators. Per-request state (the
// connection manager, tool, and agent loop) is built fresh inside
// HandleQuestion so nothing leaks between requests.
type Orchestrator struct {
	connections stores.ConnectionStore
	snapshots   stores.SchemaStore
	chats       stores.ChatStore
	schemas     *schema.Provider
	client      llm.Client
	openAI      *openai.Client
	model       string
	pool        dialect.PoolConfig
	local       bool
	logger      *zap.Logger
}

// Config holds dependencies for creating an Orchestrator. OpenAI may be nil
// for providers without function calling; the agent then runs the tool
// directly and composes the answer with a plain completion.
type Config struct {
	Connections stores.ConnectionStore
	Snapshots   stores.SchemaStore
	Chats       stores.ChatStore
	Schemas     *schema.Provider
	Client      llm.Client
	OpenAI      *openai.Client
	Model       string
	Pool        dialect.PoolConfig
	Local       bool
	Logger      *zap.Logger
}

// New creates an Orchestrator.
func New(cfg *Config) *Orchestrator {
	return &Orchestrator{
		connections: cfg.Connections,
		snapshots:   cfg.Snapshots,
		chats:       cfg.Chats,
		schemas:     cfg.Schemas,
		client:      cfg.Client,
		openAI:      cfg.OpenAI,
		model:       cfg.Model,
		pool:        cfg.Pool,
		local:       cfg.Local,
		logger:      cfg.Logger.Named("agent"),
	}
}

// Request is one question. ChatID and ConnectionID may be uuid.Nil.
type Request struct {
	Question     string
	UserID       uuid.UUID
	ChatID       uuid.UUID
	ConnectionID uuid.UUID
	Context      string
}

// Response is the fully post-processed result of one question.
type Response struct {
	Answer        string                  `json:"answer"`
	Visualization *models.GraphSuggestion `json:"visualization,omitempty"`
	TableData     *models.TableSuggestion `json:"tableData,omitempty"`
	SQLQuery      string                  `json:"sqlQuery,omitempty"`
}

// HandleQuestion answers one question end to end: tool loop, answer
// truncation, SQL extraction, then the two independent suggestion calls.
func (o *Orchestrator) HandleQuestion(ctx context.Context, req *Request) (*Response, error) {
	d := o.resolveDialect(ctx, req)

	manager := o.newManager(d)
	defer func() {
		if err := manager.Close(); err != nil {
			o.logger.Debug("manager close failed", zap.Error(err))
		}
	}()

	tool := nlq.NewTool(&nlq.ToolConfig{
		Dialect:      d,
		Manager:      manager,
		Client:       o.client,
		Schemas:      o.schemas,
		Connections:  o.connections,
		UserID:       req.UserID,
		ChatID:       req.ChatID,
		ConnectionID: req.ConnectionID,
		Logger:       o.logger,
	})

	rawAnswer, steps, err := o.runAgent(ctx, tool, req.Question)
	if err != nil {
		o.logger.Warn("agent run failed", zap.Error(err))
		return &Response{Answer: answerFailureMessage}, nil
	}

	answer := TruncateAnswer(rawAnswer)
	sqlQuery, lastObservation := extractSQLQuery(steps)

	resp := &Response{Answer: answer, SQLQuery: sqlQuery}
	resp.Visualization = SuggestGraph(ctx, o.client, req.Question, answer, lastObservation, o.logger)
	resp.TableData = SuggestTable(ctx, o.client, req.Question, answer, lastObservation, o.logger)
	return resp, nil
}

// resolveDialect looks up the connection's dialect tag, defaulting to
// postgres on any lookup failure.
func (o *Orchestrator) resolveDialect(ctx context.Context, req *Request) models.Dialect {
	connID := req.ConnectionID
	if connID == uuid.Nil && req.ChatID != uuid.Nil {
		if id, err := o.chats.ConnectionForChat(ctx, req.UserID, req.ChatID); err == nil {
			connID = id
		}
	}
	if connID == uuid.Nil {
		return models.DialectPostgres
	}

	conn, err := o.connections.GetByID(ctx, req.UserID, connID)
	if err != nil {
		o.logger.Debug("dialect lookup failed, defaulting to postgres",
			zap.String("connection_id", connID.String()),
			zap.Error(err))
		return models.DialectPostgres
	}
	return conn.Dialect
}

func (o *Orchestrator) newManager(d models.Dialect) dialect.Manager {
	deps := dialect.Deps{
		Connections: o.connections,
		Snapshots:   o.snapshots,
		Chats:       o.chats,
		Pool:        o.pool,
		Local:       o.local,
		Logger:      o.logger,
	}
	switch d {
	case models.DialectMySQL:
		return mysql.NewManager(deps)
	case models.DialectSQLServer:
		return mssql.NewManager(deps)
	default:
		return postgres.NewManager(deps)
	}
}

// runAgent produces the raw answer and the tool steps taken along the way.
func (o *Orchestrator) runAgent(ctx context.Context, tool *nlq.Tool, question string) (string, []llm.ToolStep, error) {
	executor := &queryToolExecutor{tool: tool}

	if o.openAI != nil {
		chat := llm.NewToolChat(&llm.ToolChatConfig{
			Client:        o.openAI,
			Model:         o.model,
			Tools:         agentTools(),
			Executor:      executor,
			MaxIterations: maxAgentIterations,
			Logger:        o.logger,
		})
		answer, err := chat.Run(ctx, agentSystemMessage, question)
		return answer, chat.Steps, err
	}

	observation, err := tool.Execute(ctx, question)
	if err != nil {
		return "", nil, err
	}
	steps := []llm.ToolStep{{
		ToolName:    queryDatabaseTool,
		Arguments:   fmt.Sprintf(`{"question": %q}`, question),
		Observation: observation,
	}}

	answer, err := o.client.Complete(ctx, fmt.Sprintf(composePromptTemplate, question, observation), agentSystemMessage, 0.3)
	if err != nil {
		return "", steps, err
	}
	return answer, steps, nil
}

// extractSQLQuery scans tool observations for the last parseable sqlQuery
// payload. Also returns the last query observation for suggestion context.
func extractSQLQuery(steps []llm.ToolStep) (sqlQuery, lastObservation string) {
	for _, step := range steps {
		if step.ToolName != queryDatabaseTool {
			continue
		}
		lastObservation = step.Observation

		var payload struct {
			SQLQuery string `json:"sqlQuery"`
		}
		if err := json.Unmarshal([]byte(step.Observation), &payload); err == nil && payload.SQLQuery != "" {
			sqlQuery = payload.SQLQuery
		}
	}
	return sqlQuery, lastObservation
}

func agentTools() []openai.Tool {
	return []openai.Tool{{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        queryDatabaseTool,
			Description: "Run a natural-language question against the user's database and return matching rows as JSON.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"question": {"type": "string", "description": "The question to answer with a database query"}
				},
				"required": ["question"]
			}`),
		},
	}}
}

// queryToolExecutor adapts the NLQ tool to the agent loop's executor shape.
type queryToolExecutor struct {
	tool *nlq.Tool
}

func (e *queryToolExecutor) ExecuteTool(ctx context.Context, name string, arguments string) (string, error) {
	if name != queryDatabaseTool {
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	var args struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if args.Question == "" {
		return "", fmt.Errorf("question is required")
	}
	return e.tool.Execute(ctx, args.Question)
}

var _ llm.ToolExecutor = (*queryToolExecutor)(nil)
