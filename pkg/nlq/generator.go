// Package nlq translates natural-language questions into dialect-correct SQL
// and drives the bounded question-answering loop around it.
package nlq

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/apperrors"
	"github.com/askdb-io/askdb-engine/pkg/llm"
	"github.com/askdb-io/askdb-engine/pkg/models"
	"github.com/askdb-io/askdb-engine/pkg/schema"
)

// generationTemperature keeps SQL output close to deterministic.
const generationTemperature = 0.1

const generatorSystemMessage = "You are a careful data analyst who writes correct, efficient SQL."

// visualizationGuidance steers generated queries toward chart-friendly
// result shapes.
const visualizationGuidance = `When selecting columns, prefer result shapes that chart well:
include a date, category, or other grouping column plus at least one numeric
metric column. Always include a human-readable name column alongside any
identifier column.`

// syntaxGuidance holds the per-dialect idioms the model must use.
var syntaxGuidance = map[models.Dialect]string{
	models.DialectPostgres: `Write PostgreSQL syntax. Use LIMIT for pagination, || for string
concatenation, and TO_CHAR for date formatting. Quote identifiers with
double quotes only when necessary.`,
	models.DialectMySQL: `Write MySQL syntax. Use LIMIT for pagination, CONCAT() for string
concatenation, and DATE_FORMAT for date formatting. Quote identifiers with
backticks only when necessary.`,
	models.DialectSQLServer: `Write T-SQL for SQL Server. Use TOP for row limiting, + for string
concatenation, and FORMAT for date formatting. Quote identifiers with
square brackets only when necessary.`,
}

// genericSchemaGuidance replaces the schema block when no snapshot exists.
const genericSchemaGuidance = `No schema information is available for this database. Assume a
conventional relational layout: plural snake_case table names, an id primary
key per table, and foreign keys named <table>_id. Prefer common business
tables such as customers, orders, invoices, and products when the question
implies them.`

// Generation is one generated statement plus the model's surrounding prose,
// when it produced any.
type Generation struct {
	SQL         string
	Explanation string
}

// Generator produces SQL for one dialect and one resolved connection.
type Generator struct {
	dialect      models.Dialect
	client       llm.Client
	schemas      *schema.Provider
	connectionID uuid.UUID
	customPrompt string
	logger       *zap.Logger
}

// GeneratorConfig holds dependencies for creating a Generator.
type GeneratorConfig struct {
	Dialect      models.Dialect
	Client       llm.Client
	Schemas      *schema.Provider
	ConnectionID uuid.UUID
	CustomPrompt string
	Logger       *zap.Logger
}

// NewGenerator creates a generator bound to one connection.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	return &Generator{
		dialect:      cfg.Dialect,
		client:       cfg.Client,
		schemas:      cfg.Schemas,
		connectionID: cfg.ConnectionID,
		customPrompt: cfg.CustomPrompt,
		logger:       cfg.Logger.Named("generator"),
	}
}

// GenerateQuery translates the question into SQL. errorContext carries the
// previous attempt's failure when this is a retry. The MySQL variant falls
// back to canned templates when the model call itself fails; other dialects
// surface the error.
func (g *Generator) GenerateQuery(ctx context.Context, question, errorContext string) (*Generation, error) {
	prompt := g.buildPrompt(ctx, question, errorContext)

	completion, err := g.client.Complete(ctx, prompt, generatorSystemMessage, generationTemperature)
	if err != nil {
		if g.dialect == models.DialectMySQL {
			if canned, ok := FallbackQuery(question); ok {
				g.logger.Warn("model unavailable, using canned query",
					zap.Error(err))
				return &Generation{SQL: canned}, nil
			}
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrGenerationFailed, err)
	}

	sql, explanation := ExtractSQL(completion)
	if sql == "" {
		return nil, fmt.Errorf("%w: empty completion", apperrors.ErrGenerationFailed)
	}
	if !LooksLikeSQL(sql) {
		g.logger.Debug("completion has no SQL keyword, passing through",
			zap.Int("len", len(sql)))
	}

	return &Generation{SQL: sql, Explanation: explanation}, nil
}

// buildPrompt assembles the generation prompt. Block order is fixed: role,
// visualization guidance, dialect syntax, retry context, schema, custom
// instructions, question.
func (g *Generator) buildPrompt(ctx context.Context, question, errorContext string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a SQL expert for %s.\n\n", dialectDisplayName(g.dialect))
	b.WriteString(visualizationGuidance)
	b.WriteString("\n\n")
	b.WriteString(syntaxGuidance[g.dialect])
	b.WriteString("\n\n")

	if errorContext != "" {
		fmt.Fprintf(&b, "The previous attempt failed: %s\nAvoid repeating that mistake.\n\n", errorContext)
	}

	if columns := g.schemas.GetSchema(ctx, g.connectionID); len(columns) > 0 {
		b.WriteString("Database schema:\n")
		b.WriteString(renderSchema(columns))
	} else {
		b.WriteString(genericSchemaGuidance)
	}
	b.WriteString("\n\n")

	if g.customPrompt != "" {
		b.WriteString(g.customPrompt)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Question: %s\nRespond with a single SQL statement in a fenced code block.", question)
	return b.String()
}

// renderSchema serializes a snapshot as one line per column, grouped by
// table in snapshot order.
func renderSchema(columns []models.SchemaColumn) string {
	var b strings.Builder
	lastTable := ""
	for _, col := range columns {
		if col.TableName != lastTable {
			fmt.Fprintf(&b, "TABLE %s\n", col.TableName)
			lastTable = col.TableName
		}
		fmt.Fprintf(&b, "  %s %s", col.ColumnName, col.DataType)
		if !col.IsNullable {
			b.WriteString(" NOT NULL")
		}
		if col.IsIdentity {
			b.WriteString(" IDENTITY")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func dialectDisplayName(d models.Dialect) string {
	switch d {
	case models.DialectMySQL:
		return "MySQL"
	case models.DialectSQLServer:
		return "Microsoft SQL Server"
	default:
		return "PostgreSQL"
	}
}
