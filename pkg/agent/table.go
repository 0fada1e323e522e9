package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/llm"
	"github.com/askdb-io/askdb-engine/pkg/models"
)

const tableSystemMessage = "You suggest table configurations for query results. Respond with JSON only, or the word null."

const tablePromptTemplate = `Decide whether the following query result suits a table rendering. If
it does, respond with a JSON object:
{"rows": [...], "columns": [{"key": ..., "header": ..., "numeric": bool}], "footer": {...}}
The footer is an optional aggregate row. If the data does not suit a table,
respond with exactly: null

Question: %s
Answer: %s
Data: %s`

// SuggestTable asks the model for a table-shaped rendering of the answer.
// Missing column definitions are derived from the first row; returns nil
// when the model declines or produced no rows.
func SuggestTable(ctx context.Context, client llm.Client, question, answer, data string, logger *zap.Logger) *models.TableSuggestion {
	prompt := fmt.Sprintf(tablePromptTemplate, question, answer, data)

	response, err := client.Complete(ctx, prompt, tableSystemMessage, suggestionTemperature)
	if err != nil {
		logger.Warn("table suggestion failed", zap.Error(err))
		return nil
	}
	if IsDeclined(response) {
		return nil
	}

	suggestion, err := llm.ParseJSONResponse[models.TableSuggestion](response)
	if err != nil {
		logger.Debug("unparseable table config", zap.Error(err))
		return nil
	}
	if len(suggestion.Rows) == 0 {
		return nil
	}

	if len(suggestion.Columns) == 0 {
		suggestion.Columns = DeriveColumns(suggestion.Rows[0])
	}
	for i := range suggestion.Columns {
		if suggestion.Columns[i].Color == "" {
			suggestion.Columns[i].Color = chartPalette[i%len(chartPalette)]
		}
	}
	return &suggestion
}

// DeriveColumns builds column definitions from a row's keys: humanized
// headers and numeric detection for right-alignment.
func DeriveColumns(row map[string]any) []models.TableColumn {
	columns := make([]models.TableColumn, 0, len(row))
	for _, key := range sortedKeys(row) {
		columns = append(columns, models.TableColumn{
			Key:     key,
			Header:  HumanizeKey(key),
			Numeric: isNumericValue(row[key]),
		})
	}
	return columns
}

// HumanizeKey turns snake_case or camelCase keys into title-cased headers.
func HumanizeKey(key string) string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	for _, r := range key {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case r >= 'A' && r <= 'Z':
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()

	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func isNumericValue(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, json.Number:
		return true
	}
	return false
}
