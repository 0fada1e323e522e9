package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/llm"
	"github.com/askdb-io/askdb-engine/pkg/models"
)

const suggestionTemperature = 0.2

// chartPalette is the fixed indexed-HSL palette the UI theme exposes.
// Colors are assigned round-robin when the model omits them.
var chartPalette = [5]string{
	"hsl(var(--chart-1))",
	"hsl(var(--chart-2))",
	"hsl(var(--chart-3))",
	"hsl(var(--chart-4))",
	"hsl(var(--chart-5))",
}

var (
	indexedHSLPattern = regexp.MustCompile(`^hsl\(var\(--chart-[1-5]\)\)$`)
	chartIndexPattern = regexp.MustCompile(`chart-([1-5])`)
)

const graphSystemMessage = "You suggest chart configurations for query results. Respond with JSON only, or the word null."

const graphPromptTemplate = `Decide whether the following query result suits a chart. If it does,
respond with a JSON object:
{"type": "line"|"bar"|"area"|"pie"|"radial", "data": [...], "xKey": "...", "yKeys": [...], "colors": {"series": "hsl(var(--chart-1))"}}
For pie and radial charts include "pieConfig" mapping each slice key to
{"label": ..., "color": ...}. Use only hsl(var(--chart-1)) through
hsl(var(--chart-5)) as colors. If the data is not suitable for any chart,
respond with exactly: null

Question: %s
Answer: %s
Data: %s`

// rawGraph tolerates the shapes models actually emit, including pie configs
// as flat key-to-color maps.
type rawGraph struct {
	Type   string            `json:"type"`
	Data   []map[string]any  `json:"data"`
	XKey   string            `json:"xKey"`
	YKeys  []string          `json:"yKeys"`
	Colors map[string]string `json:"colors"`
	Pie    json.RawMessage   `json:"pieConfig"`
}

// SuggestGraph asks the model to classify the answer into a chart shape and
// repairs the two known defect classes in its output. Returns nil when the
// model declines or the config is structurally unusable.
func SuggestGraph(ctx context.Context, client llm.Client, question, answer, data string, logger *zap.Logger) *models.GraphSuggestion {
	prompt := fmt.Sprintf(graphPromptTemplate, question, answer, data)

	response, err := client.Complete(ctx, prompt, graphSystemMessage, suggestionTemperature)
	if err != nil {
		logger.Warn("visualization suggestion failed", zap.Error(err))
		return nil
	}
	if IsDeclined(response) {
		return nil
	}

	jsonStr, err := llm.ExtractJSON(response)
	if err != nil {
		logger.Debug("no JSON in visualization response")
		return nil
	}
	var raw rawGraph
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		logger.Debug("unparseable visualization config", zap.Error(err))
		return nil
	}

	if !models.ValidChartType(raw.Type) || len(raw.Data) == 0 {
		return nil
	}

	suggestion := &models.GraphSuggestion{
		Type:  models.ChartType(raw.Type),
		Data:  raw.Data,
		XKey:  raw.XKey,
		YKeys: raw.YKeys,
	}

	if suggestion.Type == models.ChartPie || suggestion.Type == models.ChartRadial {
		suggestion.Pie = repairPie(raw.Pie, raw.Colors, pieKeys(raw))
		if len(suggestion.Pie) == 0 {
			return nil
		}
		return suggestion
	}

	if raw.XKey == "" || len(raw.YKeys) == 0 {
		return nil
	}
	suggestion.Colors = repairColors(raw.Colors, raw.YKeys)
	return suggestion
}

// repairColors rewrites incompatible color values into indexed-HSL form and
// fills in missing series colors round-robin from the palette.
func repairColors(colors map[string]string, yKeys []string) map[string]string {
	repaired := make(map[string]string, len(yKeys))
	for i, key := range yKeys {
		repaired[key] = repairColor(colors[key], i)
	}
	return repaired
}

// repairColor maps one color value into the indexed-HSL format. A value that
// already references a chart index keeps its index; anything else gets the
// fallback palette slot.
func repairColor(color string, fallbackIdx int) string {
	if indexedHSLPattern.MatchString(color) {
		return color
	}
	if m := chartIndexPattern.FindStringSubmatch(color); m != nil {
		return fmt.Sprintf("hsl(var(--chart-%s))", m[1])
	}
	return chartPalette[fallbackIdx%len(chartPalette)]
}

// repairPie restructures a pie config into key-to-{label,color} records.
// The model may emit the proper record shape, a flat key-to-color map under
// pieConfig or colors, or nothing at all; every original key is preserved.
func repairPie(rawPie json.RawMessage, colors map[string]string, dataKeys []string) map[string]models.PieEntry {
	if len(rawPie) > 0 {
		var structured map[string]models.PieEntry
		if err := json.Unmarshal(rawPie, &structured); err == nil && len(structured) > 0 {
			return normalizePieEntries(structured)
		}
		var flat map[string]string
		if err := json.Unmarshal(rawPie, &flat); err == nil && len(flat) > 0 {
			return pieFromFlatMap(flat)
		}
	}
	if len(colors) > 0 {
		return pieFromFlatMap(colors)
	}

	// No config at all: derive slices from the data and assign the palette.
	entries := make(map[string]models.PieEntry, len(dataKeys))
	for i, key := range dataKeys {
		entries[key] = models.PieEntry{Label: key, Color: chartPalette[i%len(chartPalette)]}
	}
	return entries
}

func normalizePieEntries(entries map[string]models.PieEntry) map[string]models.PieEntry {
	keys := sortedKeys(entries)
	out := make(map[string]models.PieEntry, len(entries))
	for i, key := range keys {
		entry := entries[key]
		if entry.Label == "" {
			entry.Label = key
		}
		entry.Color = repairColor(entry.Color, i)
		out[key] = entry
	}
	return out
}

func pieFromFlatMap(flat map[string]string) map[string]models.PieEntry {
	keys := sortedKeys(flat)
	out := make(map[string]models.PieEntry, len(flat))
	for i, key := range keys {
		out[key] = models.PieEntry{Label: key, Color: repairColor(flat[key], i)}
	}
	return out
}

// pieKeys collects slice identities from the data rows: the xKey value when
// present, else the first string-valued field of each row.
func pieKeys(raw rawGraph) []string {
	var keys []string
	for _, row := range raw.Data {
		if raw.XKey != "" {
			if s, ok := row[raw.XKey].(string); ok {
				keys = append(keys, s)
				continue
			}
		}
		for _, field := range sortedKeys(row) {
			if s, ok := row[field].(string); ok {
				keys = append(keys, s)
				break
			}
		}
	}
	return keys
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
