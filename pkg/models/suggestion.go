package models

// ChartType enumerates the chart shapes the UI can render.
type ChartType string

const (
	ChartLine   ChartType = "line"
	ChartBar    ChartType = "bar"
	ChartArea   ChartType = "area"
	ChartPie    ChartType = "pie"
	ChartRadial ChartType = "radial"
)

// ValidChartType reports whether s names a renderable chart shape.
func ValidChartType(s string) bool {
	switch ChartType(s) {
	case ChartLine, ChartBar, ChartArea, ChartPie, ChartRadial:
		return true
	}
	return false
}

// PieEntry is the per-key config for pie charts: a display label plus the
// slice color in indexed-HSL form.
type PieEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// GraphSuggestion is a model-derived, repaired chart configuration.
// XKey/YKeys/Colors apply to cartesian charts; Pie applies to pie/radial.
type GraphSuggestion struct {
	Type   ChartType           `json:"type"`
	Data   []map[string]any    `json:"data"`
	XKey   string              `json:"xKey,omitempty"`
	YKeys  []string            `json:"yKeys,omitempty"`
	Colors map[string]string   `json:"colors,omitempty"`
	Pie    map[string]PieEntry `json:"pieConfig,omitempty"`
}

// TableColumn describes one rendered table column.
type TableColumn struct {
	Key     string `json:"key"`
	Header  string `json:"header"`
	Numeric bool   `json:"numeric,omitempty"`
	Color   string `json:"color,omitempty"`
}

// TableSuggestion is a model-derived table rendering of an answer.
type TableSuggestion struct {
	Rows    []map[string]any `json:"rows"`
	Columns []TableColumn    `json:"columns"`
	Footer  map[string]any   `json:"footer,omitempty"`
}
