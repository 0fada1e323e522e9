package models

// ColumnInfo describes a result column with a driver-reported type name.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryResult holds dialect-normalized rows from one query execution.
// Rows map column name to scalar value; column order is preserved in Columns.
type QueryResult struct {
	Columns  []ColumnInfo     `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
}

// EmptyResult returns a result with zero rows. Used by executors when a
// driver-level failure is converted into "no results".
func EmptyResult() *QueryResult {
	return &QueryResult{Columns: []ColumnInfo{}, Rows: []map[string]any{}}
}
