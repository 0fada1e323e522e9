package dialect

import (
	"database/sql"
	"fmt"

	"github.com/askdb-io/askdb-engine/pkg/models"
)

// stringTypes lists database/sql type names whose []byte values should be
// presented as strings. MySQL and SQL Server drivers both report text
// columns this way.
var stringTypes = map[string]bool{
	"CHAR": true, "VARCHAR": true, "TEXT": true, "LONGTEXT": true,
	"MEDIUMTEXT": true, "TINYTEXT": true, "NCHAR": true, "NVARCHAR": true,
	"NTEXT": true, "JSON": true, "ENUM": true, "SET": true,
	"DECIMAL": true, "NUMERIC": true, "MONEY": true,
}

// ScanRows normalizes a database/sql result set into a QueryResult.
// Shared by the mysql and mssql executors; the postgres executor reads
// typed values from pgx directly.
func ScanRows(rows *sql.Rows) (*models.QueryResult, error) {
	columnNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("get column types: %w", err)
	}

	columns := make([]models.ColumnInfo, len(columnNames))
	for i, name := range columnNames {
		columns[i] = models.ColumnInfo{
			Name: name,
			Type: columnTypes[i].DatabaseTypeName(),
		}
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columnNames))
		valuePtrs := make([]any, len(columnNames))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		rowMap := make(map[string]any, len(columnNames))
		for i, name := range columnNames {
			val := values[i]
			if b, isBytes := val.([]byte); isBytes && stringTypes[columnTypes[i].DatabaseTypeName()] {
				val = string(b)
			}
			rowMap[name] = val
		}
		resultRows = append(resultRows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return &models.QueryResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}
