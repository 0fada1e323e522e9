package mssql

import (
	"context"
	"fmt"

	"github.com/askdb-io/askdb-engine/pkg/models"
)

// schemaQuery inventories the dbo schema. COLUMNPROPERTY exposes the
// IsIdentity flag SQL Server uses for auto-numbering.
const schemaQuery = `
	SELECT TABLE_NAME,
	       COLUMN_NAME,
	       DATA_TYPE,
	       CASE WHEN IS_NULLABLE = 'YES' THEN 1 ELSE 0 END,
	       ISNULL(COLUMNPROPERTY(OBJECT_ID(TABLE_SCHEMA + '.' + TABLE_NAME), COLUMN_NAME, 'IsIdentity'), 0)
	FROM INFORMATION_SCHEMA.COLUMNS
	WHERE TABLE_SCHEMA = 'dbo'
	ORDER BY TABLE_NAME, ORDINAL_POSITION`

func (m *Manager) fetchSchema(ctx context.Context) ([]models.SchemaColumn, error) {
	rows, err := m.db.QueryContext(ctx, schemaQuery)
	if err != nil {
		return nil, fmt.Errorf("introspect schema: %w", err)
	}
	defer rows.Close()

	var columns []models.SchemaColumn
	for rows.Next() {
		var col models.SchemaColumn
		if err := rows.Scan(&col.TableName, &col.ColumnName, &col.DataType, &col.IsNullable, &col.IsIdentity); err != nil {
			return nil, fmt.Errorf("scan schema row: %w", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schema rows: %w", err)
	}
	return columns, nil
}
