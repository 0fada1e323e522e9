package mysql

import (
	"context"
	"fmt"

	"github.com/askdb-io/askdb-engine/pkg/models"
)

// schemaQuery inventories the current database. EXTRA carries
// auto_increment, MySQL's identity mechanism.
const schemaQuery = `
	SELECT TABLE_NAME,
	       COLUMN_NAME,
	       DATA_TYPE,
	       IS_NULLABLE = 'YES',
	       EXTRA LIKE '%auto_increment%'
	FROM information_schema.COLUMNS
	WHERE TABLE_SCHEMA = DATABASE()
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
