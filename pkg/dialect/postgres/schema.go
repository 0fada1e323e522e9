package postgres

import (
	"context"
	"fmt"

	"github.com/askdb-io/askdb-engine/pkg/models"
)

// schemaQuery inventories user tables in the public schema. Identity
// detection covers both identity columns and serial defaults.
const schemaQuery = `
	SELECT table_name,
	       column_name,
	       data_type,
	       is_nullable = 'YES',
	       (is_identity = 'YES' OR COALESCE(column_default, '') LIKE 'nextval%')
	FROM information_schema.columns
	WHERE table_schema = 'public'
	ORDER BY table_name, ordinal_position`

func (m *Manager) fetchSchema(ctx context.Context) ([]models.SchemaColumn, error) {
	rows, err := m.pool.Query(ctx, schemaQuery)
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

// typeNameFromOID maps common PostgreSQL type OIDs to readable names.
func typeNameFromOID(oid uint32) string {
	switch oid {
	case 16:
		return "BOOL"
	case 20:
		return "INT8"
	case 21:
		return "INT2"
	case 23:
		return "INT4"
	case 25:
		return "TEXT"
	case 700:
		return "FLOAT4"
	case 701:
		return "FLOAT8"
	case 1042:
		return "BPCHAR"
	case 1043:
		return "VARCHAR"
	case 1082:
		return "DATE"
	case 1114:
		return "TIMESTAMP"
	case 1184:
		return "TIMESTAMPTZ"
	case 1700:
		return "NUMERIC"
	case 2950:
		return "UUID"
	case 114:
		return "JSON"
	case 3802:
		return "JSONB"
	default:
		return "UNKNOWN"
	}
}
