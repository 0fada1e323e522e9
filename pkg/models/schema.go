package models

import (
	"time"

	"github.com/google/uuid"
)

// SchemaColumn is one row of a connection's column inventory.
// IsIdentity covers auto-increment/identity columns; the exact source
// differs per dialect (is_identity, EXTRA, COLUMNPROPERTY).
type SchemaColumn struct {
	TableName  string `json:"table_name"`
	ColumnName string `json:"column_name"`
	DataType   string `json:"data_type"`
	IsNullable bool   `json:"is_nullable"`
	IsIdentity bool   `json:"is_identity"`
}

// SchemaSnapshot is the cached column inventory for one connection.
// It is replaced wholesale on refresh, never mutated in place.
type SchemaSnapshot struct {
	ConnectionID uuid.UUID      `json:"connection_id"`
	Columns      []SchemaColumn `json:"columns"`
	RefreshedAt  time.Time      `json:"refreshed_at"`
}
