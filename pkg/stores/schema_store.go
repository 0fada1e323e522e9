package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askdb-io/askdb-engine/pkg/models"
)

type schemaStore struct {
	pool *pgxpool.Pool
}

// NewSchemaStore creates a SchemaStore backed by the engine store.
func NewSchemaStore(pool *pgxpool.Pool) SchemaStore {
	return &schemaStore{pool: pool}
}

func (s *schemaStore) Get(ctx context.Context, connectionID uuid.UUID) (*models.SchemaSnapshot, error) {
	var (
		raw         []byte
		refreshedAt time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT columns, refreshed_at FROM engine_schema_snapshots WHERE connection_id = $1`,
		connectionID,
	).Scan(&raw, &refreshedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query schema snapshot: %w", err)
	}

	var columns []models.SchemaColumn
	if err := json.Unmarshal(raw, &columns); err != nil {
		return nil, fmt.Errorf("decode schema snapshot: %w", err)
	}

	return &models.SchemaSnapshot{
		ConnectionID: connectionID,
		Columns:      columns,
		RefreshedAt:  refreshedAt,
	}, nil
}

func (s *schemaStore) Replace(ctx context.Context, connectionID uuid.UUID, columns []models.SchemaColumn) error {
	raw, err := json.Marshal(columns)
	if err != nil {
		return fmt.Errorf("encode schema snapshot: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO engine_schema_snapshots (connection_id, columns, refreshed_at)
		VALUES ($1, $2, now())
		ON CONFLICT (connection_id)
		DO UPDATE SET columns = EXCLUDED.columns, refreshed_at = EXCLUDED.refreshed_at`,
		connectionID, raw,
	)
	if err != nil {
		return fmt.Errorf("replace schema snapshot: %w", err)
	}
	return nil
}

var _ SchemaStore = (*schemaStore)(nil)
