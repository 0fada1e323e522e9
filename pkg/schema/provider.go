// Package schema supplies the cached column inventory used to ground SQL
// generation.
package schema

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/models"
	"github.com/askdb-io/askdb-engine/pkg/stores"
)

// Provider reads schema snapshots for prompt construction. It never fails:
// a missing or unreadable snapshot degrades to an empty inventory, which
// tells the generator to fall back to generic domain guesses.
type Provider struct {
	snapshots stores.SchemaStore
	logger    *zap.Logger
}

// NewProvider creates a schema provider.
func NewProvider(snapshots stores.SchemaStore, logger *zap.Logger) *Provider {
	return &Provider{snapshots: snapshots, logger: logger.Named("schema")}
}

// GetSchema returns the column inventory for a connection. A zero
// connection id or any lookup failure yields an empty slice.
func (p *Provider) GetSchema(ctx context.Context, connectionID uuid.UUID) []models.SchemaColumn {
	if connectionID == uuid.Nil {
		return nil
	}

	snapshot, err := p.snapshots.Get(ctx, connectionID)
	if err != nil {
		p.logger.Debug("schema lookup failed, continuing without context",
			zap.String("connection_id", connectionID.String()),
			zap.Error(err))
		return nil
	}
	if snapshot == nil {
		return nil
	}
	return snapshot.Columns
}
