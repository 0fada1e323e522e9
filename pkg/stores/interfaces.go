// Package stores provides data access for the engine's own persistence:
// connection descriptors, schema snapshots, and chat associations.
package stores

import (
	"context"

	"github.com/google/uuid"

	"github.com/askdb-io/askdb-engine/pkg/models"
)

// ConnectionStore reads and writes user-owned connection descriptors.
// Every read is scoped by user id in the query itself, so cross-tenant
// access is structurally impossible.
type ConnectionStore interface {
	// GetByID returns the connection with its password decrypted, or
	// apperrors.ErrConnectionNotFound if no row matches (id, userID).
	GetByID(ctx context.Context, userID, connectionID uuid.UUID) (*models.Connection, error)

	// Create inserts a connection, encrypting the password at rest.
	Create(ctx context.Context, conn *models.Connection) error
}

// SchemaStore caches column inventories per connection.
type SchemaStore interface {
	// Get returns the snapshot for a connection, or (nil, nil) when none
	// exists yet.
	Get(ctx context.Context, connectionID uuid.UUID) (*models.SchemaSnapshot, error)

	// Replace overwrites the snapshot wholesale.
	Replace(ctx context.Context, connectionID uuid.UUID, columns []models.SchemaColumn) error
}

// ChatStore resolves the connection a chat is associated with.
type ChatStore interface {
	// ConnectionForChat returns uuid.Nil (and no error) when the chat has
	// no association or does not exist.
	ConnectionForChat(ctx context.Context, userID, chatID uuid.UUID) (uuid.UUID, error)
}
