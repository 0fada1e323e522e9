// Package dialect defines the per-dialect connection manager contract and
// shared plumbing for the postgres, mysql, and mssql implementations.
package dialect

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/models"
	"github.com/askdb-io/askdb-engine/pkg/stores"
)

// Manager resolves a connection id to a live pool and executes generated
// SQL against it. One instance serves one request; instances are not shared.
type Manager interface {
	// Initialize resolves the connection scoped to userID, tears down any
	// existing pool, builds a new one, probes it, and guarantees a schema
	// snapshot exists. Always rebuild - never reuse a stale pool.
	Initialize(ctx context.Context, userID, connectionID uuid.UUID) error

	// ExecuteQuery sanitizes and runs a generated SQL string. Driver-level
	// query failures degrade to an empty result rather than an error;
	// only ErrNotInitialized and context errors surface.
	ExecuteQuery(ctx context.Context, sqlQuery string, params ...any) (*models.QueryResult, error)

	// ConnectionForChat looks up the connection a chat is associated with.
	// Returns uuid.Nil when no association exists; never errors on absence.
	ConnectionForChat(ctx context.Context, userID, chatID uuid.UUID) (uuid.UUID, error)

	// Close releases pool resources. Idempotent.
	Close() error
}

// PoolConfig bounds pools opened against user databases.
type PoolConfig struct {
	MaxConns       int32
	IdleTimeout    time.Duration
	ConnectTimeout time.Duration
}

// DefaultPoolConfig returns conservative bounds for per-request pools.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:       5,
		IdleTimeout:    5 * time.Minute,
		ConnectTimeout: 10 * time.Second,
	}
}

// Deps carries the collaborators every manager needs.
type Deps struct {
	Connections stores.ConnectionStore
	Snapshots   stores.SchemaStore
	Chats       stores.ChatStore
	Pool        PoolConfig
	Local       bool // local/development mode: plain connections, no TLS
	Logger      *zap.Logger
}
