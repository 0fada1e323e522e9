package dialect

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/apperrors"
	"github.com/askdb-io/askdb-engine/pkg/models"
)

// ResolveConnection fetches a connection scoped to userID and validates its
// dialect tag. Strict managers (mysql, mssql) reject any mismatch; the
// postgres manager accepts an unset tag as postgres, which ParseDialect
// already normalizes.
func ResolveConnection(ctx context.Context, deps Deps, userID, connectionID uuid.UUID, want models.Dialect) (*models.Connection, error) {
	conn, err := deps.Connections.GetByID(ctx, userID, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.Dialect != want {
		return nil, fmt.Errorf("%w: connection %s is %q, manager expects %q",
			apperrors.ErrDialectMismatch, connectionID, conn.Dialect, want)
	}
	return conn, nil
}

// EnsureSnapshot guarantees a schema snapshot exists for the connection,
// fetching one through the freshly initialized pool when absent. Failures
// here degrade generation quality but never block query execution, so they
// are logged and swallowed.
func EnsureSnapshot(ctx context.Context, deps Deps, connectionID uuid.UUID,
	fetch func(ctx context.Context) ([]models.SchemaColumn, error)) {

	logger := deps.Logger.Named("snapshot")

	existing, err := deps.Snapshots.Get(ctx, connectionID)
	if err != nil {
		logger.Warn("schema snapshot lookup failed",
			zap.String("connection_id", connectionID.String()), zap.Error(err))
		return
	}
	if existing != nil {
		return
	}

	columns, err := fetch(ctx)
	if err != nil {
		logger.Warn("schema introspection failed",
			zap.String("connection_id", connectionID.String()), zap.Error(err))
		return
	}
	if err := deps.Snapshots.Replace(ctx, connectionID, columns); err != nil {
		logger.Warn("schema snapshot persist failed",
			zap.String("connection_id", connectionID.String()), zap.Error(err))
		return
	}
	logger.Info("schema snapshot created",
		zap.String("connection_id", connectionID.String()),
		zap.Int("columns", len(columns)))
}

// ChatConnection delegates to the chat store, collapsing lookup errors to
// absence - a missing association is not a failure condition.
func ChatConnection(ctx context.Context, deps Deps, userID, chatID uuid.UUID) (uuid.UUID, error) {
	if chatID == uuid.Nil {
		return uuid.Nil, nil
	}
	id, err := deps.Chats.ConnectionForChat(ctx, userID, chatID)
	if err != nil {
		deps.Logger.Debug("chat association lookup failed",
			zap.String("chat_id", chatID.String()), zap.Error(err))
		return uuid.Nil, nil
	}
	return id, nil
}
