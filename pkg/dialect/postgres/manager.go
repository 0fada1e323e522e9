// Package postgres implements the PostgreSQL connection manager.
package postgres

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/apperrors"
	"github.com/askdb-io/askdb-engine/pkg/dialect"
	"github.com/askdb-io/askdb-engine/pkg/dialect/sqltext"
	"github.com/askdb-io/askdb-engine/pkg/logging"
	"github.com/askdb-io/askdb-engine/pkg/models"
	"github.com/askdb-io/askdb-engine/pkg/retry"
)

// Manager holds one pgx pool for the duration of a request.
type Manager struct {
	deps   dialect.Deps
	logger *zap.Logger
	pool   *pgxpool.Pool
}

// NewManager creates a PostgreSQL manager. Call Initialize before
// ExecuteQuery.
func NewManager(deps dialect.Deps) *Manager {
	return &Manager{deps: deps, logger: deps.Logger.Named("postgres")}
}

// Initialize resolves the connection, rebuilds the pool, probes it, and
// ensures a schema snapshot exists.
func (m *Manager) Initialize(ctx context.Context, userID, connectionID uuid.UUID) error {
	// Tear down any previous pool first so re-initialization never leaks.
	if m.pool != nil {
		m.pool.Close()
		m.pool = nil
	}

	conn, err := dialect.ResolveConnection(ctx, m.deps, userID, connectionID, models.DialectPostgres)
	if err != nil {
		return err
	}

	dsn := m.buildDSN(conn)
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse connection config: %w", err)
	}
	poolConfig.MaxConns = m.deps.Pool.MaxConns
	poolConfig.MaxConnIdleTime = m.deps.Pool.IdleTimeout
	poolConfig.ConnConfig.ConnectTimeout = m.deps.Pool.ConnectTimeout

	pool, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*pgxpool.Pool, error) {
		return pgxpool.NewWithConfig(ctx, poolConfig)
	})
	if err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrConnectionTestFailed, logging.SanitizeError(err))
	}

	// Liveness probe: acquire and release one connection before declaring
	// success. A half-initialized pool must not survive a failed probe.
	probe, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return fmt.Errorf("%w: %s", apperrors.ErrConnectionTestFailed, logging.SanitizeError(err))
	}
	probe.Release()

	m.pool = pool
	m.logger.Info("connection initialized",
		zap.String("connection_id", connectionID.String()),
		zap.String("host", conn.Host))

	dialect.EnsureSnapshot(ctx, m.deps, connectionID, m.fetchSchema)
	return nil
}

func (m *Manager) buildDSN(conn *models.Connection) string {
	sslMode := "require"
	if m.deps.Local {
		sslMode = "disable"
	} else {
		// sslmode=require encrypts but skips certificate verification.
		// Flagged trade-off: see the TLS note in DESIGN.md.
		m.logger.Warn("TLS certificate verification relaxed for datasource connection",
			zap.String("host", conn.Host))
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(conn.Username), url.QueryEscape(conn.Password),
		conn.Host, conn.Port, conn.Database, sslMode)
}

// ExecuteQuery sanitizes and runs generated SQL. Driver failures degrade to
// an empty result; only a missing Initialize surfaces as an error.
func (m *Manager) ExecuteQuery(ctx context.Context, sqlQuery string, params ...any) (*models.QueryResult, error) {
	if m.pool == nil {
		return nil, apperrors.ErrNotInitialized
	}

	clean, ok := sqltext.Sanitize(sqlQuery)
	if !ok {
		m.logger.Debug("query short-circuited before driver",
			zap.String("query", logging.SanitizeQuery(sqlQuery)))
		return models.EmptyResult(), nil
	}
	for _, p := range params {
		if fingerprint, bad := sqltext.CheckParam(p); bad {
			m.logger.Warn("injection-shaped parameter rejected",
				zap.String("fingerprint", fingerprint))
			return models.EmptyResult(), nil
		}
	}

	rows, err := m.pool.Query(ctx, clean, params...)
	if err != nil {
		m.logger.Warn("query failed, returning empty result",
			zap.String("query", logging.SanitizeQuery(clean)),
			zap.String("error", logging.SanitizeError(err)))
		return models.EmptyResult(), nil
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]models.ColumnInfo, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = models.ColumnInfo{Name: string(fd.Name), Type: typeNameFromOID(fd.DataTypeOID)}
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			m.logger.Warn("row read failed, returning empty result",
				zap.String("error", logging.SanitizeError(err)))
			return models.EmptyResult(), nil
		}
		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col.Name] = values[i]
		}
		resultRows = append(resultRows, rowMap)
	}
	if err := rows.Err(); err != nil {
		m.logger.Warn("row iteration failed, returning empty result",
			zap.String("error", logging.SanitizeError(err)))
		return models.EmptyResult(), nil
	}

	return &models.QueryResult{Columns: columns, Rows: resultRows, RowCount: len(resultRows)}, nil
}

// ConnectionForChat resolves a chat's pinned connection, if any.
func (m *Manager) ConnectionForChat(ctx context.Context, userID, chatID uuid.UUID) (uuid.UUID, error) {
	return dialect.ChatConnection(ctx, m.deps, userID, chatID)
}

// Close releases the pool. Safe to call repeatedly.
func (m *Manager) Close() error {
	if m.pool != nil {
		m.pool.Close()
		m.pool = nil
	}
	return nil
}

var _ dialect.Manager = (*Manager)(nil)
