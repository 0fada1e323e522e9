// Package mssql implements the SQL Server connection manager over
// database/sql.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/apperrors"
	"github.com/askdb-io/askdb-engine/pkg/dialect"
	"github.com/askdb-io/askdb-engine/pkg/dialect/sqltext"
	"github.com/askdb-io/askdb-engine/pkg/logging"
	"github.com/askdb-io/askdb-engine/pkg/models"
)

// Manager holds one database/sql pool for the duration of a request.
type Manager struct {
	deps   dialect.Deps
	logger *zap.Logger
	db     *sql.DB
}

// NewManager creates a SQL Server manager. Call Initialize before
// ExecuteQuery.
func NewManager(deps dialect.Deps) *Manager {
	return &Manager{deps: deps, logger: deps.Logger.Named("mssql")}
}

// Initialize resolves the connection, rebuilds the pool, probes it, and
// ensures a schema snapshot exists. The stored dialect tag must be
// "sqlserver".
func (m *Manager) Initialize(ctx context.Context, userID, connectionID uuid.UUID) error {
	if m.db != nil {
		_ = m.db.Close()
		m.db = nil
	}

	conn, err := dialect.ResolveConnection(ctx, m.deps, userID, connectionID, models.DialectSQLServer)
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlserver", m.buildDSN(conn))
	if err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrConnectionTestFailed, logging.SanitizeError(err))
	}
	db.SetMaxOpenConns(int(m.deps.Pool.MaxConns))
	db.SetConnMaxIdleTime(m.deps.Pool.IdleTimeout)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("%w: %s", apperrors.ErrConnectionTestFailed, logging.SanitizeError(err))
	}

	m.db = db
	m.logger.Info("connection initialized",
		zap.String("connection_id", connectionID.String()),
		zap.String("host", conn.Host))

	dialect.EnsureSnapshot(ctx, m.deps, connectionID, m.fetchSchema)
	return nil
}

func (m *Manager) buildDSN(conn *models.Connection) string {
	query := url.Values{}
	query.Set("database", conn.Database)
	query.Set("connection timeout", fmt.Sprintf("%d", int(m.deps.Pool.ConnectTimeout.Seconds())))
	if m.deps.Local {
		query.Set("encrypt", "disable")
	} else {
		// Encrypt but trust the server certificate. Flagged trade-off:
		// see the TLS note in DESIGN.md.
		query.Set("encrypt", "true")
		query.Set("trustservercertificate", "true")
		m.logger.Warn("TLS certificate verification relaxed for datasource connection",
			zap.String("host", conn.Host))
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(conn.Username, conn.Password),
		Host:     fmt.Sprintf("%s:%d", conn.Host, conn.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// ExecuteQuery sanitizes and runs generated SQL. Driver failures degrade to
// an empty result.
func (m *Manager) ExecuteQuery(ctx context.Context, sqlQuery string, params ...any) (*models.QueryResult, error) {
	if m.db == nil {
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

	rows, err := m.db.QueryContext(ctx, clean, params...)
	if err != nil {
		m.logger.Warn("query failed, returning empty result",
			zap.String("query", logging.SanitizeQuery(clean)),
			zap.String("error", logging.SanitizeError(err)))
		return models.EmptyResult(), nil
	}
	defer rows.Close()

	result, err := dialect.ScanRows(rows)
	if err != nil {
		m.logger.Warn("row scan failed, returning empty result",
			zap.String("error", logging.SanitizeError(err)))
		return models.EmptyResult(), nil
	}
	return result, nil
}

// ConnectionForChat resolves a chat's pinned connection, if any.
func (m *Manager) ConnectionForChat(ctx context.Context, userID, chatID uuid.UUID) (uuid.UUID, error) {
	return dialect.ChatConnection(ctx, m.deps, userID, chatID)
}

// Close releases the pool. Safe to call repeatedly.
func (m *Manager) Close() error {
	if m.db != nil {
		err := m.db.Close()
		m.db = nil
		return err
	}
	return nil
}

var _ dialect.Manager = (*Manager)(nil)
