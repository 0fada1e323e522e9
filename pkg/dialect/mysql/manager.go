// Package mysql implements the MySQL connection manager over database/sql.
package mysql

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"sync"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/apperrors"
	"github.com/askdb-io/askdb-engine/pkg/dialect"
	"github.com/askdb-io/askdb-engine/pkg/dialect/sqltext"
	"github.com/askdb-io/askdb-engine/pkg/logging"
	"github.com/askdb-io/askdb-engine/pkg/models"
)

// tlsConfigName keys the driver-level TLS profile used outside local mode.
const tlsConfigName = "askdb-relaxed"

var registerTLSOnce sync.Once

// Manager holds one database/sql pool for the duration of a request.
type Manager struct {
	deps   dialect.Deps
	logger *zap.Logger
	db     *sql.DB
}

// NewManager creates a MySQL manager. Call Initialize before ExecuteQuery.
func NewManager(deps dialect.Deps) *Manager {
	return &Manager{deps: deps, logger: deps.Logger.Named("mysql")}
}

// Initialize resolves the connection, rebuilds the pool, probes it, and
// ensures a schema snapshot exists. The stored dialect tag must be "mysql".
func (m *Manager) Initialize(ctx context.Context, userID, connectionID uuid.UUID) error {
	if m.db != nil {
		_ = m.db.Close()
		m.db = nil
	}

	conn, err := dialect.ResolveConnection(ctx, m.deps, userID, connectionID, models.DialectMySQL)
	if err != nil {
		return err
	}

	cfg := gomysql.NewConfig()
	cfg.User = conn.Username
	cfg.Passwd = conn.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", conn.Host, conn.Port)
	cfg.DBName = conn.Database
	cfg.Timeout = m.deps.Pool.ConnectTimeout
	cfg.ParseTime = true

	if !m.deps.Local {
		registerTLSOnce.Do(func() {
			// Encrypt but skip certificate verification. Flagged trade-off:
			// see the TLS note in DESIGN.md.
			_ = gomysql.RegisterTLSConfig(tlsConfigName, &tls.Config{InsecureSkipVerify: true})
		})
		cfg.TLSConfig = tlsConfigName
		m.logger.Warn("TLS certificate verification relaxed for datasource connection",
			zap.String("host", conn.Host))
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
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
