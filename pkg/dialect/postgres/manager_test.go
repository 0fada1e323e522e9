package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/apperrors"
	"github.com/askdb-io/askdb-engine/pkg/dialect"
	"github.com/askdb-io/askdb-engine/pkg/models"
)

type fakeConnections struct {
	conn *models.Connection
	err  error
}

func (f *fakeConnections) GetByID(ctx context.Context, userID, connectionID uuid.UUID) (*models.Connection, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.conn, nil
}

func (f *fakeConnections) Create(ctx context.Context, conn *models.Connection) error {
	return nil
}

func newTestManager(connections *fakeConnections) *Manager {
	return NewManager(dialect.Deps{
		Connections: connections,
		Pool:        dialect.DefaultPoolConfig(),
		Local:       true,
		Logger:      zap.NewNop(),
	})
}

func TestInitialize_ConnectionNotFoundLeavesNoPool(t *testing.T) {
	m := newTestManager(&fakeConnections{err: apperrors.ErrConnectionNotFound})

	err := m.Initialize(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, apperrors.ErrConnectionNotFound) {
		t.Errorf("expected ErrConnectionNotFound, got %v", err)
	}
	if m.pool != nil {
		t.Error("no pool may be allocated for an unknown connection")
	}
	if _, err := m.ExecuteQuery(context.Background(), "SELECT 1"); !errors.Is(err, apperrors.ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestInitialize_RejectsForeignDialectTag(t *testing.T) {
	m := newTestManager(&fakeConnections{conn: &models.Connection{Dialect: models.DialectMySQL}})

	err := m.Initialize(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, apperrors.ErrDialectMismatch) {
		t.Errorf("expected ErrDialectMismatch, got %v", err)
	}
	if m.pool != nil {
		t.Error("no pool may be allocated on a dialect mismatch")
	}
}

func TestBuildDSN_SSLModeFollowsEnvironment(t *testing.T) {
	conn := &models.Connection{
		Host:     "db.example.com",
		Port:     5432,
		Database: "sales",
		Username: "reader",
		Password: "p@ss word",
	}

	local := newTestManager(&fakeConnections{})
	if dsn := local.buildDSN(conn); !strings.Contains(dsn, "sslmode=disable") {
		t.Errorf("local DSN must disable TLS: %s", dsn)
	}

	remote := NewManager(dialect.Deps{Pool: dialect.DefaultPoolConfig(), Local: false, Logger: zap.NewNop()})
	dsn := remote.buildDSN(conn)
	if !strings.Contains(dsn, "sslmode=require") {
		t.Errorf("remote DSN must require TLS: %s", dsn)
	}
	if !strings.Contains(dsn, "p%40ss+word") {
		t.Errorf("password not URL-escaped: %s", dsn)
	}
}

func TestClose_Idempotent(t *testing.T) {
	m := newTestManager(&fakeConnections{})
	if err := m.Close(); err != nil {
		t.Fatalf("close on fresh manager: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
