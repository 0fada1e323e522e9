package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askdb-io/askdb-engine/pkg/apperrors"
	"github.com/askdb-io/askdb-engine/pkg/crypto"
	"github.com/askdb-io/askdb-engine/pkg/models"
)

type connectionStore struct {
	pool      *pgxpool.Pool
	encryptor *crypto.CredentialEncryptor
}

// NewConnectionStore creates a ConnectionStore backed by the engine store.
// Passwords are AES-256-GCM encrypted on write and decrypted on read; no
// caller ever sees ciphertext.
func NewConnectionStore(pool *pgxpool.Pool, encryptor *crypto.CredentialEncryptor) ConnectionStore {
	return &connectionStore{pool: pool, encryptor: encryptor}
}

func (s *connectionStore) GetByID(ctx context.Context, userID, connectionID uuid.UUID) (*models.Connection, error) {
	query := `
		SELECT id, user_id, name, dialect, host, port, database_name,
		       username, password_encrypted, COALESCE(custom_prompt, ''),
		       created_at, updated_at
		FROM engine_connections
		WHERE id = $1 AND user_id = $2`

	var (
		conn      models.Connection
		dialect   string
		encrypted string
	)
	err := s.pool.QueryRow(ctx, query, connectionID, userID).Scan(
		&conn.ID, &conn.UserID, &conn.Name, &dialect, &conn.Host, &conn.Port,
		&conn.Database, &conn.Username, &encrypted, &conn.CustomPrompt,
		&conn.CreatedAt, &conn.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrConnectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query connection: %w", err)
	}

	d, ok := models.ParseDialect(dialect)
	if !ok {
		return nil, fmt.Errorf("connection %s has unknown dialect %q", conn.ID, dialect)
	}
	conn.Dialect = d

	password, err := s.encryptor.Decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt credentials for connection %s: %w", conn.ID, err)
	}
	conn.Password = password

	return &conn, nil
}

func (s *connectionStore) Create(ctx context.Context, conn *models.Connection) error {
	encrypted, err := s.encryptor.Encrypt(conn.Password)
	if err != nil {
		return fmt.Errorf("encrypt credentials: %w", err)
	}

	now := time.Now()
	conn.CreatedAt = now
	conn.UpdatedAt = now

	query := `
		INSERT INTO engine_connections
			(user_id, name, dialect, host, port, database_name, username,
			 password_encrypted, custom_prompt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11)
		RETURNING id`

	err = s.pool.QueryRow(ctx, query,
		conn.UserID, conn.Name, string(conn.Dialect), conn.Host, conn.Port,
		conn.Database, conn.Username, encrypted, conn.CustomPrompt,
		conn.CreatedAt, conn.UpdatedAt,
	).Scan(&conn.ID)
	if err != nil {
		return fmt.Errorf("create connection: %w", err)
	}
	return nil
}

var _ ConnectionStore = (*connectionStore)(nil)
