package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type chatStore struct {
	pool *pgxpool.Pool
}

// NewChatStore creates a ChatStore backed by the engine store.
func NewChatStore(pool *pgxpool.Pool) ChatStore {
	return &chatStore{pool: pool}
}

func (s *chatStore) ConnectionForChat(ctx context.Context, userID, chatID uuid.UUID) (uuid.UUID, error) {
	var connectionID *uuid.UUID
	err := s.pool.QueryRow(ctx,
		`SELECT connection_id FROM engine_chats WHERE id = $1 AND user_id = $2`,
		chatID, userID,
	).Scan(&connectionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("query chat association: %w", err)
	}
	if connectionID == nil {
		return uuid.Nil, nil
	}
	return *connectionID, nil
}

var _ ChatStore = (*chatStore)(nil)
