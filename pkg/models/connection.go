package models

import (
	"time"

	"github.com/google/uuid"
)

// Dialect identifies the SQL variant a connection speaks.
type Dialect string

const (
	DialectPostgres  Dialect = "postgres"
	DialectMySQL     Dialect = "mysql"
	DialectSQLServer Dialect = "sqlserver"
)

// ParseDialect normalizes a stored dialect tag. An empty tag maps to
// postgres, which is the historical default for connections created before
// the tag existed.
func ParseDialect(s string) (Dialect, bool) {
	switch Dialect(s) {
	case DialectPostgres, "":
		return DialectPostgres, true
	case DialectMySQL:
		return DialectMySQL, true
	case DialectSQLServer:
		return DialectSQLServer, true
	}
	return "", false
}

// Connection describes a user-owned database connection. Password is held
// decrypted in memory for the duration of a request; at rest it is encrypted
// by the store layer.
type Connection struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	Dialect      Dialect   `json:"dialect"`
	Host         string    `json:"host"`
	Port         int       `json:"port"`
	Database     string    `json:"database"`
	Username     string    `json:"username"`
	Password     string    `json:"-"`
	CustomPrompt string    `json:"custom_prompt,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
