package apperrors

import "errors"

var (
	// ErrConnectionNotFound is returned when a connection id does not resolve
	// to a row owned by the requesting user.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrDialectMismatch is returned when a stored connection's dialect tag
	// does not match the manager that tried to initialize it.
	ErrDialectMismatch = errors.New("connection dialect does not match manager")

	// ErrConnectionTestFailed is returned when the post-initialization
	// liveness probe fails.
	ErrConnectionTestFailed = errors.New("connection test failed")

	// ErrNotInitialized is returned when a query is executed before a
	// successful Initialize.
	ErrNotInitialized = errors.New("connection manager not initialized")

	// ErrGenerationFailed is returned when the model completion yields an
	// empty SQL string.
	ErrGenerationFailed = errors.New("query generation produced no SQL")

	// ErrNoConnection is returned when neither a pinned connection id nor a
	// chat association resolves to a connection.
	ErrNoConnection = errors.New("no database connection available")
)
