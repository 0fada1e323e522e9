package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the process logger. Local mode gets the human-readable
// development encoder; everything else logs structured JSON.
func New(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "local" || env == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
