package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/leadflow/pkg/lock"
)

// NewLocker returns a redis backed invocation lock, or a lock that always
// succeeds when redisURL is empty.
func NewLocker(ctx context.Context, logger *slog.Logger, redisURL string) (lock.Locker, func() error, error) {
	if redisURL == "" {
		return lock.Noop{}, func() error { return nil }, nil
	}

	locker, err := lock.NewRedisLockerFromURL(ctx, logger, redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return locker, locker.Close, nil
}
