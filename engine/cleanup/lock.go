package cleanup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"

	"github.com/mxtools/userlib-cleanup/pkg/logger"
)

const lockRetryDelay = 100 * time.Millisecond

// acquireLock takes the advisory lock at path, waiting at most wait.
// The returned release func unlocks and removes the lock file.
func acquireLock(ctx context.Context, path string, wait time.Duration) (func(), error) {
	fl := flock.New(path)
	lockCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	ok, err := fl.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	release := func() {
		if err := fl.Unlock(); err != nil {
			logger.FromContext(ctx).Warn("failed to release lock", "path", path, "error", err)
		}
		_ = os.Remove(path)
	}
	return release, nil
}
