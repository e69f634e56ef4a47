// Package retry provides a small fixed-attempt backoff helper, used at
// startup while waiting for dependencies such as the database.
package retry

import (
	"context"
	"time"
)

// DoWithRetry runs op up to attempts times, doubling delay after each
// failed try. It returns the last error from op, or ctx.Err() if the
// context is canceled while waiting.
func DoWithRetry(ctx context.Context, attempts int, delay time.Duration, op func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err = op(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
