package fetch

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/matzehuels/qrfetch/pkg/errors"
)

// retry runs fn up to attempts times, retrying only transport failures
// and 5xx responses. The delay doubles after each failed attempt.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !retryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return errors.Wrap(errors.ErrCodeNetwork, ctx.Err(), "retry aborted")
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

func retryable(err error) bool {
	if !errors.Retryable(err) || stderrors.Is(err, ErrBodyTooLarge) {
		return false
	}
	var se *StatusError
	if stderrors.As(err, &se) {
		return se.StatusCode >= 500
	}
	return true
}
