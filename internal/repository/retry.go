package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ErrUnavailable is returned when the store kept failing transiently after
// all retry attempts. Callers should surface it as a retryable error.
var ErrUnavailable = errors.New("store temporarily unavailable")

const (
	maxRetryAttempts = 5
	minRetryBackoff  = 8 * time.Millisecond
	maxRetryBackoff  = 512 * time.Millisecond
)

// withRetry runs op, retrying transient store failures with exponential
// backoff. Every operation in this package is safe to replay: conditional
// writes re-check their precondition and inserts hit their primary key.
func withRetry(ctx context.Context, op func() error) error {
	backoff := minRetryBackoff

	var err error
	for attempt := 0; attempt < maxRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}

			backoff *= 2
			if backoff > maxRetryBackoff {
				backoff = maxRetryBackoff
			}
		}

		if err = op(); !isTransient(err) {
			return err
		}
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func isTransient(err error) bool {
	if err == nil ||
		errors.Is(err, ErrPreconditionFailed) ||
		errors.Is(err, ErrDuplicated) ||
		errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}

	// sqlite busy errors, mysql 1213/1205, and driver connection drops.
	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{
		"database is locked",
		"database table is locked",
		"deadlock",
		"lock wait timeout",
		"try again",
		"connection refused",
		"connection reset",
		"invalid connection",
		"broken pipe",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}

	return false
}
