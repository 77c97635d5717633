// Package service implements the mutation gateway: every write against the
// external store goes through one of these services, which validate input,
// perform the store calls, and re-synchronize the local projections the
// write invalidates. All operations are fail-fast; store failures surface
// as typed errors and are never retried automatically.
package service

import (
	"context"
	"errors"
	"time"

	apperrors "church-attendance-backend/internal/errors"
)

// defaultStoreTimeout bounds a store call when no explicit timeout was
// configured.
const defaultStoreTimeout = 30 * time.Second

// storeContext derives a context that bounds one external store call
func storeContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// wrapStoreError converts a raw store failure into the typed taxonomy:
// deadline expiry becomes TimeoutError, anything else StoreUnavailableError.
func wrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(op)
	}
	return apperrors.NewStoreUnavailableError(op, err)
}
