package cvs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"cv-backend/internal/shared/storage/db"
)

var (
	// ErrNotFound indicates the CV id has no parent row.
	ErrNotFound = errors.New("cv not found")

	// ErrInvalidInput indicates a request rejected at the boundary.
	ErrInvalidInput = errors.New("invalid input")
)

// StorageError reports a failure of the underlying store: lost connectivity,
// a constraint violation or a failed transaction. Writes that return a
// StorageError have been rolled back.
type StorageError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("cv %s: storage: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether err carries a *StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsRetryable reports whether err is a storage failure worth retrying at a higher layer.
// A canceled caller context is not retryable.
func IsRetryable(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Retryable
}

// storageError wraps err as a *StorageError for op. Domain sentinels and
// existing storage errors pass through unchanged.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) || IsStorageError(err) {
		return err
	}
	return &StorageError{Op: op, Retryable: retryable(err), Err: err}
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, db.ErrPoolClosed):
		return false
	case errors.Is(err, context.DeadlineExceeded):
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		code := strings.TrimSpace(pgErr.Code)
		switch {
		case code == "40001", code == "40P01", code == "55P03":
			return true // serialization/deadlock/lock_not_available
		case strings.HasPrefix(code, "08"):
			return true // connection_exception class
		case code == "57P01", code == "57P03":
			return true // admin_shutdown/cannot_connect_now
		}
		return false
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	return pgconn.SafeToRetry(err)
}
