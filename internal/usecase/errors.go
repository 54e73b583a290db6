package usecase

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net"

	"github.com/cockroachdb/errors"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")

	// ErrValidationRejected marks a fuzzy candidate the context gate refused.
	// It routes resolution to team creation and is never returned to callers.
	ErrValidationRejected = errors.New("candidate rejected by context validation")
	ErrAmbiguousDuplicate = errors.New("ambiguous duplicate")
	ErrMergeConflict      = errors.New("merge conflict")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// isStoreFailure reports whether err means the store could not be reached,
// as opposed to a rejected or malformed item.
func isStoreFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func storeUnavailable(err error, op string) error {
	return errors.Mark(errors.Wrap(err, op), ErrStoreUnavailable)
}
