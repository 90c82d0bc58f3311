// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the swap engine to distinguish between different failure
// scenarios. For example, ErrConflict signals lock contention that the
// caller may safely retry.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when an operation loses a race on row locks:
// a deadlock abort or a lock wait timeout. The transaction has been
// rolled back with no partial effect, so callers may retry. Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrRoomNotFound is returned when a room lookup matches no row.
var ErrRoomNotFound = errors.New("room not found")

// ErrGuestNotFound is returned when a guest lookup matches no row.
var ErrGuestNotFound = errors.New("guest not found")

// MySQL server error numbers that indicate lock contention rather than a
// real failure. 1213 is a deadlock abort, 1205 a lock wait timeout.
const (
	mysqlErrLockWaitTimeout = 1205
	mysqlErrLockDeadlock    = 1213
	mysqlErrDuplicateEntry  = 1062
)

// AsConflict maps MySQL lock-contention errors onto ErrConflict and
// returns every other error unchanged. Repositories call this on the
// way out of any statement that acquires row locks so that the engine
// sees a single retryable sentinel instead of driver specifics.
func AsConflict(err error) error {
	if err == nil {
		return nil
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number == mysqlErrLockDeadlock || myErr.Number == mysqlErrLockWaitTimeout {
			return ErrConflict
		}
	}
	return err
}

// IsDuplicateEntry reports whether err is a MySQL unique-key violation.
// The swap code generator uses this to detect a token collision and
// re-roll instead of failing the issuance.
func IsDuplicateEntry(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry
}
