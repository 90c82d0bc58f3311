package repository

import (
	"context"
	"database/sql"
	"errors"
)

// maintenanceLockName is the MySQL advisory lock that fences bulk data
// operations off from live swaps.  The bulk reconciliation tooling holds
// it for the duration of an import; the swap engine refuses to mutate
// while it is taken.
const maintenanceLockName = "roombot.maintenance"

// ErrMaintenanceHeld is returned when the maintenance window is already
// open and a second acquisition is attempted.
var ErrMaintenanceHeld = errors.New("maintenance window already held")

// MaintenanceLock represents a held maintenance window.  MySQL advisory
// locks are session scoped, so the lock pins a dedicated connection for
// its lifetime; Release must be called to free both.
type MaintenanceLock struct {
	conn *sql.Conn
}

// AcquireMaintenanceLock opens the maintenance window.  It uses a zero
// wait: if another session already holds the window, ErrMaintenanceHeld
// is returned immediately rather than queueing behind it.
func AcquireMaintenanceLock(ctx context.Context, db *sql.DB) (*MaintenanceLock, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var got sql.NullInt64
	if err := conn.QueryRowContext(ctx, `SELECT GET_LOCK(?, 0)`, maintenanceLockName).Scan(&got); err != nil {
		conn.Close()
		return nil, err
	}
	if !got.Valid || got.Int64 != 1 {
		conn.Close()
		return nil, ErrMaintenanceHeld
	}
	return &MaintenanceLock{conn: conn}, nil
}

// Release closes the maintenance window and returns the pinned connection
// to the pool.  Safe to call once; further calls are no-ops.
func (l *MaintenanceLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	_, err := l.conn.ExecContext(ctx, `SELECT RELEASE_LOCK(?)`, maintenanceLockName)
	closeErr := l.conn.Close()
	l.conn = nil
	if err != nil {
		return err
	}
	return closeErr
}

// MaintenanceHeldTx reports, within the given transaction, whether some
// session currently holds the maintenance window.  The engine calls this
// after acquiring its row locks; a held window turns the operation into a
// retryable conflict instead of letting a swap interleave with a bulk
// import.
func MaintenanceHeldTx(ctx context.Context, tx *sql.Tx) (bool, error) {
	var free sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT IS_FREE_LOCK(?)`, maintenanceLockName).Scan(&free); err != nil {
		return false, err
	}
	// IS_FREE_LOCK returns 1 when free, 0 when held, NULL on error.
	return free.Valid && free.Int64 == 0, nil
}
