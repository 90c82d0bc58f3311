package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Take3Presents/RoomBot/internal/model"
)

// RoomRepo provides data access to the rooms table.  Rooms are created by
// the external inventory ingestion; this repository only reads them and
// mutates the swap-relevant columns.  All timestamps are stored in UTC.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span rooms, guests and swap codes.
func (r *RoomRepo) DB() *sql.DB { return r.db }

const roomColumns = `id, number, hotel, room_type, hotel_room_name,
       is_available, is_swappable, is_smoking, is_lakeview, is_ada,
       is_hearing_accessible, is_special, swap_code, swap_code_at, swap_at,
       check_in, check_out, sp_ticket_id, primary_name, secondary_name,
       notes, guest_id, created_at, updated_at`

// scanRoom reads one row produced by a SELECT over roomColumns.
func scanRoom(row interface{ Scan(...interface{}) error }) (*model.Room, error) {
	var rm model.Room
	var swapCode sql.NullString
	var swapCodeAt, swapAt, checkIn, checkOut sql.NullTime
	var spTicket, notes sql.NullString
	var guestID sql.NullInt64
	err := row.Scan(
		&rm.ID, &rm.Number, &rm.Hotel, &rm.RoomType, &rm.HotelRoomName,
		&rm.IsAvailable, &rm.IsSwappable, &rm.IsSmoking, &rm.IsLakeview, &rm.IsADA,
		&rm.IsHearingAccessible, &rm.IsSpecial, &swapCode, &swapCodeAt, &swapAt,
		&checkIn, &checkOut, &spTicket, &rm.Primary, &rm.Secondary,
		&notes, &guestID, &rm.CreatedAt, &rm.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if swapCode.Valid {
		v := swapCode.String
		rm.SwapCode = &v
	}
	if swapCodeAt.Valid {
		t := swapCodeAt.Time.UTC()
		rm.SwapCodeAt = &t
	}
	if swapAt.Valid {
		t := swapAt.Time.UTC()
		rm.SwapAt = &t
	}
	if checkIn.Valid {
		t := checkIn.Time.UTC()
		rm.CheckIn = &t
	}
	if checkOut.Valid {
		t := checkOut.Time.UTC()
		rm.CheckOut = &t
	}
	if spTicket.Valid {
		rm.SPTicketID = spTicket.String
	}
	if notes.Valid {
		rm.Notes = notes.String
	}
	if guestID.Valid {
		id := uint64(guestID.Int64)
		rm.GuestID = &id
	}
	return &rm, nil
}

// GetByID returns a single room by primary key.  ErrRoomNotFound is
// returned when no such room exists.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	const q = `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	rm, err := scanRoom(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	return rm, err
}

// GetByNumber returns a room by its hotel and room number.
func (r *RoomRepo) GetByNumber(ctx context.Context, hotel, number string) (*model.Room, error) {
	const q = `SELECT ` + roomColumns + ` FROM rooms WHERE hotel = ? AND number = ?`
	rm, err := scanRoom(r.db.QueryRowContext(ctx, q, hotel, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	return rm, err
}

// GetForUpdateTx re-loads a room inside the provided transaction with an
// exclusive row lock.  The engine always calls this in ascending room-ID
// order when it needs both sides of a swap, which keeps two concurrent
// redemptions over overlapping rooms from deadlocking.  Lock contention
// errors surface as ErrConflict.
func (r *RoomRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Room, error) {
	const q = `SELECT ` + roomColumns + ` FROM rooms WHERE id = ? FOR UPDATE`
	rm, err := scanRoom(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	return rm, AsConflict(err)
}

// ListByGuestEmail returns the rooms occupied by any guest record with the
// given email, restricted to the listed hotels.  Used for the my-rooms
// projection; reads are not transactional and may be stale by design.
func (r *RoomRepo) ListByGuestEmail(ctx context.Context, email string, hotels []string) ([]model.Room, error) {
	if len(hotels) == 0 {
		return []model.Room{}, nil
	}
	q := `SELECT ` + roomColumns + ` FROM rooms
          WHERE guest_id IN (SELECT id FROM guests WHERE email = ?)
            AND hotel IN (` + placeholders(len(hotels)) + `)
          ORDER BY hotel, number`
	args := make([]interface{}, 0, len(hotels)+1)
	args = append(args, email)
	for _, h := range hotels {
		args = append(args, h)
	}
	return r.queryRooms(ctx, q, args...)
}

// ListOccupied returns all occupied, non-special rooms in the listed
// hotels.  This backs the public browse endpoint; per-room availability
// for a specific requester is computed by the handler.
func (r *RoomRepo) ListOccupied(ctx context.Context, hotels []string) ([]model.Room, error) {
	if len(hotels) == 0 {
		return []model.Room{}, nil
	}
	q := `SELECT ` + roomColumns + ` FROM rooms
          WHERE guest_id IS NOT NULL
            AND is_special = FALSE
            AND hotel IN (` + placeholders(len(hotels)) + `)
          ORDER BY hotel, number`
	args := make([]interface{}, 0, len(hotels))
	for _, h := range hotels {
		args = append(args, h)
	}
	return r.queryRooms(ctx, q, args...)
}

// ListAll returns every room.  The consistency auditor walks this to
// cross-check the bidirectional room/guest references; nothing in the
// request path uses it.
func (r *RoomRepo) ListAll(ctx context.Context) ([]model.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms ORDER BY id`
	return r.queryRooms(ctx, q)
}

func (r *RoomRepo) queryRooms(ctx context.Context, q string, args ...interface{}) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetCodeTx writes the mirrored active-code columns for a room within the
// provided transaction.  Pass nil values to clear the mirror.
func (r *RoomRepo) SetCodeTx(ctx context.Context, tx *sql.Tx, roomID uint64, code *string, issuedAt *time.Time) error {
	const q = `UPDATE rooms SET swap_code = ?, swap_code_at = ? WHERE id = ?`
	var codeVal, atVal interface{}
	if code != nil {
		codeVal = *code
	}
	if issuedAt != nil {
		atVal = issuedAt.UTC().Format("2006-01-02 15:04:05")
	}
	_, err := tx.ExecContext(ctx, q, codeVal, atVal, roomID)
	return AsConflict(err)
}

// SaveSwapStateTx persists the swap-relevant columns of a room after the
// engine has exchanged bindings in memory: occupant reference, mirrored
// code columns, occupant names, stay dates, placing ticket and the
// last-swap stamp.  It must run inside the transaction that locked the
// room.
func (r *RoomRepo) SaveSwapStateTx(ctx context.Context, tx *sql.Tx, rm *model.Room) error {
	const q = `UPDATE rooms
               SET guest_id = ?, swap_code = ?, swap_code_at = ?, swap_at = ?,
                   primary_name = ?, secondary_name = ?, check_in = ?, check_out = ?,
                   sp_ticket_id = ?
               WHERE id = ?`
	_, err := tx.ExecContext(ctx, q,
		nullableID(rm.GuestID), nullableStr(rm.SwapCode), nullableTime(rm.SwapCodeAt),
		nullableTime(rm.SwapAt), rm.Primary, rm.Secondary,
		nullableDate(rm.CheckIn), nullableDate(rm.CheckOut), rm.SPTicketID, rm.ID)
	return AsConflict(err)
}

// placeholders returns n comma-joined "?" markers for IN clauses.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func nullableID(v *uint64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableStr(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(v *time.Time) interface{} {
	if v == nil {
		return nil
	}
	return v.UTC().Format("2006-01-02 15:04:05")
}

func nullableDate(v *time.Time) interface{} {
	if v == nil {
		return nil
	}
	return v.UTC().Format("2006-01-02")
}
