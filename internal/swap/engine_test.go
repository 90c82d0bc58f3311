package swap

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Take3Presents/RoomBot/internal/model"
	"github.com/Take3Presents/RoomBot/internal/repository"
)

// The engine tests replay full statement transcripts against a mocked
// driver.  The mock matches expectations in order, so they double as a
// check on the locking discipline: rooms locked in ascending ID order,
// the advisory lock consulted inside the transaction, the code re-read
// under its own lock before any mutation.

var roomCols = []string{
	"id", "number", "hotel", "room_type", "hotel_room_name",
	"is_available", "is_swappable", "is_smoking", "is_lakeview", "is_ada",
	"is_hearing_accessible", "is_special", "swap_code", "swap_code_at", "swap_at",
	"check_in", "check_out", "sp_ticket_id", "primary_name", "secondary_name",
	"notes", "guest_id", "created_at", "updated_at",
}

var guestCols = []string{
	"id", "email", "name", "ticket", "transfer", "invitation",
	"credential_hash", "room_id", "can_login", "created_at", "updated_at",
}

var codeCols = []string{"id", "room_id", "code", "status", "issued_at", "redeemed_at", "created_at"}

func strVal(v *string) driver.Value {
	if v == nil {
		return nil
	}
	return *v
}

func timeVal(v *time.Time) driver.Value {
	if v == nil {
		return nil
	}
	return *v
}

func idVal(v *uint64) driver.Value {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func roomRow(rm *model.Room) []driver.Value {
	return []driver.Value{
		int64(rm.ID), rm.Number, rm.Hotel, rm.RoomType, rm.HotelRoomName,
		rm.IsAvailable, rm.IsSwappable, rm.IsSmoking, rm.IsLakeview, rm.IsADA,
		rm.IsHearingAccessible, rm.IsSpecial, strVal(rm.SwapCode), timeVal(rm.SwapCodeAt), timeVal(rm.SwapAt),
		timeVal(rm.CheckIn), timeVal(rm.CheckOut), rm.SPTicketID, rm.Primary, rm.Secondary,
		rm.Notes, idVal(rm.GuestID), testNow, testNow,
	}
}

func guestRow(g *model.Guest) []driver.Value {
	return []driver.Value{
		int64(g.ID), g.Email, g.Name, g.Ticket, g.Transfer, g.Invitation,
		g.CredentialHash, idVal(g.RoomID), g.CanLogin, testNow, testNow,
	}
}

func codeRow(c *model.SwapCode) []driver.Value {
	return []driver.Value{
		int64(c.ID), int64(c.RoomID), c.Code, c.Status, c.IssuedAt, timeVal(c.RedeemedAt), testNow,
	}
}

func mockEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	e := NewEngine(db,
		repository.NewRoomRepo(db), repository.NewGuestRepo(db),
		repository.NewSwapCodeRepo(db), repository.NewSwapLogRepo(db),
		NewPhraseStrategy(), NewSettings(true, 24*time.Hour, 15*time.Minute), nil)
	e.now = func() time.Time { return testNow }
	return e, mock
}

func freeLockRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"free"}).AddRow(int64(1))
}

func TestRedeem_LocksRoomsInAscendingIDOrder(t *testing.T) {
	e, mock := mockEngine(t)

	issued := testNow.Add(-time.Hour)
	code := activeCode(7, issued)
	stamp := testNow.Format("2006-01-02 15:04:05")

	// Room 7 owns the code, Ann in room 3 redeems it.
	theirs := guestRoom(7, "King")
	theirs.Primary = "Bob Example"
	theirs.SPTicketID = "SP-107"
	theirs.SwapCode = &code.Code
	theirs.SwapCodeAt = &issued

	ours := guestRoom(3, "King")
	ours.Primary = "Ann Example"
	ours.SPTicketID = "SP-103"

	ann := &model.Guest{ID: 103, Email: "ann@example.com", Name: "Ann Example", RoomID: &ours.ID, CanLogin: true}
	bob := &model.Guest{ID: 107, Email: "bob@example.com", Name: "Bob Example", RoomID: &theirs.ID, CanLogin: true}

	mock.ExpectQuery(`FROM swap_codes WHERE code = \?$`).WithArgs(code.Code).
		WillReturnRows(sqlmock.NewRows(codeCols).AddRow(codeRow(code)...))
	mock.ExpectQuery(`FROM guests WHERE email = \? ORDER BY id`).WithArgs(ann.Email).
		WillReturnRows(sqlmock.NewRows(guestCols).AddRow(guestRow(ann)...))

	mock.ExpectBegin()
	// Room 3 must be locked before room 7 even though the code names 7.
	mock.ExpectQuery(`FROM rooms WHERE id = \? FOR UPDATE`).WithArgs(3).
		WillReturnRows(sqlmock.NewRows(roomCols).AddRow(roomRow(ours)...))
	mock.ExpectQuery(`FROM rooms WHERE id = \? FOR UPDATE`).WithArgs(7).
		WillReturnRows(sqlmock.NewRows(roomCols).AddRow(roomRow(theirs)...))
	mock.ExpectQuery(`SELECT IS_FREE_LOCK\(\?\)`).WillReturnRows(freeLockRows())
	mock.ExpectQuery(`FROM swap_codes WHERE code = \? FOR UPDATE`).WithArgs(code.Code).
		WillReturnRows(sqlmock.NewRows(codeCols).AddRow(codeRow(code)...))
	mock.ExpectQuery(`FROM guests WHERE id = \? FOR UPDATE`).WithArgs(103).
		WillReturnRows(sqlmock.NewRows(guestCols).AddRow(guestRow(ann)...))
	mock.ExpectQuery(`FROM guests WHERE id = \? FOR UPDATE`).WithArgs(107).
		WillReturnRows(sqlmock.NewRows(guestCols).AddRow(guestRow(bob)...))
	mock.ExpectQuery(`FROM guests WHERE id = \? FOR UPDATE`).WithArgs(103).
		WillReturnRows(sqlmock.NewRows(guestCols).AddRow(guestRow(ann)...))

	mock.ExpectExec(`SET guest_id = \?, swap_code = \?`).
		WithArgs(103, nil, nil, stamp, "Ann Example", "", nil, nil, "SP-103", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SET guest_id = \?, swap_code = \?`).
		WithArgs(107, nil, nil, stamp, "Bob Example", "", nil, nil, "SP-107", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE guests SET room_id = \? WHERE id = \?`).WithArgs(3, 107).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE guests SET room_id = \? WHERE id = \?`).WithArgs(7, 103).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE swap_codes SET status = \?, redeemed_at = \? WHERE id = \?`).
		WithArgs(model.CodeRedeemed, stamp, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO swaps`).WithArgs(7, 3, 107, 103, code.Code).
		WillReturnResult(sqlmock.NewResult(41, 1))
	mock.ExpectCommit()

	res, err := e.Redeem(context.Background(), code.Code, ann.Email)
	require.NoError(t, err)
	assert.Equal(t, "107", res.RoomNumber)
	assert.Equal(t, "Grand", res.Hotel)
	assert.Equal(t, "Bob Example", res.PartnerName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeem_CodeRedeemedUnderLockReturnsAlreadyRedeemed(t *testing.T) {
	e, mock := mockEngine(t)

	issued := testNow.Add(-time.Hour)
	code := activeCode(7, issued)

	theirs := guestRoom(7, "King")
	ours := guestRoom(3, "King")
	ann := &model.Guest{ID: 103, Email: "ann@example.com", Name: "Ann Example", RoomID: &ours.ID, CanLogin: true}

	// The unlocked pre-check still sees the code as active.
	mock.ExpectQuery(`FROM swap_codes WHERE code = \?$`).WithArgs(code.Code).
		WillReturnRows(sqlmock.NewRows(codeCols).AddRow(codeRow(code)...))
	mock.ExpectQuery(`FROM guests WHERE email = \? ORDER BY id`).WithArgs(ann.Email).
		WillReturnRows(sqlmock.NewRows(guestCols).AddRow(guestRow(ann)...))

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM rooms WHERE id = \? FOR UPDATE`).WithArgs(3).
		WillReturnRows(sqlmock.NewRows(roomCols).AddRow(roomRow(ours)...))
	mock.ExpectQuery(`FROM rooms WHERE id = \? FOR UPDATE`).WithArgs(7).
		WillReturnRows(sqlmock.NewRows(roomCols).AddRow(roomRow(theirs)...))
	mock.ExpectQuery(`SELECT IS_FREE_LOCK\(\?\)`).WillReturnRows(freeLockRows())

	// By the time the row lock is granted another redemption has won.
	consumed := *code
	consumed.Status = model.CodeRedeemed
	redeemedAt := testNow.Add(-time.Minute)
	consumed.RedeemedAt = &redeemedAt
	mock.ExpectQuery(`FROM swap_codes WHERE code = \? FOR UPDATE`).WithArgs(code.Code).
		WillReturnRows(sqlmock.NewRows(codeCols).AddRow(codeRow(&consumed)...))
	mock.ExpectQuery(`FROM guests WHERE id = \? FOR UPDATE`).WithArgs(103).
		WillReturnRows(sqlmock.NewRows(guestCols).AddRow(guestRow(ann)...))
	mock.ExpectRollback()

	res, err := e.Redeem(context.Background(), code.Code, ann.Email)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrCodeAlreadyRedeemed)
	// No UPDATE or INSERT was expected, so a met transcript proves the
	// losing redemption wrote nothing.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueCode_ReusesUnexpiredActiveCode(t *testing.T) {
	e, mock := mockEngine(t)

	issued := testNow.Add(-time.Hour)
	existing := activeCode(7, issued)

	room := guestRoom(7, "King")
	bob := &model.Guest{ID: 107, Email: "bob@example.com", Name: "Bob Example", RoomID: &room.ID, CanLogin: true}

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM rooms WHERE id = \? FOR UPDATE`).WithArgs(7).
		WillReturnRows(sqlmock.NewRows(roomCols).AddRow(roomRow(room)...))
	mock.ExpectQuery(`SELECT IS_FREE_LOCK\(\?\)`).WillReturnRows(freeLockRows())
	mock.ExpectQuery(`FROM guests WHERE id = \? FOR UPDATE`).WithArgs(107).
		WillReturnRows(sqlmock.NewRows(guestCols).AddRow(guestRow(bob)...))
	mock.ExpectQuery(`FROM swap_codes WHERE room_id = \? AND status = \?`).
		WithArgs(7, model.CodeActive).
		WillReturnRows(sqlmock.NewRows(codeCols).AddRow(codeRow(existing)...))
	mock.ExpectCommit()

	got, err := e.IssueCode(context.Background(), 7, bob.Email)
	require.NoError(t, err)
	assert.Equal(t, existing.Code, got.Code)
	assert.True(t, existing.IssuedAt.Equal(got.IssuedAt))
	assert.True(t, existing.IssuedAt.Add(24*time.Hour).Equal(got.ExpiresAt))
	// A met transcript with no INSERT proves the repeated request minted
	// nothing new.
	assert.NoError(t, mock.ExpectationsWereMet())
}
