package model

import "time"

// Guest represents an event attendee as stored in the `guests` table.
// Guests are created by the external list ingestion and, once settled,
// always occupy exactly one room.  The room assignment is mutated only
// by the swap engine; credential rotation is the only other write.
//
// Email is the login key.  It is not unique at the row level, because
// one person may hold several tickets, but every row with the same email
// shares one credential hash.
type Guest struct {
	ID             uint64    // guests.id
	Email          string    // guests.email
	Name           string    // guests.name
	Ticket         string    // guests.ticket
	Transfer       string    // guests.transfer
	Invitation     string    // guests.invitation
	CredentialHash string    // guests.credential_hash
	RoomID         *uint64   // guests.room_id (nullable)
	CanLogin       bool      // guests.can_login
	CreatedAt      time.Time // guests.created_at
	UpdatedAt      time.Time // guests.updated_at
}
