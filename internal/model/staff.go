package model

import "time"

// Staff represents an operator account as stored in the `staff` table.
// Staff authenticate the same way guests do but carry the ADMIN role,
// which gates the audit and kill-switch endpoints.
type Staff struct {
	ID             uint64    // staff.id
	Email          string    // staff.email
	Name           string    // staff.name
	CredentialHash string    // staff.credential_hash
	IsAdmin        bool      // staff.is_admin
	CreatedAt      time.Time // staff.created_at
	UpdatedAt      time.Time // staff.updated_at
}
