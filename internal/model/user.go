package model

import "time"

// User represents an account that can authenticate and own reservations.
// Passwords are stored as bcrypt hashes; the raw password never leaves
// the registration and login handlers.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique, normalized to lower case.
//  PasswordHash – bcrypt hash of the password.
//  Role         – ADMIN or CUSTOMER.
//  IsActive     – soft-disable flag.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
