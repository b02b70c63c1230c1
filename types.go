package gatekey

import "context"

// UserRecord is the identity record held by the [UserStore]: an opaque
// unique ID, a display name, a unique email (matched case-sensitively,
// exactly as stored), and the password hash. Records are created at sign-up
// and read at login; the engine never mutates or deletes them.
type UserRecord struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
}

// UserStore is the interface that callers implement to integrate gatekey
// with their user database. It is deliberately narrow: the engine needs only
// lookup-by-email and insert-if-absent.
//
// Implementations must enforce email uniqueness atomically — two concurrent
// inserts with the same email must not both succeed. InsertIfAbsent returns
// the persisted ID on success and an error satisfying
// errors.Is(err, ErrAccountExists) when the email is already taken.
// GetByEmail returns an error satisfying errors.Is(err, ErrUserNotFound)
// for unknown emails.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (UserRecord, error)
	InsertIfAbsent(ctx context.Context, user UserRecord) (string, error)
}

// AuthResult is returned by [Engine.ValidateToken]. It carries the verified
// subject's ID and display name, nothing else; authorization beyond
// "authenticated" is out of scope.
type AuthResult struct {
	UserID string
	Name   string
}
