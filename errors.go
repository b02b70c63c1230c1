package gatekey

import "errors"

var (
	// ErrValidation is an exported constant or variable used by the authentication engine.
	ErrValidation = errors.New("invalid request fields")
	// ErrAccountExists is an exported constant or variable used by the authentication engine.
	ErrAccountExists = errors.New("account already exists")
	// ErrInvalidCredentials is an exported constant or variable used by the authentication engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is an exported constant or variable used by the authentication engine.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUserNotFound is an exported constant or variable used by the authentication engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrRateLimited is an exported constant or variable used by the authentication engine.
	ErrRateLimited = errors.New("rate limited")
	// ErrStoreUnavailable is an exported constant or variable used by the authentication engine.
	ErrStoreUnavailable = errors.New("identity store unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the authentication engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
