// Package store provides gatekey.UserStore implementations.
//
// Redis keeps identities in a Redis instance, using SETNX on the email index
// so the uniqueness check and the reservation happen in one atomic step.
// Memory keeps identities in process memory under a mutex and is intended for
// tests and single-node development.
package store
