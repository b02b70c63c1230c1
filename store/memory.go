package store

import (
	"context"
	"sync"

	"github.com/MrEthical07/gatekey"
)

// Memory defines a public type used by gatekey APIs.
//
// Memory is safe for concurrent use. Contents are lost on process exit.
type Memory struct {
	mu      sync.RWMutex
	byID    map[string]gatekey.UserRecord
	byEmail map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]gatekey.UserRecord),
		byEmail: make(map[string]string),
	}
}

// InsertIfAbsent describes the insertifabsent operation and its observable behavior.
//
// InsertIfAbsent may return an error when input validation, dependency calls, or security checks fail.
// The uniqueness check and the write happen under one lock, so two
// simultaneous signups for the same email cannot both succeed.
func (s *Memory) InsertIfAbsent(ctx context.Context, user gatekey.UserRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return "", gatekey.ErrAccountExists
	}

	s.byEmail[user.Email] = user.ID
	s.byID[user.ID] = user

	return user.ID, nil
}

// GetByEmail describes the getbyemail operation and its observable behavior.
//
// GetByEmail may return an error when input validation, dependency calls, or security checks fail.
// The email match is exact and case-sensitive.
func (s *Memory) GetByEmail(ctx context.Context, email string) (gatekey.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return gatekey.UserRecord{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return gatekey.UserRecord{}, gatekey.ErrUserNotFound
	}

	return s.byID[id], nil
}
