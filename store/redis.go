package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/gatekey"
)

// Redis defines a public type used by gatekey APIs.
//
// Redis instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis wraps an existing client. prefix namespaces every key; it
// defaults to "gatekey".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "gatekey"
	}
	return &Redis{
		client: client,
		prefix: prefix,
	}
}

func (s *Redis) emailKey(email string) string {
	return s.prefix + ":email:" + email
}

func (s *Redis) userKey(id string) string {
	return s.prefix + ":user:" + id
}

// InsertIfAbsent reserves the email with SETNX before writing the record.
// The reservation is the uniqueness guarantee: of two concurrent signups for
// the same email exactly one SETNX succeeds.
func (s *Redis) InsertIfAbsent(ctx context.Context, user gatekey.UserRecord) (string, error) {
	reserved, err := s.client.SetNX(ctx, s.emailKey(user.Email), user.ID, 0).Result()
	if err != nil {
		return "", fmt.Errorf("%w: setnx: %v", gatekey.ErrStoreUnavailable, err)
	}
	if !reserved {
		return "", gatekey.ErrAccountExists
	}

	err = s.client.HSet(ctx, s.userKey(user.ID),
		"id", user.ID,
		"name", user.Name,
		"email", user.Email,
		"password_hash", user.PasswordHash,
	).Err()
	if err != nil {
		// Release the reservation so a retry is not locked out forever.
		s.client.Del(context.WithoutCancel(ctx), s.emailKey(user.Email))
		return "", fmt.Errorf("%w: hset: %v", gatekey.ErrStoreUnavailable, err)
	}

	return user.ID, nil
}

// GetByEmail describes the getbyemail operation and its observable behavior.
//
// GetByEmail may return an error when input validation, dependency calls, or security checks fail.
// The email match is exact and case-sensitive.
func (s *Redis) GetByEmail(ctx context.Context, email string) (gatekey.UserRecord, error) {
	id, err := s.client.Get(ctx, s.emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return gatekey.UserRecord{}, gatekey.ErrUserNotFound
	}
	if err != nil {
		return gatekey.UserRecord{}, fmt.Errorf("%w: get: %v", gatekey.ErrStoreUnavailable, err)
	}

	fields, err := s.client.HGetAll(ctx, s.userKey(id)).Result()
	if err != nil {
		return gatekey.UserRecord{}, fmt.Errorf("%w: hgetall: %v", gatekey.ErrStoreUnavailable, err)
	}
	if len(fields) == 0 {
		return gatekey.UserRecord{}, gatekey.ErrUserNotFound
	}

	return gatekey.UserRecord{
		ID:           fields["id"],
		Name:         fields["name"],
		Email:        fields["email"],
		PasswordHash: fields["password_hash"],
	}, nil
}
