package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for respondent sessions
	SessionKeyPrefix = "session:"
	// AdminSessionKeyPrefix is the Redis key prefix for admin sessions
	AdminSessionKeyPrefix = "admin_session:"
)

// IdentityResolver maps bearer tokens issued by the auth service to identities.
type IdentityResolver interface {
	// ResolveRespondent returns the respondent id behind a session token.
	ResolveRespondent(ctx context.Context, token string) (string, bool, error)
	// ResolveAdmin returns the admin id behind an admin session token.
	ResolveAdmin(ctx context.Context, token string) (string, bool, error)
}

// SessionResolver reads sessions from Redis. Sessions are created by the auth
// service; this side only validates and refreshes them.
type SessionResolver struct {
	rdb *redis.Client
}

func NewSessionResolver(rdb *redis.Client) *SessionResolver {
	return &SessionResolver{rdb: rdb}
}

func (s *SessionResolver) ResolveRespondent(ctx context.Context, token string) (string, bool, error) {
	return s.resolve(ctx, SessionKeyPrefix, token, false)
}

// ResolveAdmin also extends the admin session by SessionDuration, matching the
// sliding expiry of the back office.
func (s *SessionResolver) ResolveAdmin(ctx context.Context, token string) (string, bool, error) {
	return s.resolve(ctx, AdminSessionKeyPrefix, token, true)
}

func (s *SessionResolver) resolve(ctx context.Context, prefix, token string, refresh bool) (string, bool, error) {
	if token == "" || s.rdb == nil {
		return "", false, nil
	}

	sessionKey := prefix + token
	idStr, err := s.rdb.Get(ctx, sessionKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return "", false, err
	}

	if refresh {
		if err := s.rdb.Expire(ctx, sessionKey, SessionDuration).Err(); err != nil {
			return "", false, err
		}
	}

	return id.String(), true, nil
}
