package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Verifier checks a username/password pair. A non-nil error means the
// check itself could not be performed, not that the credentials were wrong.
type Verifier interface {
	Verify(ctx context.Context, username, password string) (bool, error)
}

// StaticVerifier accepts exactly one configured credential pair.
type StaticVerifier struct {
	username []byte
	password []byte
}

func NewStaticVerifier(username, password string) *StaticVerifier {
	return &StaticVerifier{username: []byte(username), password: []byte(password)}
}

func (v *StaticVerifier) Verify(_ context.Context, username, password string) (bool, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), v.username) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), v.password) == 1
	return userOK && passOK, nil
}

// RedisVerifier looks up bcrypt hashes stored in a redis hash keyed by username.
type RedisVerifier struct {
	client redis.Cmdable
	key    string
}

func NewRedisVerifier(client redis.Cmdable, key string) *RedisVerifier {
	return &RedisVerifier{client: client, key: key}
}

func (v *RedisVerifier) Verify(ctx context.Context, username, password string) (bool, error) {
	hash, err := v.client.HGet(ctx, v.key, username).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("failed to compare password hash: %w", err)
	}
	return true, nil
}

// SetCredential stores a bcrypt hash of password for username.
func (v *RedisVerifier) SetCredential(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := v.client.HSet(ctx, v.key, username, string(hash)).Err(); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	return nil
}
