package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLeaseNotHeld is returned when releasing or extending a lease whose token
// no longer matches, usually because it expired and another holder took it.
var ErrLeaseNotHeld = errors.New("lease not held")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// LeaseLocker hands out expiring single-holder leases (SET NX PX).
type LeaseLocker struct {
	client *redis.Client
	prefix string
}

// NewLeaseLocker creates a new LeaseLocker.
func NewLeaseLocker(client *redis.Client) *LeaseLocker {
	return &LeaseLocker{
		client: client,
		prefix: "lease:",
	}
}

// Acquire takes the lease for name under token. It reports false without
// error when someone else holds it.
func (l *LeaseLocker) Acquire(ctx context.Context, name, token string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.prefix+name, token, ttl).Result()
}

// Extend pushes the expiry of a held lease forward.
func (l *LeaseLocker) Extend(ctx context.Context, name, token string, ttl time.Duration) error {
	n, err := extendScript.Run(ctx, l.client, []string{l.prefix + name}, token, ttl.Milliseconds()).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLeaseNotHeld
	}
	return nil
}

// Release drops the lease if token still holds it.
func (l *LeaseLocker) Release(ctx context.Context, name, token string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.prefix + name}, token).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLeaseNotHeld
	}
	return nil
}
