// internal/pkg/ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	loginMaxAttempts = 5
	loginWindow      = 15 * time.Minute
)

type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// CheckLoginAttempt counts a login attempt and reports whether it is still
// allowed. Up to 5 attempts per IP/email pair per 15 minutes.
func (l *Limiter) CheckLoginAttempt(ctx context.Context, ip, email string) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}
	key := fmt.Sprintf("ratelimit:login:%s:%s", ip, email)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		// Rate limiting is advisory: a Redis hiccup must not lock users out.
		return true, err
	}
	if count == 1 {
		l.client.Expire(ctx, key, loginWindow)
	}

	return count <= loginMaxAttempts, nil
}
