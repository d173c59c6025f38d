package common

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter spaces requests to the same host at least interval apart.
// Hosts are independent of each other.
type HostLimiter struct {
	interval time.Duration
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewHostLimiter(interval time.Duration) *HostLimiter {
	return &HostLimiter{
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until host may be contacted again. A caller whose context
// cannot wait that long gets ErrRequestTimeout.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	if l == nil || l.interval <= 0 {
		return nil
	}
	if err := l.limiterFor(host).Wait(ctx); err != nil {
		return fmt.Errorf("%w: waiting for %s: %w", ErrRequestTimeout, host, err)
	}
	return nil
}

func (l *HostLimiter) limiterFor(host string) *rate.Limiter {
	key := strings.ToLower(strings.TrimSpace(host))

	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(l.interval), 1)
		l.limiters[key] = limiter
	}
	return limiter
}
