// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter counts hits per key in fixed windows. It is safe for concurrent use.
// Expired buckets are pruned on access, at most once per window.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]bucket
	limit     int
	window    time.Duration
	lastPrune time.Time
	now       func() time.Time
}

type bucket struct {
	hits  int
	reset time.Time
}

// New returns a limiter allowing limit hits per key in each window.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		buckets: make(map[string]bucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)

	b, ok := l.buckets[key]
	if !ok || !now.Before(b.reset) {
		l.buckets[key] = bucket{hits: 1, reset: now.Add(l.window)}
		return true
	}
	if b.hits >= l.limit {
		return false
	}
	b.hits++
	l.buckets[key] = b
	return true
}

// Remaining reports how many hits key has left in its current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || !l.now().Before(b.reset) {
		return l.limit
	}
	return max(l.limit-b.hits, 0)
}

// Reset forgets key's window.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

func (l *Limiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < l.window {
		return
	}
	l.lastPrune = now
	for k, b := range l.buckets {
		if !now.Before(b.reset) {
			delete(l.buckets, k)
		}
	}
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Limit types reported by LoginLimiter.Check.
const (
	LimitIP      = "ip"
	LimitAccount = "account"
)

// LoginLimiter rate-limits sign-in attempts per client IP and per username,
// so neither a single host nor a spread of hosts can hammer one account
// through to the backend token endpoint.
type LoginLimiter struct {
	ipLimiter      *Limiter
	accountLimiter *Limiter
}

// NewLoginLimiter creates a limiter configured for login protection.
// Defaults: 10 attempts per IP per minute, 5 attempts per username per 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return NewLoginLimiterWithConfig(10, time.Minute, 5, 5*time.Minute)
}

// NewLoginLimiterWithConfig creates a login limiter with custom limits.
func NewLoginLimiterWithConfig(ipLimit int, ipDuration time.Duration, accountLimit int, accountDuration time.Duration) *LoginLimiter {
	return &LoginLimiter{
		ipLimiter:      New(ipLimit, ipDuration),
		accountLimiter: New(accountLimit, accountDuration),
	}
}

// Check verifies if a login attempt should be allowed. When it is not, it
// returns the user-facing message and which limit tripped.
func (ll *LoginLimiter) Check(r *http.Request, username string) (allowed bool, msg, limitType string) {
	if !ll.ipLimiter.Allow(ClientIP(r)) {
		return false, "Too many login attempts. Please wait a minute before trying again.", LimitIP
	}
	if key := accountKey(username); key != "" {
		if !ll.accountLimiter.Allow(key) {
			return false, "Too many login attempts for this account. Please wait a few minutes.", LimitAccount
		}
	}
	return true, "", ""
}

// AccountRemaining reports how many attempts username has left before the
// per-account limit trips.
func (ll *LoginLimiter) AccountRemaining(username string) int {
	key := accountKey(username)
	if key == "" {
		return ll.accountLimiter.limit
	}
	return ll.accountLimiter.Remaining(key)
}

// ResetAccount clears the per-username limit after a successful login.
func (ll *LoginLimiter) ResetAccount(username string) {
	if key := accountKey(username); key != "" {
		ll.accountLimiter.Reset(key)
	}
}

func accountKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
