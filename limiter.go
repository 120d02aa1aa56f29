package folio

import (
	"sync"
	"time"
)

// LoginLimiter rate-limits failed login attempts per IP address.
type LoginLimiter struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	pending  map[string]int
	max      int
	window   time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewLoginLimiter creates a LoginLimiter that blocks an IP after max failures
// inside window. Call Stop to end the background sweep.
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	l := &LoginLimiter{
		failures: make(map[string][]time.Time),
		pending:  make(map[string]int),
		max:      max,
		window:   window,
		done:     make(chan struct{}),
	}
	go l.sweep()
	return l
}

func (l *LoginLimiter) sweep() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-l.window)
			l.mu.Lock()
			for ip := range l.failures {
				if l.pruneLocked(ip, cutoff) == 0 {
					delete(l.failures, ip)
				}
			}
			l.mu.Unlock()
		case <-l.done:
			return
		}
	}
}

// pruneLocked drops failures older than cutoff and returns how many remain.
// IPs without failures are removed from the map.
func (l *LoginLimiter) pruneLocked(ip string, cutoff time.Time) int {
	hits, ok := l.failures[ip]
	if !ok {
		return 0
	}
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, ip)
		return 0
	}
	l.failures[ip] = kept
	return len(kept)
}

// Check reserves a login attempt for the IP and reports whether it may
// proceed. Attempts still in flight count against the limit, so concurrent
// requests cannot overshoot it. Every allowed Check must be paired with Done.
func (l *LoginLimiter) Check(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pruneLocked(ip, time.Now().Add(-l.window))+l.pending[ip] >= l.max {
		return false
	}
	l.pending[ip]++
	return true
}

// Done releases an attempt reserved by Check.
func (l *LoginLimiter) Done(ip string) {
	l.mu.Lock()
	if l.pending[ip] <= 1 {
		delete(l.pending, ip)
	} else {
		l.pending[ip]--
	}
	l.mu.Unlock()
}

// Record registers a failed login attempt for the given IP.
func (l *LoginLimiter) Record(ip string) {
	l.mu.Lock()
	l.failures[ip] = append(l.failures[ip], time.Now())
	l.mu.Unlock()
}

// Reset forgets the failures of an IP after a successful login.
func (l *LoginLimiter) Reset(ip string) {
	l.mu.Lock()
	delete(l.failures, ip)
	l.mu.Unlock()
}

// Stop ends the background sweep. It is safe to call more than once.
func (l *LoginLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}
