package folio

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoginLimiterBlocksAfterMaxFailures(t *testing.T) {
	limiter := NewLoginLimiter(2, 200*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.10"

	if !limiter.Check(ip) {
		t.Fatalf("expected first attempt to be allowed")
	}
	limiter.Record(ip)
	limiter.Done(ip)
	if !limiter.Check(ip) {
		t.Fatalf("expected second attempt to be allowed")
	}
	limiter.Record(ip)
	limiter.Done(ip)
	if limiter.Check(ip) {
		t.Fatalf("expected third attempt to be blocked")
	}
}

func TestLoginLimiterDoneReleasesAttempt(t *testing.T) {
	limiter := NewLoginLimiter(1, time.Minute)
	defer limiter.Stop()
	ip := "203.0.113.11"

	for i := 0; i < 5; i++ {
		if !limiter.Check(ip) {
			t.Fatalf("attempt %d should be allowed once the previous one is done", i)
		}
		limiter.Done(ip)
	}
}

func TestLoginLimiterCountsAttemptsInFlight(t *testing.T) {
	limiter := NewLoginLimiter(3, time.Minute)
	defer limiter.Stop()
	ip := "203.0.113.12"

	var allowed atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if limiter.Check(ip) {
				allowed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := allowed.Load(); got != 3 {
		t.Fatalf("expected 3 concurrent attempts to be allowed, got %d", got)
	}
}

func TestLoginLimiterCheckLeavesNoEntry(t *testing.T) {
	limiter := NewLoginLimiter(2, time.Minute)
	defer limiter.Stop()
	ip := "203.0.113.13"

	limiter.Check(ip)
	limiter.Done(ip)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if _, ok := limiter.failures[ip]; ok {
		t.Fatalf("expected no failure entry for %s", ip)
	}
	if _, ok := limiter.pending[ip]; ok {
		t.Fatalf("expected no pending entry for %s", ip)
	}
}

func TestLoginLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewLoginLimiter(1, 150*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.20"

	limiter.Record(ip)
	if limiter.Check(ip) {
		t.Fatalf("expected attempt to be blocked")
	}

	time.Sleep(200 * time.Millisecond)
	if !limiter.Check(ip) {
		t.Fatalf("expected attempt after window to be allowed")
	}
	limiter.Done(ip)
}

func TestLoginLimiterReset(t *testing.T) {
	limiter := NewLoginLimiter(1, time.Minute)
	defer limiter.Stop()
	ip := "203.0.113.21"

	limiter.Record(ip)
	limiter.Reset(ip)
	if !limiter.Check(ip) {
		t.Fatalf("expected attempt after reset to be allowed")
	}
	limiter.Done(ip)
}

func TestLoginLimiterIsPerIP(t *testing.T) {
	limiter := NewLoginLimiter(1, 200*time.Millisecond)
	defer limiter.Stop()

	limiter.Record("203.0.113.30")
	if !limiter.Check("203.0.113.31") {
		t.Fatalf("expected second ip to be allowed independently")
	}
	limiter.Done("203.0.113.31")
	if limiter.Check("203.0.113.30") {
		t.Fatalf("expected first ip to be blocked after max")
	}
	limiter.Stop()
	limiter.Stop()
}
