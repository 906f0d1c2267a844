package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig tunes the per-IP request limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64       // Sustained rate per IP
	Burst             int           // Token bucket depth per IP
	CleanupInterval   time.Duration // Sweep cadence for idle buckets
}

// DefaultRateLimitConfig is sized for a public arcade deployment: generous
// enough for a browser client polling state, tight enough to blunt scripts.
var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerSecond: 20,
	Burst:             40,
	CleanupInterval:   5 * time.Minute,
}

type ipBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// IPRateLimiter hands each client IP its own token bucket. Buckets that go
// quiet are swept so the map stays bounded.
type IPRateLimiter struct {
	buckets  sync.Map // ip -> *ipBucket
	config   RateLimitConfig
	stopChan chan struct{}
	stopOnce sync.Once

	rejected uint64 // atomic
	allowed  uint64 // atomic
}

// NewIPRateLimiter creates the limiter and starts its sweep goroutine.
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	rl := &IPRateLimiter{
		config:   cfg,
		stopChan: make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Stop halts the sweep goroutine. Idempotent.
func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopChan)
	})
}

// Allow consumes one token for the IP, creating its bucket on first sight.
func (rl *IPRateLimiter) Allow(ip string) bool {
	if rl.bucketFor(ip).Allow() {
		atomic.AddUint64(&rl.allowed, 1)
		return true
	}
	atomic.AddUint64(&rl.rejected, 1)
	return false
}

func (rl *IPRateLimiter) bucketFor(ip string) *rate.Limiter {
	if v, ok := rl.buckets.Load(ip); ok {
		b := v.(*ipBucket)
		b.seen = time.Now()
		return b.lim
	}
	fresh := &ipBucket{
		lim:  rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst),
		seen: time.Now(),
	}
	v, _ := rl.buckets.LoadOrStore(ip, fresh)
	return v.(*ipBucket).lim
}

func (rl *IPRateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopChan:
			return
		case <-ticker.C:
			rl.sweepStale()
		}
	}
}

// sweepStale drops buckets idle for two sweep intervals. A client that
// returns later just gets a fresh full bucket.
func (rl *IPRateLimiter) sweepStale() {
	cutoff := time.Now().Add(-2 * rl.config.CleanupInterval)
	rl.buckets.Range(func(key, value interface{}) bool {
		if value.(*ipBucket).seen.Before(cutoff) {
			rl.buckets.Delete(key)
		}
		return true
	})
}

// Middleware rejects over-limit requests with 429 before they reach the
// router.
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(GetClientIP(r)) {
			RecordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetStats reports allow/reject counters for the stats endpoint.
func (rl *IPRateLimiter) GetStats() map[string]uint64 {
	return map[string]uint64{
		"allowed":  atomic.LoadUint64(&rl.allowed),
		"rejected": atomic.LoadUint64(&rl.rejected),
	}
}

// GetClientIP resolves the caller's address, preferring proxy headers.
// X-Forwarded-For is trusted as-is; run behind a proxy that rewrites it.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First hop in the chain is the original client.
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// WebSocketRateLimiter caps concurrent socket connections per IP.
type WebSocketRateLimiter struct {
	counts   sync.Map // ip -> *int32
	maxPerIP int

	rejected uint64 // atomic
}

// NewWebSocketRateLimiter creates a per-IP connection cap.
func NewWebSocketRateLimiter(maxPerIP int) *WebSocketRateLimiter {
	return &WebSocketRateLimiter{maxPerIP: maxPerIP}
}

// Allow claims a connection slot for the IP. The CAS loop keeps the check
// and increment atomic under concurrent dials from one address.
func (wrl *WebSocketRateLimiter) Allow(ip string) bool {
	v, _ := wrl.counts.LoadOrStore(ip, new(int32))
	counter := v.(*int32)

	for {
		current := atomic.LoadInt32(counter)
		if int(current) >= wrl.maxPerIP {
			atomic.AddUint64(&wrl.rejected, 1)
			return false
		}
		if atomic.CompareAndSwapInt32(counter, current, current+1) {
			return true
		}
	}
}

// Release returns the slot claimed by Allow.
func (wrl *WebSocketRateLimiter) Release(ip string) {
	if v, ok := wrl.counts.Load(ip); ok {
		atomic.AddInt32(v.(*int32), -1)
	}
}

// GetConnectionCount reports live connections for an IP.
func (wrl *WebSocketRateLimiter) GetConnectionCount(ip string) int {
	if v, ok := wrl.counts.Load(ip); ok {
		return int(atomic.LoadInt32(v.(*int32)))
	}
	return 0
}

// GetStats reports the reject counter for the stats endpoint.
func (wrl *WebSocketRateLimiter) GetStats() map[string]uint64 {
	return map[string]uint64{
		"rejected": atomic.LoadUint64(&wrl.rejected),
	}
}

// AllowedOrigins is the origin allowlist shared by CORS and the websocket
// upgrader. "*" accepts everything; the game client is a static browser
// bundle that may be hosted anywhere, so the default stays open and
// deployments tighten it via ALLOWED_ORIGIN.
var AllowedOrigins = []string{"*"}

// SetAllowedOrigins replaces the origin allowlist. Call once at startup,
// before any connections are accepted.
func SetAllowedOrigins(origins []string) {
	if len(origins) > 0 {
		AllowedOrigins = origins
	}
}

// IsAllowedOrigin reports whether an origin may connect. Localhost always
// may, which keeps local development working under a tightened allowlist.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	if strings.HasPrefix(origin, "http://localhost") || strings.HasPrefix(origin, "http://127.0.0.1") {
		return true
	}
	for _, allowed := range AllowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
		// "https://*.example.com" matches any subdomain.
		if strings.HasPrefix(allowed, "https://*.") &&
			strings.HasSuffix(origin, allowed[len("https://*"):]) {
			return true
		}
	}
	return false
}
