package api

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/mkarrel/kinotek/internal/httputil"
)

// ipLimiter throttles credential endpoints per client IP: burst of 5,
// refilling one attempt per second. Entries are created on first sight
// and live for the process lifetime; an admin tool sees few distinct IPs.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newIPLimiter() *ipLimiter {
	return &ipLimiter{limiters: make(map[string]*rate.Limiter)}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(1), 5)
		l.limiters[ip] = lim
	}
	return lim
}

func (l *ipLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.get(ip).Allow() {
			httputil.WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many attempts, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}
