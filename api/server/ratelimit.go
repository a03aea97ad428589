package server

import (
	"log"
	"net"
	"net/http"
	"sync"
	"time"
)

const rateLimitWindow = 60 * time.Second

// Progressive ban durations; past the last one a client stays banned for good.
var banDurations = []time.Duration{
	10 * time.Minute,
	1 * time.Hour,
	24 * time.Hour,
}

const permabanDuration = 100 * 365 * 24 * time.Hour

// rateLimiter allows at most max requests per client per window and bans clients
// that go over it, for longer on every violation.
type rateLimiter struct {
	max int
	now func() time.Time

	mu        sync.Mutex
	requests  map[string][]time.Time
	banned    map[string]time.Time
	banCounts map[string]int
}

func newRateLimiter(max int) *rateLimiter {
	return &rateLimiter{
		max:       max,
		now:       time.Now,
		requests:  make(map[string][]time.Time),
		banned:    make(map[string]time.Time),
		banCounts: make(map[string]int),
	}
}

// allow records a request from client and reports whether it may proceed.
func (l *rateLimiter) allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()

	if expiry, ok := l.banned[client]; ok {
		if now.Before(expiry) {
			return false
		}
		delete(l.banned, client)
		log.Printf("[UNBAN] Ban expired for %s", client)
	}

	var recent []time.Time
	for _, t := range l.requests[client] {
		if now.Sub(t) < rateLimitWindow {
			recent = append(recent, t)
		}
	}
	recent = append(recent, now)
	l.requests[client] = recent
	if len(recent) <= l.max {
		return true
	}

	l.banCounts[client]++
	count := l.banCounts[client]
	dur := permabanDuration
	if count <= len(banDurations) {
		dur = banDurations[count-1]
	}
	l.banned[client] = now.Add(dur)
	delete(l.requests, client)
	log.Printf("[BAN] %s banned for %s (violation #%d)", client, dur, count)
	return false
}

func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
