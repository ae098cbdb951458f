package main

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter throttles requests per client address.
type clientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newClientLimiter(perMinute int) *clientLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &clientLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

func (c *clientLimiter) allow(key string) bool {
	c.mu.Lock()
	l, ok := c.limiters[key]
	if !ok {
		l = rate.NewLimiter(c.limit, c.burst)
		c.limiters[key] = l
	}
	c.mu.Unlock()
	return l.Allow()
}

func (c *clientLimiter) middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !c.allow(clientAddr(r)) {
			writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later", nil)
			return
		}
		next(w, r)
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
