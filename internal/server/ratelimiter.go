package server

import (
	"sync"
	"time"
)

// admissionLimiter bounds pipeline requests with a one-minute sliding window
// per client and a global cap on requests in flight.
type admissionLimiter struct {
	mu                sync.Mutex
	requestsPerMinute int
	maxConcurrent     int
	clients           map[string][]time.Time
	inFlight          int
	now               func() time.Time
}

func newAdmissionLimiter(requestsPerMinute, maxConcurrent int) *admissionLimiter {
	return &admissionLimiter{
		requestsPerMinute: requestsPerMinute,
		maxConcurrent:     maxConcurrent,
		clients:           make(map[string][]time.Time),
		now:               time.Now,
	}
}

// acquire admits a request from client and records it. The returned reason is
// empty when the request was admitted; release must then be called once it
// finishes.
func (l *admissionLimiter) acquire(client string) (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.maxConcurrent > 0 && l.inFlight >= l.maxConcurrent {
		return false, "too many concurrent requests"
	}

	now := l.now()
	l.prune(now)

	requests := l.clients[client]
	if l.requestsPerMinute > 0 && len(requests) >= l.requestsPerMinute {
		return false, "rate limit exceeded"
	}

	l.clients[client] = append(requests, now)
	l.inFlight++
	return true, ""
}

func (l *admissionLimiter) release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inFlight > 0 {
		l.inFlight--
	}
}

// stats returns the client's requests in the current window and the requests
// in flight across all clients.
func (l *admissionLimiter) stats(client string) (requestCount, inFlight int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.now())
	return len(l.clients[client]), l.inFlight
}

// clientCount returns the number of clients with requests in the window.
func (l *admissionLimiter) clientCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.now())
	return len(l.clients)
}

// prune drops expired timestamps and forgets idle clients.
func (l *admissionLimiter) prune(now time.Time) {
	cutoff := now.Add(-time.Minute)
	for client, requests := range l.clients {
		valid := requests[:0]
		for _, t := range requests {
			if t.After(cutoff) {
				valid = append(valid, t)
			}
		}
		if len(valid) == 0 {
			delete(l.clients, client)
			continue
		}
		l.clients[client] = valid
	}
}
