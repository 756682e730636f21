package metrics

import (
	"sync"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Registrations       map[string]uint64
	Logins              map[string]uint64
	HashDurationCount   uint64
	HashDurationTotalNs int64
	RateLimited         map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu                  sync.Mutex
	registrations       map[string]uint64
	logins              map[string]uint64
	hashDurationCount   uint64
	hashDurationTotalNs int64
	rateLimited         map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		registrations: make(map[string]uint64),
		logins:        make(map[string]uint64),
		rateLimited:   make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Registrations:       copyCounts(m.registrations),
		Logins:              copyCounts(m.logins),
		HashDurationCount:   m.hashDurationCount,
		HashDurationTotalNs: m.hashDurationTotalNs,
		RateLimited:         copyCounts(m.rateLimited),
	}
}

// IncRegistration counts a registration attempt by outcome.
func (m *InMemoryRecorder) IncRegistration(status string) {
	m.mu.Lock()
	m.registrations[status]++
	m.mu.Unlock()
}

// IncLogin counts a login attempt by outcome.
func (m *InMemoryRecorder) IncLogin(status string) {
	m.mu.Lock()
	m.logins[status]++
	m.mu.Unlock()
}

// ObserveHashDuration records time spent hashing or verifying a password.
func (m *InMemoryRecorder) ObserveHashDuration(duration time.Duration) {
	m.mu.Lock()
	m.hashDurationCount++
	m.hashDurationTotalNs += duration.Nanoseconds()
	m.mu.Unlock()
}

// IncRateLimited counts a rejected request by route.
func (m *InMemoryRecorder) IncRateLimited(route string) {
	m.mu.Lock()
	m.rateLimited[route]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
