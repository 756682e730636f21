package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRecorder(t *testing.T) {
	t.Parallel()

	m := NewInMemory()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncRegistration(StatusSuccess)
			m.IncLogin(StatusUnauthorized)
			m.ObserveHashDuration(time.Millisecond)
		}()
	}
	wg.Wait()
	m.IncRateLimited("/api/login")

	snap := m.Snapshot()
	assert.Equal(t, uint64(10), snap.Registrations[StatusSuccess])
	assert.Equal(t, uint64(10), snap.Logins[StatusUnauthorized])
	assert.Equal(t, uint64(10), snap.HashDurationCount)
	assert.Equal(t, int64(10*time.Millisecond), snap.HashDurationTotalNs)
	assert.Equal(t, uint64(1), snap.RateLimited["/api/login"])

	// Snapshots are copies.
	snap.Logins[StatusUnauthorized] = 0
	assert.Equal(t, uint64(10), m.Snapshot().Logins[StatusUnauthorized])
}

func TestPrometheusRecorder_Counters(t *testing.T) {
	t.Parallel()

	p := NewPrometheus()
	p.IncRegistration(StatusSuccess)
	p.IncRegistration(StatusDuplicate)
	p.IncRegistration(StatusDuplicate)
	p.IncLogin(StatusSuccess)
	p.ObserveHashDuration(20 * time.Millisecond)
	p.IncRateLimited("/api/register")

	assert.Equal(t, 1.0, testutil.ToFloat64(p.registrations.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.registrations.WithLabelValues(StatusDuplicate)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.logins.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.rateLimited.WithLabelValues("/api/register")))
	assert.Equal(t, 1, testutil.CollectAndCount(p.hashDuration))
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	t.Parallel()

	p := NewPrometheus()
	p.IncLogin(StatusUnauthorized)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(string(body), `bizdash_logins_total{status="unauthorized"} 1`))
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNoopRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder = NewNoop()
	r.IncRegistration(StatusSuccess)
	r.IncLogin(StatusError)
	r.ObserveHashDuration(time.Second)
	r.IncRateLimited("/api/login")
}
