package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker_ThresholdSuppressesTransientFailures(t *testing.T) {
	c := NewChecker()
	calls := 0
	c.Register("flaky", Readiness, time.Second, 3, func(_ context.Context) error {
		calls++
		return errors.New("down")
	})

	c.poll(context.Background())
	assert.Empty(t, c.failures(Readiness), "one failure is below the threshold")

	c.poll(context.Background())
	c.poll(context.Background())
	failures := c.failures(Readiness)
	require.Contains(t, failures, "flaky")
	assert.Equal(t, "down", failures["flaky"])
	assert.Equal(t, 3, calls)
}

func TestChecker_RecoveryResetsCounter(t *testing.T) {
	c := NewChecker()
	var fail bool
	c.Register("db", Readiness, time.Second, 2, func(_ context.Context) error {
		if fail {
			return errors.New("down")
		}
		return nil
	})

	fail = true
	c.poll(context.Background())
	c.poll(context.Background())
	require.Contains(t, c.failures(Readiness), "db")

	fail = false
	c.poll(context.Background())
	assert.Empty(t, c.failures(Readiness))
}

func TestChecker_KindsSeparated(t *testing.T) {
	c := NewChecker()
	c.Register("leak", Liveness, time.Second, 1, func(_ context.Context) error {
		return errors.New("too many goroutines")
	})

	c.poll(context.Background())

	assert.Contains(t, c.failures(Liveness), "leak")
	assert.Empty(t, c.failures(Readiness))
}

func TestReadyHandler_ManualGate(t *testing.T) {
	c := NewChecker()

	rec := httptest.NewRecorder()
	c.ReadyHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not marked ready")

	c.SetReady(true)
	rec = httptest.NewRecorder()
	c.ReadyHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestLiveHandler(t *testing.T) {
	c := NewChecker()
	c.Register("probe", Liveness, time.Second, 1, func(_ context.Context) error {
		return errors.New("wedged")
	})

	rec := httptest.NewRecorder()
	c.LiveHandler(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "probe has not run yet")

	c.poll(context.Background())
	rec = httptest.NewRecorder()
	c.LiveHandler(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "wedged")
}

func TestGoroutineProbe(t *testing.T) {
	require.NoError(t, GoroutineProbe(1_000_000)(context.Background()))
	assert.Error(t, GoroutineProbe(0)(context.Background()))
}
