package monitor

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector(t *testing.T) {
	c := NewCollector("test")
	assert.NotNil(t, c.generationsTotal)
	assert.NotNil(t, c.generationDuration)
	assert.NotNil(t, c.successLatency)
	// 每种结果预先初始化，未发生时也会导出 0
	assert.Equal(t, len(Outcomes), testutil.CollectAndCount(c.generationsTotal))
}

func TestRecordGeneration(t *testing.T) {
	c := NewCollector("test")

	for i := 1; i <= 10; i++ {
		c.RecordGeneration(time.Duration(i)*100*time.Millisecond, OutcomeSuccess)
	}
	c.RecordGeneration(50*time.Millisecond, OutcomeUpstreamError)
	c.RecordGeneration(150*time.Millisecond, OutcomeRejected)

	assert.Equal(t, 10.0, testutil.ToFloat64(c.generationsTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.generationsTotal.WithLabelValues(OutcomeUpstreamError)))

	s := c.GetSnapshot()
	assert.Equal(t, int64(12), s.RequestCount)
	assert.Equal(t, int64(10), s.Outcomes[OutcomeSuccess])
	assert.Equal(t, int64(1), s.Outcomes[OutcomeRejected])
	assert.Equal(t, int64(0), s.Outcomes[OutcomeTranslateError])
	assert.InDelta(t, 550.0, s.SuccessLatencyAvg, 1e-6)
	assert.InDelta(t, 100.0, s.FailureLatencyAvg, 1e-6)
	assert.GreaterOrEqual(t, s.SuccessLatencyP50, 400.0)
	assert.LessOrEqual(t, s.SuccessLatencyP50, 700.0)
	assert.GreaterOrEqual(t, s.SuccessLatencyP95, 900.0)
	assert.Greater(t, s.Goroutines, 0)
}

func TestSnapshotEmpty(t *testing.T) {
	s := NewCollector("test").GetSnapshot()
	assert.Zero(t, s.RequestCount)
	assert.Zero(t, s.SuccessLatencyAvg)
	assert.Zero(t, s.SuccessLatencyP50)
	assert.Zero(t, s.FailureLatencyAvg)
}

func TestConcurrent(t *testing.T) {
	c := NewCollector("test")

	for i := 0; i < 8; i++ {
		c.IncrementConcurrent()
	}
	assert.Equal(t, int64(8), c.GetSnapshot().Concurrent)
	assert.Equal(t, 8.0, testutil.ToFloat64(c.inFlight))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.DecrementConcurrent()
		}()
	}
	wg.Wait()

	s := c.GetSnapshot()
	assert.Equal(t, int64(0), s.Concurrent)
	assert.Equal(t, int64(8), s.MaxConcurrent)
	assert.Equal(t, 8.0, testutil.ToFloat64(c.maxInFlight))
}

func TestHandler(t *testing.T) {
	c := NewCollector("test")
	c.RecordGeneration(time.Second, OutcomeSuccess)

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `test_generations_total{outcome="success"} 1`)
	assert.Contains(t, string(body), "test_generation_duration_seconds_bucket")
	assert.Contains(t, string(body), "test_generations_in_flight 0")
	assert.Contains(t, string(body), "go_goroutines")
}
