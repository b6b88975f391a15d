package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counts(t *testing.T) {
	r := NewRecorder()

	r.ObserveAttempt("failure", 20*time.Millisecond)
	r.ObserveAttempt("failure", 30*time.Millisecond)
	r.ObserveAttempt("success", 10*time.Millisecond)
	r.ObserveAnswer("remote")
	r.ObserveAnswer("local")
	r.ObserveAnswer("local")
	r.ObserveEvent("text", "idle")
	r.ObserveStoreError("load")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.attemptsTotal.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.attemptsTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.answersTotal.WithLabelValues("local")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.eventsTotal.WithLabelValues("text", "idle")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.storeErrors.WithLabelValues("load")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.attemptDuration))
}

func TestRecorder_PrivateRegistries(t *testing.T) {
	a := NewRecorder()
	b := NewRecorder()
	a.ObserveAnswer("remote")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.answersTotal.WithLabelValues("remote")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.answersTotal.WithLabelValues("remote")))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.ObserveAnswer("degraded")

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `assistant_reasoning_answers_total{source="degraded"} 1`)
}
