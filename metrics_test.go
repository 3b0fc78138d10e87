package reqsched

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestStatsCollectorRegisters(t *testing.T) {
	s := newTestScheduler(t, Options{})
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewStatsCollector(s)))
}

func TestStatsCollectorValues(t *testing.T) {
	s := newTestScheduler(t, Options{MaximumRequests: 1})
	g := newGate(t)

	_, err := s.Submit(throttled("https://a.com/1", 1, g.work("ok")))
	require.NoError(t, err)
	_, err = s.Submit(throttled("https://a.com/2", 2, g.work("ok")))
	require.NoError(t, err)
	s.Tick()

	expected := `
# HELP reqsched_requests_active Currently active requests.
# TYPE reqsched_requests_active gauge
reqsched_requests_active 1
# HELP reqsched_requests_attempted_total Requests that reached the accounting path of Submit.
# TYPE reqsched_requests_attempted_total counter
reqsched_requests_attempted_total 2
# HELP reqsched_requests_cancelled_active_total Requests cancelled after dispatch.
# TYPE reqsched_requests_cancelled_active_total counter
reqsched_requests_cancelled_active_total 0
# HELP reqsched_requests_cancelled_total Cancelled requests, including those cancelled while active.
# TYPE reqsched_requests_cancelled_total counter
reqsched_requests_cancelled_total 0
# HELP reqsched_requests_dispatched_total Requests ever dispatched.
# TYPE reqsched_requests_dispatched_total counter
reqsched_requests_dispatched_total 1
# HELP reqsched_requests_failed_total Requests whose work function returned an error.
# TYPE reqsched_requests_failed_total counter
reqsched_requests_failed_total 0
# HELP reqsched_requests_queued Requests pending admission.
# TYPE reqsched_requests_queued gauge
reqsched_requests_queued 1
`
	require.NoError(t, testutil.CollectAndCompare(NewStatsCollector(s), strings.NewReader(expected)))
}
