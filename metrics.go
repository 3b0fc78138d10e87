package reqsched

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StatsCollector exposes a scheduler's statistics snapshot as
// prometheus metrics. Register it with any prometheus registry:
//
//	prometheus.MustRegister(reqsched.NewStatsCollector(s))
type StatsCollector struct {
	stats func() Statistics

	// queuedLen reads the pending-queue length at collection time.
	queuedLen func() int

	attempted       *prometheus.Desc
	active          *prometheus.Desc
	queued          *prometheus.Desc
	cancelled       *prometheus.Desc
	cancelledActive *prometheus.Desc
	failed          *prometheus.Desc
	dispatched      *prometheus.Desc
}

func NewStatsCollector[T any](s *Scheduler[T]) *StatsCollector {
	c := newStatsCollector(s.Stats)
	c.queuedLen = s.QueueLength
	return c
}

func newStatsCollector(stats func() Statistics) *StatsCollector {
	return &StatsCollector{
		stats: stats,
		attempted: prometheus.NewDesc("reqsched_requests_attempted_total",
			"Requests that reached the accounting path of Submit.", nil, nil),
		active: prometheus.NewDesc("reqsched_requests_active",
			"Currently active requests.", nil, nil),
		queued: prometheus.NewDesc("reqsched_requests_queued",
			"Requests pending admission.", nil, nil),
		cancelled: prometheus.NewDesc("reqsched_requests_cancelled_total",
			"Cancelled requests, including those cancelled while active.", nil, nil),
		cancelledActive: prometheus.NewDesc("reqsched_requests_cancelled_active_total",
			"Requests cancelled after dispatch.", nil, nil),
		failed: prometheus.NewDesc("reqsched_requests_failed_total",
			"Requests whose work function returned an error.", nil, nil),
		dispatched: prometheus.NewDesc("reqsched_requests_dispatched_total",
			"Requests ever dispatched.", nil, nil),
	}
}

func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.attempted
	ch <- c.active
	ch <- c.queued
	ch <- c.cancelled
	ch <- c.cancelledActive
	ch <- c.failed
	ch <- c.dispatched
}

func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.stats()
	ch <- prometheus.MustNewConstMetric(c.attempted, prometheus.CounterValue, float64(st.Attempted))
	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(st.Active))
	if c.queuedLen != nil {
		ch <- prometheus.MustNewConstMetric(c.queued, prometheus.GaugeValue, float64(c.queuedLen()))
	}
	ch <- prometheus.MustNewConstMetric(c.cancelled, prometheus.CounterValue, float64(st.Cancelled))
	ch <- prometheus.MustNewConstMetric(c.cancelledActive, prometheus.CounterValue, float64(st.CancelledActive))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(st.Failed))
	ch <- prometheus.MustNewConstMetric(c.dispatched, prometheus.CounterValue, float64(st.TotalActive))
}
