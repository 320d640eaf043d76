package session

import "github.com/prometheus/client_golang/prometheus"

// Metrics exports per-Run counters and a duration histogram to a
// Prometheus registry. It is optional: a Session with a nil Metrics simply
// skips export.
type Metrics struct {
	framesSent          prometheus.Counter
	framesRetransmitted prometheus.Counter
	acksReceived        prometheus.Counter
	framesRejected      prometheus.Counter
	runsSucceeded       prometheus.Counter
	runsAbandoned       prometheus.Counter
	duration            prometheus.Histogram
}

// NewMetrics creates and registers a Metrics against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "goarq_frames_sent_total",
			Help: "Data frames transmitted for the first time; retransmissions are counted separately.",
		}),
		framesRetransmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "goarq_frames_retransmitted_total",
			Help: "Data frames retransmitted after timeout.",
		}),
		acksReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "goarq_acks_received_total",
			Help: "ACK frames that survived the return trip.",
		}),
		framesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "goarq_frames_rejected_total",
			Help: "Frames the receiver rejected: failed CRC or out of order.",
		}),
		runsSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "goarq_session_runs_succeeded_total",
			Help: "Session.Run calls that delivered the message in full.",
		}),
		runsAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "goarq_session_runs_abandoned_total",
			Help: "Session.Run calls abandoned after exhausting retransmission attempts.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "goarq_session_duration_seconds",
			Help:    "Wall-clock duration of Session.Run calls.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.framesSent,
		m.framesRetransmitted,
		m.acksReceived,
		m.framesRejected,
		m.runsSucceeded,
		m.runsAbandoned,
		m.duration,
	)
	return m
}

// Observe records one Report's counters.
func (m *Metrics) Observe(r Report) {
	m.framesSent.Add(float64(r.Stats.FramesSent))
	m.framesRetransmitted.Add(float64(r.Stats.FramesRetransmitted))
	m.acksReceived.Add(float64(r.Stats.AcksReceived))
	m.framesRejected.Add(float64(r.ReceiverStats.Rejected))
	m.duration.Observe(r.Elapsed.Seconds())
	if r.Success {
		m.runsSucceeded.Inc()
	} else if r.AbandonedSeq >= 0 {
		m.runsAbandoned.Inc()
	}
}
