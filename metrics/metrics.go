package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meetscribe_active_sessions",
		Help: "Number of sessions currently held in the registry.",
	})

	AudioBytesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetscribe_audio_bytes_received_total",
		Help: "Total accepted audio chunk bytes across all sessions.",
	})

	SessionsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetscribe_sessions_evicted_total",
		Help: "Sessions removed by the idle sweep.",
	})

	Analyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetscribe_analyses_total",
		Help: "Transcript analysis runs by outcome.",
	}, []string{"outcome"})

	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetscribe_emails_total",
		Help: "Participant notification emails by outcome.",
	}, []string{"outcome"})
)
