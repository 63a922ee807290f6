package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	playbackEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playhead_playback_events_total",
		Help: "Total number of playback lifecycle reports processed, by event.",
	}, []string{"event"})

	resumeDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playhead_resume_decisions_total",
		Help: "Total number of resume policy decisions, by outcome.",
	}, []string{"outcome"})

	subscriberFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playhead_subscriber_failures_total",
		Help: "Total number of event subscriber failures swallowed by the notifier.",
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playhead_active_sessions",
		Help: "Current number of registered sessions.",
	})
)
