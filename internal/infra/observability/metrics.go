// Package observability exposes Prometheus metrics for the engagement core:
// award volume, badge unlocks, validation outcomes, and security events.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all engagement metrics. A nil *Metrics is a no-op, so
// services can run without metrics wired (tests, library embedding).
type Metrics struct {
	awardsTotal     *prometheus.CounterVec
	pointsAwarded   prometheus.Counter
	badgeUnlocks    prometheus.Counter
	levelUps        prometheus.Counter
	awardDuration   prometheus.Histogram
	validations     *prometheus.CounterVec
	securityEvents  *prometheus.CounterVec
	rateLimitDenies prometheus.Counter
}

// New registers the engagement metrics on reg. Pass
// prometheus.DefaultRegisterer in the daemon; tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		awardsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "engage_awards_total",
			Help: "Point awards by activity type and outcome.",
		}, []string{"activity_type", "outcome"}),
		pointsAwarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "engage_points_awarded_total",
			Help: "Total points credited across all users.",
		}),
		badgeUnlocks: factory.NewCounter(prometheus.CounterOpts{
			Name: "engage_badge_unlocks_total",
			Help: "Badges newly unlocked.",
		}),
		levelUps: factory.NewCounter(prometheus.CounterOpts{
			Name: "engage_level_ups_total",
			Help: "Level boundaries crossed.",
		}),
		awardDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "engage_award_duration_seconds",
			Help:    "AwardPoints end-to-end latency.",
			Buckets: prometheus.DefBuckets,
		}),
		validations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "engage_validations_total",
			Help: "Award validations by outcome.",
		}, []string{"outcome"}),
		securityEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "engage_security_events_total",
			Help: "Security events by kind and severity.",
		}, []string{"kind", "severity"}),
		rateLimitDenies: factory.NewCounter(prometheus.CounterOpts{
			Name: "engage_rate_limit_denies_total",
			Help: "Scan attempts rejected by the rate limiter.",
		}),
	}
}

// ObserveAward records one AwardPoints call.
func (m *Metrics) ObserveAward(activityType string, points int64, unlocks int, leveledUp bool, took time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.awardsTotal.WithLabelValues(activityType, outcome).Inc()
	m.awardDuration.Observe(took.Seconds())
	if err != nil {
		return
	}
	m.pointsAwarded.Add(float64(points))
	m.badgeUnlocks.Add(float64(unlocks))
	if leveledUp {
		m.levelUps.Inc()
	}
}

// ObserveValidation records one ValidateAward outcome.
func (m *Metrics) ObserveValidation(authorized bool) {
	if m == nil {
		return
	}
	outcome := "denied"
	if authorized {
		outcome = "authorized"
	}
	m.validations.WithLabelValues(outcome).Inc()
}

// ObserveSecurityEvent records one classified security event.
func (m *Metrics) ObserveSecurityEvent(kind, severity string) {
	if m == nil {
		return
	}
	m.securityEvents.WithLabelValues(kind, severity).Inc()
}

// ObserveRateLimitDeny records one rejected scan attempt.
func (m *Metrics) ObserveRateLimitDeny() {
	if m == nil {
		return
	}
	m.rateLimitDenies.Inc()
}
