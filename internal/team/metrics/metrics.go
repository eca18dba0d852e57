// Package metrics exposes the team service's prometheus collectors. All
// methods are safe on a nil *Metrics so services can run without them.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation labels.
const (
	OpInvite     = "invite"
	OpRequestOTP = "request_otp"
	OpVerifyOTP  = "verify_otp"
	OpFinalize   = "finalize"
	OpList       = "list"
	OpLogin      = "login"
	OpRefresh    = "refresh"
	OpRemove     = "remove"
	OpBootstrap  = "bootstrap"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

type Config struct {
	Service string
	Env     string
}

type Metrics struct {
	operations    *prometheus.CounterVec
	notifications *prometheus.CounterVec
	housekeeping  prometheus.Counter
	httpDuration  *prometheus.HistogramVec
}

func New(reg prometheus.Registerer, cfg Config) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	service := strings.TrimSpace(cfg.Service)
	if service == "" {
		service = "team"
	}
	env := strings.TrimSpace(cfg.Env)
	if env == "" {
		env = "unknown"
	}
	constLabels := prometheus.Labels{"service": service, "env": env}

	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "team_operations_total",
			Help:        "Team operations by name and outcome.",
			ConstLabels: constLabels,
		}, []string{"op", "outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "team_notifications_total",
			Help:        "Notification attempts by kind and outcome.",
			ConstLabels: constLabels,
		}, []string{"kind", "outcome"}),
		housekeeping: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "team_expired_setup_tokens_removed_total",
			Help:        "Expired setup tokens removed by housekeeping.",
			ConstLabels: constLabels,
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "team_http_request_duration_seconds",
			Help:        "HTTP request latency by route and status code.",
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			ConstLabels: constLabels,
		}, []string{"route", "code"}),
	}
	reg.MustRegister(m.operations, m.notifications, m.housekeeping, m.httpDuration)
	return m
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// Observe counts one run of op.
func (m *Metrics) Observe(op string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) Notification(kind string, err error) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, outcome(err)).Inc()
}

func (m *Metrics) SetupTokensRemoved(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.housekeeping.Add(float64(n))
}

func (m *Metrics) ObserveHTTP(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(route, strconv.Itoa(code)).Observe(d.Seconds())
}
