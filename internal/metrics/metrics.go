// Package metrics exposes Prometheus instruments for replay parsing, the
// report archive and the HTTP API.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scharissis/coh3-replay-analyser/internal/aggregate"
	"github.com/scharissis/coh3-replay-analyser/internal/archive"
	"github.com/scharissis/coh3-replay-analyser/internal/report"
)

const Namespace = "coh3"

// Parse outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeInput   = "input"
	OutcomeIO      = "io"
	OutcomeDecode  = "decode"
	OutcomeOther   = "other"
)

// Archive save results.
const (
	ArchiveStored    = "stored"
	ArchiveDuplicate = "duplicate"
	ArchiveError     = "error"
)

var parseDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

type Metrics struct {
	registry *prometheus.Registry

	Parses           *prometheus.CounterVec
	ParseDuration    prometheus.Histogram
	Players          prometheus.Counter
	Commands         *prometheus.CounterVec
	FilteredCommands prometheus.Counter
	Messages         prometheus.Counter
	SyntheticTimings *prometheus.CounterVec
	ArchiveSaves     *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

var _ aggregate.Observer = (*Metrics)(nil)

// New registers every instrument on a fresh registry together with the Go
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWithRegistry(Namespace, reg)
}

// NewWithRegistry registers the instruments on reg under namespace.
func NewWithRegistry(namespace string, reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Parses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replay_parses_total",
			Help:      "Replay parse attempts by outcome",
		}, []string{"outcome"}),
		ParseDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "replay_parse_duration_seconds",
			Help:      "Time spent decoding and aggregating one replay",
			Buckets:   parseDurationBuckets,
		}),
		Players: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replay_players_total",
			Help:      "Players seen in successfully aggregated replays",
		}),
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replay_commands_total",
			Help:      "Classified commands by category",
		}, []string{"category"}),
		FilteredCommands: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replay_filtered_commands_total",
			Help:      "Commands retained by the filter policy",
		}),
		Messages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replay_messages_total",
			Help:      "Chat messages in the global message list",
		}),
		SyntheticTimings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replay_synthetic_timestamps_total",
			Help:      "Records whose timestamp fell back to a synthetic value",
		}, []string{"kind"}),
		ArchiveSaves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_saves_total",
			Help:      "Report archive writes by result",
		}, []string{"result"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveAggregation records the tallies of one aggregation.
func (m *Metrics) ObserveAggregation(s aggregate.Stats) {
	if m == nil {
		return
	}
	m.Players.Add(float64(s.Players))
	for cat, n := range s.Commands {
		m.Commands.WithLabelValues(string(cat)).Add(float64(n))
	}
	m.FilteredCommands.Add(float64(s.FilteredCommands))
	m.Messages.Add(float64(s.Messages))
	m.SyntheticTimings.WithLabelValues("command").Add(float64(s.SyntheticCommands))
	m.SyntheticTimings.WithLabelValues("message").Add(float64(s.SyntheticMessages))
}

// ObserveParse records the outcome of one parse call.
func (m *Metrics) ObserveParse(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Parses.WithLabelValues(ParseOutcome(err)).Inc()
	m.ParseDuration.Observe(elapsed.Seconds())
}

// ObserveArchive records the result of one archive save.
func (m *Metrics) ObserveArchive(err error) {
	if m == nil {
		return
	}
	result := ArchiveStored
	switch {
	case errors.Is(err, archive.ErrDuplicate):
		result = ArchiveDuplicate
	case err != nil:
		result = ArchiveError
	}
	m.ArchiveSaves.WithLabelValues(result).Inc()
}

// ParseOutcome maps a parse error onto its outcome label.
func ParseOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, report.ErrInput):
		return OutcomeInput
	case errors.Is(err, report.ErrIO):
		return OutcomeIO
	case errors.Is(err, report.ErrDecode):
		return OutcomeDecode
	default:
		return OutcomeOther
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency keyed by the route template,
// so /api/reports/:id is one series regardless of id.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			started := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)
			m.HTTPRequests.WithLabelValues(method, route, status).Inc()
			m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(started).Seconds())
			return nil
		}
	}
}
