package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yokitheyo/hordegen/internal/domain"
)

const namespace = "hordegen"

var (
	JobsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_submitted_total",
		Help:      "Generation jobs submitted to the Horde, by result.",
	}, []string{"result"})

	PollChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_checks_total",
		Help:      "Status checks issued against Horde jobs, by outcome.",
	}, []string{"outcome"})

	AssetFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "asset_fetches_total",
		Help:      "Downloads of finished images, by result.",
	}, []string{"result"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "End to end duration of orchestrated generations.",
		Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200},
	}, []string{"kind", "result"})

	QueuePosition = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_position",
		Help:      "Latest queue position reported by the Horde.",
	})

	WaitTime = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "wait_time_seconds",
		Help:      "Latest estimated wait time reported by the Horde.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests served by the API, by method, route and status.",
	}, []string{"method", "route", "status"})

	StatusSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "status_stream_subscribers",
		Help:      "Open server-sent event status streams.",
	})
)

// ObserveStatus records a status update on the queue gauges.
func ObserveStatus(s domain.ProcessStatus) {
	QueuePosition.Set(float64(s.QueuePosition))
	WaitTime.Set(float64(s.WaitTimeSeconds))
}

func Handler() http.Handler {
	return promhttp.Handler()
}
