package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "polls"

var (
	httpRequestsTotal *prometheus.CounterVec
	votesTotal        *prometheus.CounterVec
	choicesSelected   prometheus.Counter
	rateLimitedTotal  prometheus.Counter
	suspensionsTotal  prometheus.Counter
	mailTotal         *prometheus.CounterVec
	mailQueueDepth    prometheus.Gauge
	registerOnce      sync.Once
)

// Register initializes Prometheus metrics on the default registry.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed by the polls API.",
		}, []string{"method", "path", "status"})
		votesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Vote attempts by outcome.",
		}, []string{"outcome"})
		choicesSelected = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "choices_selected_total",
			Help:      "Choices selected across all recorded votes.",
		})
		rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Vote attempts rejected by the rate limiter.",
		})
		suspensionsTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suspensions_total",
			Help:      "Polls suspended after reports.",
		})
		mailTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_total",
			Help:      "Outbound mail by result.",
		}, []string{"result"})
		mailQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mail_queue_depth",
			Help:      "Messages waiting in the outbound mail queue.",
		})
	})
}

// IncRequest increments the http_requests_total counter with the given labels.
func IncRequest(method, path string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

// IncVote counts a vote attempt; outcome is "recorded" or the error code it failed with.
func IncVote(outcome string) {
	if votesTotal == nil {
		return
	}
	votesTotal.WithLabelValues(outcome).Inc()
}

func AddChoicesSelected(n int) {
	if choicesSelected == nil {
		return
	}
	choicesSelected.Add(float64(n))
}

func IncRateLimited() {
	if rateLimitedTotal == nil {
		return
	}
	rateLimitedTotal.Inc()
}

func IncSuspension() {
	if suspensionsTotal == nil {
		return
	}
	suspensionsTotal.Inc()
}

func IncMail(result string) {
	if mailTotal == nil {
		return
	}
	mailTotal.WithLabelValues(result).Inc()
}

func SetMailQueueDepth(n int) {
	if mailQueueDepth == nil {
		return
	}
	mailQueueDepth.Set(float64(n))
}
