// Package metrics defines the Prometheus collectors of the auction service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auction"

// Bid outcomes
const (
	BidAccepted = "accepted"
	BidRejected = "rejected"
	BidConflict = "conflict"
)

// Cache lookup outcomes
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	bidsTotal           *prometheus.CounterVec
	listCacheTotal      *prometheus.CounterVec
	auctionsCreated     prometheus.Counter
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
			},
			[]string{"method", "route"},
		),
		bidsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bids",
				Name:      "total",
				Help:      "Bids by outcome",
			},
			[]string{"result"},
		),
		listCacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "list_cache",
				Name:      "lookups_total",
				Help:      "Auction list cache lookups by outcome",
			},
			[]string{"result"},
		),
		auctionsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "created_total",
				Help:      "Auctions created",
			},
		),
	}
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) Bid(result string) {
	if m == nil {
		return
	}
	m.bidsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ListCache(result string) {
	if m == nil {
		return
	}
	m.listCacheTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) AuctionCreated() {
	if m == nil {
		return
	}
	m.auctionsCreated.Inc()
}
