package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PricingMetrics records cache effectiveness and degraded fallbacks taken
// while resolving prices.
type PricingMetrics struct {
	cacheHit  *prometheus.CounterVec
	cacheMiss *prometheus.CounterVec
	degraded  *prometheus.CounterVec
	quoteTime *prometheus.HistogramVec
}

// NewPricingMetrics registers the pricing metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewPricingMetrics(reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		return &PricingMetrics{}
	}
	cacheHit := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_cache_hit",
		Help: "Cache hits by lookup kind.",
	}, []string{"kind"})
	cacheMiss := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_cache_miss",
		Help: "Cache misses by lookup kind.",
	}, []string{"kind"})
	degraded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_degraded_fallback",
		Help: "Degraded fallback resolutions by reason.",
	}, []string{"reason"})
	quoteTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_quote_duration_seconds",
		Help:    "Duration of cart total computations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	reg.MustRegister(cacheHit, cacheMiss, degraded, quoteTime)
	return &PricingMetrics{
		cacheHit:  cacheHit,
		cacheMiss: cacheMiss,
		degraded:  degraded,
		quoteTime: quoteTime,
	}
}

// IncCacheHit increments the hit counter for the given lookup kind.
func (p *PricingMetrics) IncCacheHit(kind string) {
	if p == nil || p.cacheHit == nil {
		return
	}
	p.cacheHit.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncCacheMiss increments the miss counter for the given lookup kind.
func (p *PricingMetrics) IncCacheMiss(kind string) {
	if p == nil || p.cacheMiss == nil {
		return
	}
	p.cacheMiss.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncDegraded increments the fallback counter for the given reason.
func (p *PricingMetrics) IncDegraded(reason string) {
	if p == nil || p.degraded == nil {
		return
	}
	p.degraded.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObserveQuoteDuration records the time spent pricing a cart.
func (p *PricingMetrics) ObserveQuoteDuration(source string, duration time.Duration) {
	if p == nil || p.quoteTime == nil {
		return
	}
	p.quoteTime.WithLabelValues(normalizeLabel(source)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
