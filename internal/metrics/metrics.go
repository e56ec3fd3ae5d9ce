// Package metrics exposes Prometheus collectors for the asset discovery service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	assetsTotal                *prometheus.CounterVec
	assetBytesTotal            *prometheus.CounterVec
	assetQualityScore          *prometheus.HistogramVec
	renderPromotionsTotal      prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	jobsTotal                  *prometheus.CounterVec
	activeWorkers              prometheus.Gauge
	rateLimitDelaysSeconds     *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		assetsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetscout_assets_total",
				Help: "Total number of assets processed, labeled by site and outcome.",
			},
			[]string{"site", "outcome"},
		)

		assetBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetscout_bytes_total",
				Help: "Total number of bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		assetQualityScore = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assetscout_quality_score",
				Help:    "Distribution of extracted quality scores, labeled by site.",
				Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			},
			[]string{"site"},
		)

		renderPromotionsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "assetscout_render_promotions_total",
				Help: "Total number of fetches promoted to the browser renderer.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		jobsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetscout_jobs_total",
				Help: "Total number of jobs processed, labeled by status.",
			},
			[]string{"status"},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "assetscout_active_workers",
				Help: "Number of workers currently processing a job.",
			},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assetscout_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAsset records a processed asset with its fetch outcome and size.
func ObserveAsset(site string, outcome string, bytesFetched int) {
	sanitized := SanitizeSite(site)
	assetsTotal.WithLabelValues(sanitized, outcome).Inc()
	if bytesFetched > 0 {
		assetBytesTotal.WithLabelValues(sanitized).Add(float64(bytesFetched))
	}
}

// ObserveQualityScore records the quality score of one extracted asset.
func ObserveQualityScore(site string, score int) {
	assetQualityScore.WithLabelValues(SanitizeSite(site)).Observe(float64(score))
}

// ObserveRenderPromotion counts a fetch promoted to the renderer.
func ObserveRenderPromotion() {
	renderPromotionsTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveJob increments the job counter for the given status.
func ObserveJob(status string) {
	jobsTotal.WithLabelValues(status).Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	activeWorkers.Dec()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}
