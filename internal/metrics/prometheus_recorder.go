package metrics

import (
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	profileDuration *prom.HistogramVec
	profileResults  *prom.CounterVec
	profileRepos    *prom.GaugeVec
	fetchDuration   *prom.HistogramVec
	fetchResults    *prom.CounterVec
	fetchMemoHits   *prom.CounterVec
	restarts        *prom.CounterVec
	proxyRequests   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.profileDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "codesearch",
			Name:      "profile_build_duration_seconds",
			Help:      "Duration of individual profile builds including publishing",
			Buckets:   prom.DefBuckets,
		}, []string{"profile"})
		pr.profileResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "codesearch",
			Name:      "profile_results_total",
			Help:      "Profile build results by outcome",
		}, []string{"profile", "result"})
		pr.profileRepos = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "codesearch",
			Name:      "profile_repositories",
			Help:      "Number of repositories in the last generated config per profile",
		}, []string{"profile"})
		pr.fetchDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "codesearch",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of upstream HTTP queries",
			Buckets:   prom.DefBuckets,
		}, []string{"host"})
		pr.fetchResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "codesearch",
			Name:      "fetch_results_total",
			Help:      "Upstream query results by outcome",
		}, []string{"host", "result"})
		pr.fetchMemoHits = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "codesearch",
			Name:      "fetch_memo_hits_total",
			Help:      "Upstream queries answered from the per-run memo",
		}, []string{"host"})
		pr.restarts = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "codesearch",
			Name:      "unit_restarts_total",
			Help:      "Systemd restart attempts by outcome",
		}, []string{"unit", "result"})
		pr.proxyRequests = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "codesearch",
			Name:      "proxy_requests_total",
			Help:      "Search proxy requests by backend and status code",
		}, []string{"backend", "code"})
		reg.MustRegister(pr.profileDuration, pr.profileResults, pr.profileRepos,
			pr.fetchDuration, pr.fetchResults, pr.fetchMemoHits, pr.restarts, pr.proxyRequests)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveProfileDuration(profile string, d time.Duration) {
	if p == nil || p.profileDuration == nil {
		return
	}
	p.profileDuration.WithLabelValues(profile).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncProfileResult(profile string, result ResultLabel) {
	if p == nil || p.profileResults == nil {
		return
	}
	p.profileResults.WithLabelValues(profile, string(result)).Inc()
}

func (p *PrometheusRecorder) SetProfileRepos(profile string, n int) {
	if p == nil || p.profileRepos == nil {
		return
	}
	p.profileRepos.WithLabelValues(profile).Set(float64(n))
}

func (p *PrometheusRecorder) ObserveFetchDuration(host string, d time.Duration) {
	if p == nil || p.fetchDuration == nil {
		return
	}
	p.fetchDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncFetchResult(host string, result ResultLabel) {
	if p == nil || p.fetchResults == nil {
		return
	}
	p.fetchResults.WithLabelValues(host, string(result)).Inc()
}

func (p *PrometheusRecorder) IncFetchMemoHit(host string) {
	if p == nil || p.fetchMemoHits == nil {
		return
	}
	p.fetchMemoHits.WithLabelValues(host).Inc()
}

func (p *PrometheusRecorder) IncRestart(unit string, result ResultLabel) {
	if p == nil || p.restarts == nil {
		return
	}
	p.restarts.WithLabelValues(unit, string(result)).Inc()
}

func (p *PrometheusRecorder) IncProxyRequest(backend, code string) {
	if p == nil || p.proxyRequests == nil {
		return
	}
	p.proxyRequests.WithLabelValues(backend, code).Inc()
}

// CodeLabel formats an HTTP status for the proxy request counter.
func CodeLabel(status int) string {
	return strconv.Itoa(status)
}
