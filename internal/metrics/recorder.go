package metrics

import "time"

// ResultLabel enumerates result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultSkipped ResultLabel = "skipped"
)

// Recorder defines observability hooks for generation runs, remote queries,
// service restarts and the search proxy. Implementations may forward to
// Prometheus, OpenTelemetry, etc. Constructors elsewhere accept a nil
// Recorder and substitute NoopRecorder, so callers opt in rather than out.
type Recorder interface {
	ObserveProfileDuration(profile string, d time.Duration)
	IncProfileResult(profile string, result ResultLabel)
	SetProfileRepos(profile string, n int)
	ObserveFetchDuration(host string, d time.Duration)
	IncFetchResult(host string, result ResultLabel)
	IncFetchMemoHit(host string)
	IncRestart(unit string, result ResultLabel)
	IncProxyRequest(backend, code string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveProfileDuration(string, time.Duration) {}
func (NoopRecorder) IncProfileResult(string, ResultLabel)         {}
func (NoopRecorder) SetProfileRepos(string, int)                  {}
func (NoopRecorder) ObserveFetchDuration(string, time.Duration)   {}
func (NoopRecorder) IncFetchResult(string, ResultLabel)           {}
func (NoopRecorder) IncFetchMemoHit(string)                       {}
func (NoopRecorder) IncRestart(string, ResultLabel)               {}
func (NoopRecorder) IncProxyRequest(string, string)               {}
