// Package metrics provides the observability hooks for codesearch config
// generation.
//
// # Design
//
// The package follows the Null Object pattern so that components never need
// nil checks around metrics calls. Everything takes a Recorder; by default
// that is NoopRecorder, whose methods compile down to nothing.
//
// The three pieces are:
//
//  1. Recorder interface - all metric operations the generator emits
//  2. NoopRecorder - default implementation with zero overhead
//  3. PrometheusRecorder - the real implementation, registered per registry
//
// # Usage Pattern
//
// Components receive a Recorder through dependency injection:
//
//	client := upstream.NewClient(endpoints, metrics.NoopRecorder{})
//
// The daemon swaps in a PrometheusRecorder and exposes its registry on the
// admin listener via HTTPHandler. One-shot CLI runs keep the noop recorder.
package metrics
