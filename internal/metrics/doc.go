// Package metrics provides the observability hooks used by the generator and
// the dev server.
//
// Components receive a Recorder through their options and fall back to
// NoopRecorder when none is set, so no call site needs a nil check. The dev
// server activates PrometheusRecorder and exposes its registry through
// PrometheusRecorder.Handler.
package metrics
