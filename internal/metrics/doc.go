// Package metrics records build observability data.
//
// Components take a Recorder and default to NoopRecorder, so metrics stay
// optional. PrometheusRecorder backs the preview server's /metrics endpoint
// and the textfile written by CI builds (metrics.textfile).
package metrics
