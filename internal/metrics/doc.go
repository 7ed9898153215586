// Package metrics records run, fetch and module outcomes.
//
// Components take a Recorder and default to NoopRecorder, so metrics stay
// optional. PrometheusRecorder registers its collectors on a caller supplied
// registry, which WriteTextfile can dump in the Prometheus text format for
// node_exporter's textfile collector.
package metrics
