// Package infra holds the technical adapters of the dispatch service: the
// Paho MQTT transport, metric sinks, token verifiers and log storage. Code
// here implements interfaces declared in core and never the other way around.
package infra
