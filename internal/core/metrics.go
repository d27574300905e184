package core

import "github.com/prometheus/client_golang/prometheus"

// MetricsRegistry gathers every plugin's collectors into one registry for
// the /metrics endpoint. Duplicate or invalid collectors panic at startup,
// before the daemon starts serving.
func MetricsRegistry(plugins []Plugin) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	for _, plugin := range plugins {
		for _, collector := range plugin.Collectors() {
			registry.MustRegister(collector)
		}
	}
	return registry
}
