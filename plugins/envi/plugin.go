package envi

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"envibridge/internal/core"
)

//go:embed dashboard.json
var dashboardJSON []byte

// Plugin implements the envibridge plugin contract.
type Plugin struct {
	registry      *Registry
	health        core.HealthStatus
	healthMessage string
}

// NewPlugin wraps a device registry in the plugin contract.
func NewPlugin(registry *Registry) Plugin {
	if registry == nil {
		return Plugin{health: core.HealthError, healthMessage: "envi registry not configured"}
	}
	return Plugin{registry: registry, health: core.HealthHealthy}
}

func (p Plugin) ID() string {
	return "envi"
}

func (p Plugin) Manifest() core.Manifest {
	return core.Manifest{
		PluginID:    "envi",
		DisplayName: "Envi Heaters",
		Version:     "0.1.0",
	}
}

func (p Plugin) Dashboards() []core.Dashboard {
	return []core.Dashboard{{Name: "envi-overview", JSON: dashboardJSON}}
}

func (p Plugin) Collectors() []prometheus.Collector {
	if p.registry == nil {
		return nil
	}
	return []prometheus.Collector{NewMetricsCollector(p.registry)}
}

func (p Plugin) Health() core.HealthStatus {
	return p.health
}

func (p Plugin) HealthMessage() string {
	return p.healthMessage
}

// RegisterHTTP exposes the cached device states for debugging and host
// integrations that poll HTTP instead of MQTT.
func (p Plugin) RegisterHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/plugins/envi/devices", p.devicesHandler)
}

type deviceStateDoc struct {
	Serial             string   `json:"serial"`
	Name               string   `json:"name"`
	Loaded             bool     `json:"loaded"`
	Online             *bool    `json:"online,omitempty"`
	HeatingOn          *bool    `json:"heating_on,omitempty"`
	CurrentTemperature *float64 `json:"current_temperature_celsius,omitempty"`
	TargetTemperature  *float64 `json:"target_temperature_celsius,omitempty"`
	DisplayUnit        string   `json:"display_unit,omitempty"`
}

func (p Plugin) devicesHandler(w http.ResponseWriter, _ *http.Request) {
	if p.registry == nil {
		http.Error(w, "registry not configured", http.StatusServiceUnavailable)
		return
	}

	sessions := p.registry.Sessions()
	docs := make([]deviceStateDoc, 0, len(sessions))
	for _, session := range sessions {
		device := session.Device()
		doc := deviceStateDoc{Serial: device.SerialNo, Name: device.Name}

		// A pre-first-poll session is listed but reported unloaded.
		if snapshot, err := session.Snapshot(); err == nil {
			doc.Loaded = true
			online := snapshot.Online()
			heating := snapshot.HeatingOn()
			current := toCelsius(snapshot.CurrentTemperature, snapshot.TemperatureUnit)
			target := toCelsius(snapshot.Temperature, snapshot.TemperatureUnit)
			doc.Online = &online
			doc.HeatingOn = &heating
			doc.CurrentTemperature = &current
			doc.TargetTemperature = &target
			doc.DisplayUnit = snapshot.TemperatureUnit
		}
		docs = append(docs, doc)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(docs)
}
