package envi

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector exports heater state from the cached session snapshots.
// Collect never touches the network; a session without a snapshot yet is
// reported via the loaded gauge only.
type MetricsCollector struct {
	registry *Registry

	loaded             *prometheus.GaugeVec
	online             *prometheus.GaugeVec
	heatingOn          *prometheus.GaugeVec
	currentTemperature *prometheus.GaugeVec
	targetTemperature  *prometheus.GaugeVec
	displayUnit        *prometheus.GaugeVec
	nightLightOn       *prometheus.GaugeVec
	nightLightLevel    *prometheus.GaugeVec
	pollUp             *prometheus.GaugeVec
	lastPollSuccess    *prometheus.GaugeVec

	pollErrorsDesc *prometheus.Desc
}

func NewMetricsCollector(registry *Registry) *MetricsCollector {
	labels := []string{"device_serial", "device_name"}
	unitLabels := []string{"device_serial", "device_name", "unit"}
	return &MetricsCollector{
		registry: registry,
		loaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "envibridge_envi_state_loaded",
			Help: "Whether a device snapshot has been loaded (1=yes, 0=not yet)",
		}, labels),
		online: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "envibridge_envi_online",
			Help: "Device online flag as reported by the cloud (1=online, 0=offline)",
		}, labels),
		heatingOn: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "envibridge_envi_heating_on",
			Help: "Heater state (1=on, 0=off)",
		}, labels),
		currentTemperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "envibridge_envi_current_temperature_celsius",
			Help: "Measured temperature (degrees Celsius)",
		}, labels),
		targetTemperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "envibridge_envi_target_temperature_celsius",
			Help: "Target temperature (degrees Celsius)",
		}, labels),
		displayUnit: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "envibridge_envi_display_unit",
			Help: "Account display unit (label)",
		}, unitLabels),
		nightLightOn: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "envibridge_envi_night_light_on",
			Help: "Night-light on flag (1=on, 0=off)",
		}, labels),
		nightLightLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "envibridge_envi_night_light_brightness_percent",
			Help: "Night-light brightness (0-100)",
		}, labels),
		pollUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "envibridge_envi_poll_up",
			Help: "Whether the most recent poll succeeded (1=yes, 0=no)",
		}, labels),
		lastPollSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "envibridge_envi_last_poll_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful poll",
		}, labels),
		pollErrorsDesc: prometheus.NewDesc(
			"envibridge_envi_poll_errors_total",
			"Total failed polls since startup",
			labels, nil,
		),
	}
}

func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	c.loaded.Describe(ch)
	c.online.Describe(ch)
	c.heatingOn.Describe(ch)
	c.currentTemperature.Describe(ch)
	c.targetTemperature.Describe(ch)
	c.displayUnit.Describe(ch)
	c.nightLightOn.Describe(ch)
	c.nightLightLevel.Describe(ch)
	c.pollUp.Describe(ch)
	c.lastPollSuccess.Describe(ch)
	ch <- c.pollErrorsDesc
}

func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	c.loaded.Reset()
	c.online.Reset()
	c.heatingOn.Reset()
	c.currentTemperature.Reset()
	c.targetTemperature.Reset()
	c.displayUnit.Reset()
	c.nightLightOn.Reset()
	c.nightLightLevel.Reset()
	c.pollUp.Reset()
	c.lastPollSuccess.Reset()

	for _, session := range c.registry.Sessions() {
		device := session.Device()
		labels := prometheus.Labels{
			"device_serial": device.SerialNo,
			"device_name":   device.Name,
		}

		stats := session.Stats()
		ch <- prometheus.MustNewConstMetric(c.pollErrorsDesc, prometheus.CounterValue,
			float64(stats.Errors), device.SerialNo, device.Name)
		if !stats.LastAttempt.IsZero() {
			c.pollUp.With(labels).Set(boolGauge(stats.LastOK))
		}
		if !stats.LastSuccess.IsZero() {
			c.lastPollSuccess.With(labels).Set(float64(stats.LastSuccess.Unix()))
		}

		snapshot, err := session.Snapshot()
		if err != nil {
			c.loaded.With(labels).Set(0)
			continue
		}
		c.loaded.With(labels).Set(1)

		c.online.With(labels).Set(boolGauge(snapshot.Online()))
		c.heatingOn.With(labels).Set(boolGauge(snapshot.HeatingOn()))
		c.currentTemperature.With(labels).Set(toCelsius(snapshot.CurrentTemperature, snapshot.TemperatureUnit))
		c.targetTemperature.With(labels).Set(toCelsius(snapshot.Temperature, snapshot.TemperatureUnit))
		c.nightLightOn.With(labels).Set(boolGauge(snapshot.NightLight.On))
		c.nightLightLevel.With(labels).Set(float64(snapshot.NightLight.Brightness))

		if snapshot.TemperatureUnit != "" {
			c.displayUnit.With(prometheus.Labels{
				"device_serial": device.SerialNo,
				"device_name":   device.Name,
				"unit":          snapshot.TemperatureUnit,
			}).Set(1)
		}
	}

	c.loaded.Collect(ch)
	c.online.Collect(ch)
	c.heatingOn.Collect(ch)
	c.currentTemperature.Collect(ch)
	c.targetTemperature.Collect(ch)
	c.displayUnit.Collect(ch)
	c.nightLightOn.Collect(ch)
	c.nightLightLevel.Collect(ch)
	c.pollUp.Collect(ch)
	c.lastPollSuccess.Collect(ch)
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
