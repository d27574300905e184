package core

// PluginStatus is a point-in-time health summary for one plugin.
type PluginStatus struct {
	PluginID      string       `json:"plugin_id"`
	DisplayName   string       `json:"display_name"`
	Version       string       `json:"version"`
	Status        HealthStatus `json:"status"`
	HealthMessage string       `json:"health_message,omitempty"`
}

// Statuses summarizes plugin health for the status endpoint.
func Statuses(plugins []Plugin) []PluginStatus {
	out := make([]PluginStatus, 0, len(plugins))
	for _, p := range plugins {
		manifest := p.Manifest()
		out = append(out, PluginStatus{
			PluginID:      manifest.PluginID,
			DisplayName:   manifest.DisplayName,
			Version:       manifest.Version,
			Status:        p.Health(),
			HealthMessage: p.HealthMessage(),
		})
	}
	return out
}
