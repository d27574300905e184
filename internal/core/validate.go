package core

import (
	"fmt"
	"regexp"
)

// Plugin ids end up in metric names and dashboard URL paths, so they are
// restricted to lowercase snake case.
var pluginIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]+$`)

// ValidatePlugins rejects a plugin set with malformed, mismatched or
// duplicate ids. Run once at startup before anything is registered.
func ValidatePlugins(plugins []Plugin) error {
	seen := make(map[string]bool, len(plugins))
	for _, plugin := range plugins {
		id := plugin.ID()
		if !pluginIDPattern.MatchString(id) {
			return fmt.Errorf("invalid plugin id %q (want %s)", id, pluginIDPattern)
		}
		if manifest := plugin.Manifest(); manifest.PluginID != id {
			return fmt.Errorf("plugin %q manifest declares id %q", id, manifest.PluginID)
		}
		if seen[id] {
			return fmt.Errorf("plugin id %q registered twice", id)
		}
		seen[id] = true
	}
	return nil
}
