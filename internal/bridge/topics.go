package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"envibridge/plugins/envi"
)

// Capability names accepted on <prefix>/<serial>/<capability>/set.
const (
	capTargetTemperature = "target_temperature"
	capHeating           = "heating"
	capDisplayUnit       = "display_unit"
	capLight             = "light"
	capLightBrightness   = "light_brightness"
	capLightHue          = "light_hue"
	capLightSaturation   = "light_saturation"
)

func stateTopic(prefix, serial string) string {
	return prefix + "/" + serial + "/state"
}

func availabilityTopic(prefix, serial string) string {
	return prefix + "/" + serial + "/availability"
}

func availabilityPayload(snapshot envi.DeviceSnapshot) string {
	if snapshot.Online() {
		return "online"
	}
	return "offline"
}

func parseCommandTopic(prefix, topic string) (serial, capability string, ok bool) {
	rest, found := strings.CutPrefix(topic, prefix+"/")
	if !found {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[2] != "set" || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// stateSummary is the retained per-device state document. Temperatures are
// normalized to Celsius regardless of the account display unit.
type stateSummary struct {
	Online             bool    `json:"online"`
	HeatingOn          bool    `json:"heating_on"`
	CurrentTemperature float64 `json:"current_temperature_celsius"`
	TargetTemperature  float64 `json:"target_temperature_celsius"`
	DisplayUnit        string  `json:"display_unit"`
	NightLight         struct {
		On         bool    `json:"on"`
		Brightness int     `json:"brightness"`
		Hue        float64 `json:"hue"`
		Saturation float64 `json:"saturation"`
	} `json:"night_light"`
}

func statePayload(snapshot envi.DeviceSnapshot) ([]byte, error) {
	summary := stateSummary{
		Online:             snapshot.Online(),
		HeatingOn:          snapshot.HeatingOn(),
		CurrentTemperature: celsius(snapshot.CurrentTemperature, snapshot.TemperatureUnit),
		TargetTemperature:  celsius(snapshot.Temperature, snapshot.TemperatureUnit),
		DisplayUnit:        snapshot.TemperatureUnit,
	}
	color := snapshot.NightLight.Color
	h, s, _ := envi.RGBToHSV(color.R, color.G, color.B)
	summary.NightLight.On = snapshot.NightLight.On
	summary.NightLight.Brightness = snapshot.NightLight.Brightness
	summary.NightLight.Hue = h
	summary.NightLight.Saturation = s

	return json.Marshal(summary)
}

func celsius(value float64, unit string) float64 {
	if unit == envi.UnitFahrenheit {
		return math.Round(envi.FahrenheitToCelsius(value)*10) / 10
	}
	return value
}

func dispatchCommand(ctx context.Context, control deviceControl, capability, payload string) error {
	switch capability {
	case capTargetTemperature:
		value, err := strconv.ParseFloat(strings.TrimSpace(payload), 64)
		if err != nil {
			return fmt.Errorf("invalid temperature %q", payload)
		}
		return control.SetTargetTemperatureCelsius(ctx, value)
	case capHeating:
		on, err := parseOnOff(payload)
		if err != nil {
			return err
		}
		return control.SetHeatingOn(ctx, on)
	case capDisplayUnit:
		unit := strings.ToUpper(strings.TrimSpace(payload))
		return control.SetDisplayUnit(ctx, unit)
	case capLight:
		on, err := parseOnOff(payload)
		if err != nil {
			return err
		}
		return control.SetLightOn(ctx, on)
	case capLightBrightness:
		value, err := strconv.Atoi(strings.TrimSpace(payload))
		if err != nil {
			return fmt.Errorf("invalid brightness %q", payload)
		}
		return control.SetLightBrightness(ctx, value)
	case capLightHue:
		value, err := strconv.ParseFloat(strings.TrimSpace(payload), 64)
		if err != nil {
			return fmt.Errorf("invalid hue %q", payload)
		}
		return control.SetLightHue(ctx, value)
	case capLightSaturation:
		value, err := strconv.ParseFloat(strings.TrimSpace(payload), 64)
		if err != nil {
			return fmt.Errorf("invalid saturation %q", payload)
		}
		return control.SetLightSaturation(ctx, value)
	default:
		return fmt.Errorf("unknown capability %q", capability)
	}
}

func parseOnOff(payload string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(payload)) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid on/off payload %q", payload)
	}
}
