package bridge

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"envibridge/plugins/envi"
)

func TestParseCommandTopic(t *testing.T) {
	serial, capability, ok := parseCommandTopic("envi", "envi/EH10042/target_temperature/set")
	if !ok {
		t.Fatalf("expected topic to parse")
	}
	if serial != "EH10042" || capability != "target_temperature" {
		t.Fatalf("unexpected parse: serial=%q capability=%q", serial, capability)
	}

	for _, topic := range []string{
		"envi/EH10042/state",
		"other/EH10042/light/set",
		"envi//light/set",
		"envi/EH10042/light/get",
	} {
		if _, _, ok := parseCommandTopic("envi", topic); ok {
			t.Fatalf("expected %q to be rejected", topic)
		}
	}
}

func TestStatePayloadNormalizesToCelsius(t *testing.T) {
	snapshot := envi.DeviceSnapshot{
		DeviceStatus:       1,
		State:              1,
		CurrentTemperature: 69.8,
		Temperature:        71.6,
		TemperatureUnit:    envi.UnitFahrenheit,
		NightLight: envi.NightLightSetting{
			Brightness: 40,
			On:         true,
			Color:      envi.RGBColor{R: 255, G: 0, B: 0},
		},
	}

	payload, err := statePayload(snapshot)
	if err != nil {
		t.Fatalf("statePayload: %v", err)
	}

	var summary stateSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !summary.Online || !summary.HeatingOn {
		t.Fatalf("unexpected flags: %+v", summary)
	}
	if summary.CurrentTemperature < 20.9 || summary.CurrentTemperature > 21.1 {
		t.Fatalf("expected ~21C, got %f", summary.CurrentTemperature)
	}
	if summary.TargetTemperature < 21.9 || summary.TargetTemperature > 22.1 {
		t.Fatalf("expected ~22C, got %f", summary.TargetTemperature)
	}
	if summary.NightLight.Hue != 0 || summary.NightLight.Saturation != 100 {
		t.Fatalf("unexpected night light colour: %+v", summary.NightLight)
	}
}

type recordedCommand struct {
	name  string
	value any
}

type fakeControl struct {
	commands []recordedCommand
}

func (f *fakeControl) SetTargetTemperatureCelsius(_ context.Context, celsius float64) error {
	f.commands = append(f.commands, recordedCommand{"target_temperature", celsius})
	return nil
}

func (f *fakeControl) SetHeatingOn(_ context.Context, on bool) error {
	f.commands = append(f.commands, recordedCommand{"heating", on})
	return nil
}

func (f *fakeControl) SetDisplayUnit(_ context.Context, unit string) error {
	f.commands = append(f.commands, recordedCommand{"display_unit", unit})
	return nil
}

func (f *fakeControl) SetLightOn(_ context.Context, on bool) error {
	f.commands = append(f.commands, recordedCommand{"light", on})
	return nil
}

func (f *fakeControl) SetLightBrightness(_ context.Context, brightness int) error {
	f.commands = append(f.commands, recordedCommand{"light_brightness", brightness})
	return nil
}

func (f *fakeControl) SetLightHue(_ context.Context, hue float64) error {
	f.commands = append(f.commands, recordedCommand{"light_hue", hue})
	return nil
}

func (f *fakeControl) SetLightSaturation(_ context.Context, saturation float64) error {
	f.commands = append(f.commands, recordedCommand{"light_saturation", saturation})
	return nil
}

func TestDispatchCommand(t *testing.T) {
	control := &fakeControl{}
	ctx := context.Background()

	cases := []struct {
		capability string
		payload    string
		want       recordedCommand
	}{
		{capTargetTemperature, "21.5", recordedCommand{"target_temperature", 21.5}},
		{capHeating, "ON", recordedCommand{"heating", true}},
		{capHeating, "0", recordedCommand{"heating", false}},
		{capDisplayUnit, "c", recordedCommand{"display_unit", "C"}},
		{capLight, "true", recordedCommand{"light", true}},
		{capLightBrightness, "55", recordedCommand{"light_brightness", 55}},
		{capLightHue, "120", recordedCommand{"light_hue", 120.0}},
		{capLightSaturation, "80", recordedCommand{"light_saturation", 80.0}},
	}

	for _, tc := range cases {
		if err := dispatchCommand(ctx, control, tc.capability, tc.payload); err != nil {
			t.Fatalf("dispatch %s %q: %v", tc.capability, tc.payload, err)
		}
	}
	if len(control.commands) != len(cases) {
		t.Fatalf("expected %d commands, got %d", len(cases), len(control.commands))
	}
	for i, tc := range cases {
		if control.commands[i] != tc.want {
			t.Fatalf("command %d: got %+v, want %+v", i, control.commands[i], tc.want)
		}
	}
}

func TestDispatchCommandRejectsBadPayloads(t *testing.T) {
	control := &fakeControl{}
	ctx := context.Background()

	for _, tc := range []struct {
		capability string
		payload    string
	}{
		{capTargetTemperature, "warm"},
		{capHeating, "maybe"},
		{capLightBrightness, "half"},
		{"fan_speed", "3"},
	} {
		err := dispatchCommand(ctx, control, tc.capability, tc.payload)
		if err == nil {
			t.Fatalf("expected error for %s %q", tc.capability, tc.payload)
		}
		if tc.capability == "fan_speed" && !strings.Contains(err.Error(), "unknown capability") {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(control.commands) != 0 {
		t.Fatalf("no commands should have run, got %+v", control.commands)
	}
}
