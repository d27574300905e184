package envi

import (
	"context"
	"fmt"
	"math"
)

// Command writes PATCH a partial state and then force a refresh so reads
// reflect the change without waiting for the next poll tick. Failures from
// the client propagate unchanged; there is no retry at this layer.

// SetHeating switches the heater on or off.
func (s *Session) SetHeating(ctx context.Context, on bool) error {
	state := 0
	if on {
		state = 1
	}
	if err := s.client.SetDeviceState(ctx, s.device.ID, state); err != nil {
		return err
	}
	return s.RefreshNow(ctx)
}

// SetTargetTemperature sets the target temperature. The value is interpreted
// in the display unit recorded in the snapshot at call time; the update
// endpoint always takes Fahrenheit, so a Celsius value is converted before
// dispatch. A unit change between the last poll and this call is an accepted
// race and is not corrected.
func (s *Session) SetTargetTemperature(ctx context.Context, value float64) error {
	snapshot, err := s.Snapshot()
	if err != nil {
		return err
	}
	if snapshot.TemperatureUnit == UnitCelsius {
		value = roundTenth(CelsiusToFahrenheit(value))
	}
	if err := s.client.SetDeviceTemperature(ctx, s.device.ID, value); err != nil {
		return err
	}
	return s.RefreshNow(ctx)
}

// SetNightLight merges the partial update onto the current snapshot's
// night-light setting and writes the full resulting object. The merge is a
// read-modify-write against possibly stale state; last write wins.
func (s *Session) SetNightLight(ctx context.Context, update NightLightUpdate) error {
	snapshot, err := s.Snapshot()
	if err != nil {
		return err
	}

	setting := snapshot.NightLight
	if update.Brightness != nil {
		setting.Brightness = *update.Brightness
	}
	if update.Auto != nil {
		setting.Auto = *update.Auto
	}
	if update.On != nil {
		setting.On = *update.On
	}
	if update.Off != nil {
		setting.Off = *update.Off
	}
	if update.Color != nil {
		setting.Color = *update.Color
	}

	if err := s.client.SetNightLightSetting(ctx, s.device.ID, setting); err != nil {
		return err
	}
	return s.RefreshNow(ctx)
}

// SetTemperatureUnit changes the account-wide display unit. It does not
// refresh the device: the write changes display interpretation, not device
// state.
func (s *Session) SetTemperatureUnit(ctx context.Context, unit string) error {
	if unit != UnitFahrenheit && unit != UnitCelsius {
		return fmt.Errorf("envi: invalid temperature unit %q", unit)
	}
	return s.client.SetTemperatureUnit(ctx, unit)
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
