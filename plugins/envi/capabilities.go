package envi

import "context"

// Capabilities adapts one Session to the attribute surface a smart-home host
// consumes: thermostat readings in Celsius and an HSV view of the
// night-light. Every getter reads the session snapshot; every setter goes
// through the command dispatcher. A read before the first successful poll
// returns ErrNotReady, which hosts should present as "temporarily
// unavailable" rather than a permanent fault.
type Capabilities struct {
	session *Session
}

func NewCapabilities(session *Session) *Capabilities {
	return &Capabilities{session: session}
}

func (c *Capabilities) Device() Device {
	return c.session.Device()
}

func (c *Capabilities) Online() (bool, error) {
	snapshot, err := c.session.Snapshot()
	if err != nil {
		return false, err
	}
	return snapshot.Online(), nil
}

func (c *Capabilities) HeatingOn() (bool, error) {
	snapshot, err := c.session.Snapshot()
	if err != nil {
		return false, err
	}
	return snapshot.HeatingOn(), nil
}

func (c *Capabilities) CurrentTemperatureCelsius() (float64, error) {
	snapshot, err := c.session.Snapshot()
	if err != nil {
		return 0, err
	}
	return toCelsius(snapshot.CurrentTemperature, snapshot.TemperatureUnit), nil
}

func (c *Capabilities) TargetTemperatureCelsius() (float64, error) {
	snapshot, err := c.session.Snapshot()
	if err != nil {
		return 0, err
	}
	return toCelsius(snapshot.Temperature, snapshot.TemperatureUnit), nil
}

func (c *Capabilities) DisplayUnit() (string, error) {
	snapshot, err := c.session.Snapshot()
	if err != nil {
		return "", err
	}
	return snapshot.TemperatureUnit, nil
}

// LightOn reads only the vendor's on flag. The redundant off flag has no
// documented precedence and is ignored for reads.
func (c *Capabilities) LightOn() (bool, error) {
	snapshot, err := c.session.Snapshot()
	if err != nil {
		return false, err
	}
	return snapshot.NightLight.On, nil
}

func (c *Capabilities) LightBrightness() (int, error) {
	snapshot, err := c.session.Snapshot()
	if err != nil {
		return 0, err
	}
	return snapshot.NightLight.Brightness, nil
}

func (c *Capabilities) LightHue() (float64, error) {
	snapshot, err := c.session.Snapshot()
	if err != nil {
		return 0, err
	}
	color := snapshot.NightLight.Color
	h, _, _ := RGBToHSV(color.R, color.G, color.B)
	return h, nil
}

func (c *Capabilities) LightSaturation() (float64, error) {
	snapshot, err := c.session.Snapshot()
	if err != nil {
		return 0, err
	}
	color := snapshot.NightLight.Color
	_, s, _ := RGBToHSV(color.R, color.G, color.B)
	return s, nil
}

// SetTargetTemperatureCelsius accepts the host's Celsius value and hands the
// dispatcher a value in the snapshot's display unit.
func (c *Capabilities) SetTargetTemperatureCelsius(ctx context.Context, celsius float64) error {
	snapshot, err := c.session.Snapshot()
	if err != nil {
		return err
	}
	value := celsius
	if snapshot.TemperatureUnit == UnitFahrenheit {
		value = roundTenth(CelsiusToFahrenheit(celsius))
	}
	return c.session.SetTargetTemperature(ctx, value)
}

func (c *Capabilities) SetHeatingOn(ctx context.Context, on bool) error {
	return c.session.SetHeating(ctx, on)
}

func (c *Capabilities) SetDisplayUnit(ctx context.Context, unit string) error {
	return c.session.SetTemperatureUnit(ctx, unit)
}

// SetLightOn writes both redundant flags, mirroring what the vendor app
// sends; no canonical boolean is inferred.
func (c *Capabilities) SetLightOn(ctx context.Context, on bool) error {
	off := !on
	return c.session.SetNightLight(ctx, NightLightUpdate{On: &on, Off: &off})
}

func (c *Capabilities) SetLightBrightness(ctx context.Context, brightness int) error {
	if brightness < 0 {
		brightness = 0
	}
	if brightness > 100 {
		brightness = 100
	}
	return c.session.SetNightLight(ctx, NightLightUpdate{Brightness: &brightness})
}

func (c *Capabilities) SetLightHue(ctx context.Context, hue float64) error {
	return c.setLightColor(ctx, func(h, s, v float64) (float64, float64, float64) {
		return hue, s, v
	})
}

func (c *Capabilities) SetLightSaturation(ctx context.Context, saturation float64) error {
	return c.setLightColor(ctx, func(h, s, v float64) (float64, float64, float64) {
		return h, saturation, v
	})
}

func (c *Capabilities) setLightColor(ctx context.Context, adjust func(h, s, v float64) (float64, float64, float64)) error {
	snapshot, err := c.session.Snapshot()
	if err != nil {
		return err
	}
	color := snapshot.NightLight.Color
	h, s, v := adjust(RGBToHSV(color.R, color.G, color.B))
	r, g, b := HSVToRGB(h, s, v)
	return c.session.SetNightLight(ctx, NightLightUpdate{Color: &RGBColor{R: r, G: g, B: b}})
}

func toCelsius(value float64, unit string) float64 {
	if unit == UnitFahrenheit {
		return roundTenth(FahrenheitToCelsius(value))
	}
	return value
}
