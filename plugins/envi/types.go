package envi

// Device identifies one heater as listed by the cloud account.
type Device struct {
	ID       int64  `json:"id"`
	SerialNo string `json:"serial_no"`
	Name     string `json:"name"`
}

// DeviceSnapshot is the full device state as returned by the per-device
// status endpoint. A snapshot is installed wholesale after each successful
// poll; it is never merged from two polls.
type DeviceSnapshot struct {
	ID                 int64             `json:"id"`
	SerialNo           string            `json:"serial_no"`
	Name               string            `json:"name"`
	DeviceStatus       int               `json:"device_status"`
	State              int               `json:"state"`
	CurrentTemperature float64           `json:"current_temperature"`
	Temperature        float64           `json:"temperature"`
	TemperatureUnit    string            `json:"temperature_unit"`
	NightLight         NightLightSetting `json:"night_light_setting"`
}

// Online reports the device_status flag. Reads are deliberately not gated on
// it; callers that care (metrics, availability topic) check it themselves.
func (s DeviceSnapshot) Online() bool {
	return s.DeviceStatus == deviceStatusOnline
}

// HeatingOn reports the heater's binary state field.
func (s DeviceSnapshot) HeatingOn() bool {
	return s.State != 0
}

const deviceStatusOnline = 1

// Temperature display units as reported in temperature_unit.
const (
	UnitFahrenheit = "F"
	UnitCelsius    = "C"
)

// NightLightSetting mirrors the vendor's night-light object. The on and off
// flags are redundant in the vendor schema with no documented precedence;
// both are carried verbatim and never collapsed into one boolean.
type NightLightSetting struct {
	Brightness int      `json:"brightness"`
	Auto       bool     `json:"auto"`
	On         bool     `json:"on"`
	Off        bool     `json:"off"`
	Color      RGBColor `json:"color"`
}

// RGBColor is the night-light colour, 0-255 per channel.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// NightLightUpdate is a partial night-light write. Nil fields keep the value
// from the current snapshot.
type NightLightUpdate struct {
	Brightness *int
	Auto       *bool
	On         *bool
	Off        *bool
	Color      *RGBColor
}
