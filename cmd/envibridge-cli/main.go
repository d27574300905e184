package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"envibridge/plugins/envi"
)

// A small operator CLI that talks straight to the vendor cloud with the same
// client the daemon uses. Credentials come from the environment.

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	client, err := envi.NewClient(envi.Config{
		BaseURL:  os.Getenv("ENVIBRIDGE_BASE_URL"),
		Username: os.Getenv("ENVIBRIDGE_USERNAME"),
		Password: os.Getenv("ENVIBRIDGE_PASSWORD"),
	})
	if err != nil {
		fatal("client", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "devices":
		devicesCmd(ctx, client)
	case "status":
		statusCmd(ctx, client, os.Args[2:])
	case "set-temp":
		setTempCmd(ctx, client, os.Args[2:])
	case "set-state":
		setStateCmd(ctx, client, os.Args[2:])
	case "night-light":
		nightLightCmd(ctx, client, os.Args[2:])
	case "set-unit":
		setUnitCmd(ctx, client, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func devicesCmd(ctx context.Context, client *envi.Client) {
	devices, err := client.ListDevices(ctx)
	if err != nil {
		fatal("list devices", err)
	}
	for _, device := range devices {
		fmt.Printf("%d\t%s\t%s\n", device.ID, device.SerialNo, device.Name)
	}
}

func statusCmd(ctx context.Context, client *envi.Client, args []string) {
	snapshot, err := client.DeviceState(ctx, deviceID(ctx, client, args))
	if err != nil {
		fatal("device state", err)
	}

	heating := "off"
	if snapshot.HeatingOn() {
		heating = "on"
	}
	online := "offline"
	if snapshot.Online() {
		online = "online"
	}

	fmt.Printf("id: %d\n", snapshot.ID)
	fmt.Printf("serial: %s\n", snapshot.SerialNo)
	fmt.Printf("name: %s\n", snapshot.Name)
	fmt.Printf("status: %s\n", online)
	fmt.Printf("heating: %s\n", heating)
	fmt.Printf("current: %.1f %s\n", snapshot.CurrentTemperature, snapshot.TemperatureUnit)
	fmt.Printf("target: %.1f %s\n", snapshot.Temperature, snapshot.TemperatureUnit)
	fmt.Printf("night light: on=%t brightness=%d color=#%02x%02x%02x\n",
		snapshot.NightLight.On, snapshot.NightLight.Brightness,
		snapshot.NightLight.Color.R, snapshot.NightLight.Color.G, snapshot.NightLight.Color.B)
}

func setTempCmd(ctx context.Context, client *envi.Client, args []string) {
	if len(args) < 2 {
		fatal("set-temp", fmt.Errorf("usage: set-temp <serial|id> <fahrenheit>"))
	}
	temperature, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fatal("set-temp", fmt.Errorf("bad temperature %q", args[1]))
	}
	if err := client.SetDeviceTemperature(ctx, deviceID(ctx, client, args), temperature); err != nil {
		fatal("set-temp", err)
	}
}

func setStateCmd(ctx context.Context, client *envi.Client, args []string) {
	if len(args) < 2 {
		fatal("set-state", fmt.Errorf("usage: set-state <serial|id> <on|off>"))
	}
	var state int
	switch args[1] {
	case "on":
		state = 1
	case "off":
		state = 0
	default:
		fatal("set-state", fmt.Errorf("bad state %q, want on or off", args[1]))
	}
	if err := client.SetDeviceState(ctx, deviceID(ctx, client, args), state); err != nil {
		fatal("set-state", err)
	}
}

func nightLightCmd(ctx context.Context, client *envi.Client, args []string) {
	flags := flag.NewFlagSet("night-light", flag.ExitOnError)
	on := flags.Bool("on", false, "turn the night-light on")
	off := flags.Bool("off", false, "turn the night-light off")
	brightness := flags.Int("brightness", -1, "brightness 0-100")
	color := flags.String("color", "", "color as rrggbb hex")
	if len(args) < 1 {
		fatal("night-light", fmt.Errorf("usage: night-light <serial|id> [flags]"))
	}
	_ = flags.Parse(args[1:])

	id := deviceID(ctx, client, args)
	snapshot, err := client.DeviceState(ctx, id)
	if err != nil {
		fatal("night-light", err)
	}

	setting := snapshot.NightLight
	if *on {
		setting.On = true
		setting.Off = false
	}
	if *off {
		setting.On = false
		setting.Off = true
	}
	if *brightness >= 0 {
		setting.Brightness = *brightness
	}
	if *color != "" {
		rgb, err := parseHexColor(*color)
		if err != nil {
			fatal("night-light", err)
		}
		setting.Color = rgb
	}

	if err := client.SetNightLightSetting(ctx, id, setting); err != nil {
		fatal("night-light", err)
	}
}

func setUnitCmd(ctx context.Context, client *envi.Client, args []string) {
	if len(args) < 1 || (args[0] != envi.UnitFahrenheit && args[0] != envi.UnitCelsius) {
		fatal("set-unit", fmt.Errorf("usage: set-unit <F|C>"))
	}
	if err := client.SetTemperatureUnit(ctx, args[0]); err != nil {
		fatal("set-unit", err)
	}
}

// deviceID resolves args[0] as a numeric device id or, failing that, as a
// serial number looked up from the account's device list.
func deviceID(ctx context.Context, client *envi.Client, args []string) int64 {
	if len(args) < 1 {
		fatal("device", fmt.Errorf("missing device serial or id"))
	}
	if id, err := strconv.ParseInt(args[0], 10, 64); err == nil {
		return id
	}

	devices, err := client.ListDevices(ctx)
	if err != nil {
		fatal("list devices", err)
	}
	for _, device := range devices {
		if device.SerialNo == args[0] {
			return device.ID
		}
	}
	fatal("device", fmt.Errorf("no device with serial %q", args[0]))
	return 0
}

func parseHexColor(s string) (envi.RGBColor, error) {
	if len(s) == 7 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return envi.RGBColor{}, fmt.Errorf("bad color %q, want rrggbb", s)
	}
	value, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return envi.RGBColor{}, fmt.Errorf("bad color %q, want rrggbb", s)
	}
	return envi.RGBColor{
		R: uint8(value >> 16),
		G: uint8(value >> 8),
		B: uint8(value),
	}, nil
}

func fatal(op string, err error) {
	fmt.Fprintf(os.Stderr, "envibridge-cli: %s: %v\n", op, err)
	os.Exit(1)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: envibridge-cli <command> [args]

commands:
  devices                              list devices on the account
  status <serial|id>                   show one device's state
  set-temp <serial|id> <fahrenheit>    set the target temperature
  set-state <serial|id> <on|off>       switch the heater on or off
  night-light <serial|id> [flags]      adjust the night-light
  set-unit <F|C>                       change the account display unit

environment:
  ENVIBRIDGE_USERNAME, ENVIBRIDGE_PASSWORD (required)
  ENVIBRIDGE_BASE_URL (optional override)`)
}
