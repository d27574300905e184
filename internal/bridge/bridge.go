// Package bridge exposes device capabilities to the smart-home host over
// MQTT: retained state per device, plus per-capability command topics of the
// form <prefix>/<serial>/<capability>/set.
package bridge

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"envibridge/plugins/envi"
)

const connectTimeout = 10 * time.Second

// Config holds broker connection settings.
type Config struct {
	Host        string
	Port        int
	TLS         bool
	Username    string
	Password    string
	ClientID    string
	TopicPrefix string
}

// deviceControl is the writable capability surface the bridge drives.
type deviceControl interface {
	SetTargetTemperatureCelsius(ctx context.Context, celsius float64) error
	SetHeatingOn(ctx context.Context, on bool) error
	SetDisplayUnit(ctx context.Context, unit string) error
	SetLightOn(ctx context.Context, on bool) error
	SetLightBrightness(ctx context.Context, brightness int) error
	SetLightHue(ctx context.Context, hue float64) error
	SetLightSaturation(ctx context.Context, saturation float64) error
}

// Bridge connects bound device sessions to the MQTT broker.
type Bridge struct {
	client mqtt.Client
	prefix string
	logger *slog.Logger

	mu      sync.RWMutex
	devices map[string]deviceControl
}

func New(cfg Config, logger *slog.Logger) (*Bridge, error) {
	if logger == nil {
		logger = slog.Default()
	}

	b := &Bridge{
		prefix:  cfg.TopicPrefix,
		logger:  logger.With("component", "bridge"),
		devices: make(map[string]deviceControl),
	}

	opts := mqtt.NewClientOptions()
	scheme := "tcp"
	if cfg.TLS {
		scheme = "ssl"
		opts.SetTLSConfig(&tls.Config{})
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port))
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(connectTimeout)
	// Paho fires OnConnect from its own goroutine as soon as the CONNACK
	// lands, which can be before Connect() returns. Subscribe through the
	// client the callback hands us, never through b.client.
	opts.OnConnect = func(client mqtt.Client) {
		b.subscribeCommands(client)
	}

	b.client = mqtt.NewClient(opts)
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return b, nil
}

// Bind registers one device session with the bridge. It installs the
// session's update hook, so it must run before the session's poll loop
// starts.
func (b *Bridge) Bind(session *envi.Session) {
	device := session.Device()
	caps := envi.NewCapabilities(session)

	b.mu.Lock()
	b.devices[device.SerialNo] = caps
	b.mu.Unlock()

	session.OnUpdate(func(snapshot envi.DeviceSnapshot) {
		b.publishState(device.SerialNo, snapshot)
	})
}

func (b *Bridge) Close() {
	b.client.Disconnect(250)
}

func (b *Bridge) subscribeCommands(client mqtt.Client) {
	filter := b.prefix + "/+/+/set"
	if token := client.Subscribe(filter, 0, b.onCommand); token.Wait() && token.Error() != nil {
		b.logger.Error("subscribe failed", "filter", filter, "err", token.Error())
	}
}

func (b *Bridge) onCommand(_ mqtt.Client, msg mqtt.Message) {
	serial, capability, ok := parseCommandTopic(b.prefix, msg.Topic())
	if !ok {
		return
	}

	b.mu.RLock()
	control := b.devices[serial]
	b.mu.RUnlock()
	if control == nil {
		b.logger.Warn("command for unknown device", "serial", serial, "capability", capability)
		return
	}

	// Commands block on the vendor API; keep the paho callback free.
	go func() {
		if err := dispatchCommand(context.Background(), control, capability, string(msg.Payload())); err != nil {
			b.logger.Warn("command failed", "serial", serial, "capability", capability, "err", err)
		}
	}()
}

func (b *Bridge) publishState(serial string, snapshot envi.DeviceSnapshot) {
	payload, err := statePayload(snapshot)
	if err != nil {
		b.logger.Error("encode state", "serial", serial, "err", err)
		return
	}
	b.publish(stateTopic(b.prefix, serial), payload)
	b.publish(availabilityTopic(b.prefix, serial), []byte(availabilityPayload(snapshot)))
}

func (b *Bridge) publish(topic string, payload []byte) {
	if token := b.client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		b.logger.Warn("publish failed", "topic", topic, "err", token.Error())
	}
}
