package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPath         = "/etc/envibridge/config.yaml"
	DefaultHTTPAddr     = "0.0.0.0:8080"
	DefaultMQTTPort     = 1883
	DefaultTopicPrefix  = "envi"
	DefaultPollSeconds  = 10
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"
	DefaultMQTTClientID = "envibridge"
)

// Config is the root configuration, loaded from YAML. Credentials may be
// supplied via ENVIBRIDGE_USERNAME / ENVIBRIDGE_PASSWORD instead of the file.
type Config struct {
	Envi    EnviConfig    `yaml:"envi"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
}

// EnviConfig configures the vendor API client and the poll loop.
type EnviConfig struct {
	BaseURL             string `yaml:"base_url"`
	Username            string `yaml:"username"`
	Password            string `yaml:"password"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
}

// MQTTConfig configures the accessory-host bridge connection.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	TLS         bool   `yaml:"tls"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// HTTPConfig configures the metrics/health server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load parses the YAML config file, applies env overrides and defaults, and
// validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if value := os.Getenv("ENVIBRIDGE_USERNAME"); value != "" {
		cfg.Envi.Username = value
	}
	if value := os.Getenv("ENVIBRIDGE_PASSWORD"); value != "" {
		cfg.Envi.Password = value
	}
	if value := os.Getenv("ENVIBRIDGE_HTTP_ADDR"); value != "" {
		cfg.HTTP.Addr = value
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = DefaultHTTPAddr
	}
	if cfg.Envi.PollIntervalSeconds == 0 {
		cfg.Envi.PollIntervalSeconds = DefaultPollSeconds
	}
	if cfg.MQTT.Port == 0 {
		cfg.MQTT.Port = DefaultMQTTPort
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = DefaultTopicPrefix
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = DefaultMQTTClientID
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
}

// Validate enforces required invariants beyond YAML typing.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if strings.TrimSpace(cfg.Envi.Username) == "" {
		return fmt.Errorf("envi.username is required")
	}
	if cfg.Envi.Password == "" {
		return fmt.Errorf("envi.password is required")
	}
	if cfg.Envi.PollIntervalSeconds < 0 {
		return fmt.Errorf("envi.poll_interval_seconds must not be negative")
	}
	if cfg.MQTT.Enabled && cfg.MQTT.Host == "" {
		return fmt.Errorf("mqtt.host is required when mqtt is enabled")
	}
	return nil
}
