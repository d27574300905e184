package envi

import "time"

const (
	defaultBaseURL = "https://app-apis.enviliving.com/apis/v1"

	// DefaultPollInterval is how often each device session refreshes its
	// snapshot when the config does not override it.
	DefaultPollInterval = 10 * time.Second
)

// Config defines runtime configuration for the Envi client and sessions.
type Config struct {
	BaseURL      string
	Username     string
	Password     string
	PollInterval time.Duration
}

func (c Config) pollInterval() time.Duration {
	if c.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return c.PollInterval
}
