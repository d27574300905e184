package envi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	requestTimeout = 15 * time.Second

	loginType       = "1"
	loginDeviceType = "ios"
)

// Client talks to the Envi cloud API. It logs in lazily, attaches the
// session token as a bearer header, and re-authenticates once when the API
// reports the token expired (403).
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client

	// loginMu serializes logins so concurrent 403s trigger one re-auth.
	loginMu sync.Mutex

	mu    sync.Mutex
	token string
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Username) == "" {
		return nil, fmt.Errorf("envi username is required")
	}
	if cfg.Password == "" {
		return nil, fmt.Errorf("envi password is required")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &Client{
		baseURL:    baseURL,
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

// ListDevices returns the devices registered to the account.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	var devices []Device
	if err := c.getJSON(ctx, "/device/list", &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// DeviceState fetches the current state of one device.
func (c *Client) DeviceState(ctx context.Context, id int64) (DeviceSnapshot, error) {
	var snapshot DeviceSnapshot
	if err := c.getJSON(ctx, fmt.Sprintf("/device/%d", id), &snapshot); err != nil {
		return DeviceSnapshot{}, err
	}
	return snapshot, nil
}

// SetDeviceState switches the heater on (1) or off (0).
func (c *Client) SetDeviceState(ctx context.Context, id int64, state int) error {
	return c.patchJSON(ctx, fmt.Sprintf("/device/update-temperature/%d", id), map[string]any{"state": state})
}

// SetDeviceTemperature sets the target temperature. The endpoint expects
// degrees Fahrenheit regardless of the account's display unit.
func (c *Client) SetDeviceTemperature(ctx context.Context, id int64, temperature float64) error {
	return c.patchJSON(ctx, fmt.Sprintf("/device/update-temperature/%d", id), map[string]any{"temperature": temperature})
}

// SetNightLightSetting replaces the device's night-light object wholesale.
func (c *Client) SetNightLightSetting(ctx context.Context, id int64, setting NightLightSetting) error {
	return c.patchJSON(ctx, fmt.Sprintf("/device/night-light-setting/%d", id), setting)
}

// SetTemperatureUnit changes the account-wide display unit ("F" or "C").
func (c *Client) SetTemperatureUnit(ctx context.Context, unit string) error {
	form := url.Values{"temperature_unit": {unit}}
	_, err := c.do(ctx, http.MethodPatch, "/user-settings/update", []byte(form.Encode()), "application/x-www-form-urlencoded")
	return err
}

// Login exchanges the credentials for a fresh session token. The held token
// is cleared before the exchange so an in-flight request cannot pick up the
// stale value mid-login. Login failures propagate directly, without retry.
func (c *Client) Login(ctx context.Context) error {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()

	c.setToken("")

	form := url.Values{
		"username":    {c.username},
		"password":    {c.password},
		"login_type":  {loginType},
		"device_type": {loginDeviceType},
		"device_id":   {uuid.NewString()},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return &CommunicationError{Op: "login", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &CommunicationError{Op: "login", Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &CommunicationError{Op: "login", Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return &AuthorizationError{Op: "login", Body: string(payload)}
	default:
		return &CommunicationError{Op: "login", Status: resp.StatusCode, Body: string(payload)}
	}

	var wrapper struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &wrapper); err != nil {
		return &CommunicationError{Op: "login", Err: fmt.Errorf("decode response: %w", err)}
	}
	if wrapper.Data.Token == "" {
		return &CommunicationError{Op: "login", Err: fmt.Errorf("no token in response")}
	}

	c.setToken(wrapper.Data.Token)
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	payload, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	return decodeData(path, payload, out)
}

func (c *Client) patchJSON(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &CommunicationError{Op: path, Err: err}
	}
	_, err = c.do(ctx, http.MethodPatch, path, payload, "application/json")
	return err
}

// do runs one authenticated request. A 403 is treated as token expiry: the
// token is dropped, a re-login runs, and the request is retried exactly once.
// The attempt counter bounds the retry structurally; a second 403 surfaces as
// a CommunicationError rather than looping.
func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string) ([]byte, error) {
	if c.currentToken() == "" {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	for attempt := 0; ; attempt++ {
		payload, status, err := c.send(ctx, method, path, body, contentType)
		if err != nil {
			return nil, &CommunicationError{Op: path, Err: err}
		}

		switch {
		case status == http.StatusOK:
			return payload, nil
		case status == http.StatusUnauthorized:
			return nil, &AuthorizationError{Op: path, Body: string(payload)}
		case status == http.StatusForbidden && attempt == 0:
			c.setToken("")
			if err := c.Login(ctx); err != nil {
				return nil, err
			}
		default:
			return nil, &CommunicationError{Op: path, Status: status, Body: string(payload)}
		}
	}
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, contentType string) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return payload, resp.StatusCode, nil
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// decodeData unwraps the vendor's {"data": ...} envelope. Unexpected shapes
// are reported as CommunicationError at this boundary instead of leaking
// malformed data upward.
func decodeData(op string, payload []byte, out any) error {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &wrapper); err != nil {
		return &CommunicationError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(wrapper.Data) == 0 {
		return &CommunicationError{Op: op, Err: fmt.Errorf("no data in response")}
	}
	if err := json.Unmarshal(wrapper.Data, out); err != nil {
		return &CommunicationError{Op: op, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}
