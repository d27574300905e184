package envi

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry discovers the account's devices and binds one Session to each.
type Registry struct {
	client *Client
	cfg    Config
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(client *Client, cfg Config, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		client:   client,
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Discover lists the account's devices and creates sessions for devices not
// seen before. Existing sessions are kept; device identity is immutable, so
// a listed device never rebinds.
func (r *Registry) Discover(ctx context.Context) ([]*Session, error) {
	devices, err := r.client.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	created := make([]*Session, 0, len(devices))
	for _, device := range devices {
		if device.SerialNo == "" {
			r.logger.Warn("skipping device without serial", "id", device.ID)
			continue
		}
		if _, ok := r.sessions[device.SerialNo]; ok {
			continue
		}
		session := NewSession(r.client, device, r.cfg, r.logger)
		r.sessions[device.SerialNo] = session
		created = append(created, session)
		r.logger.Info("bound device session", "id", device.ID, "name", device.Name)
	}
	return created, nil
}

// Session returns the session for a serial number, or nil.
func (r *Registry) Session(serial string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[serial]
}

// Sessions returns all sessions ordered by serial for stable iteration.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	serials := make([]string, 0, len(r.sessions))
	for serial := range r.sessions {
		serials = append(serials, serial)
	}
	sort.Strings(serials)

	out := make([]*Session, 0, len(serials))
	for _, serial := range serials {
		out = append(out, r.sessions[serial])
	}
	return out
}
