package envi

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Session owns the polled state of one heater. The snapshot is replaced
// wholesale on each successful poll and left untouched when a poll fails, so
// reads stay on the last good state. One session per device identity; nothing
// is shared across sessions.
type Session struct {
	device   Device
	client   *Client
	interval time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	snapshot *DeviceSnapshot
	stats    PollStats
	onUpdate func(DeviceSnapshot)
}

// PollStats records the outcome of past refresh attempts, for metrics.
type PollStats struct {
	LastAttempt time.Time
	LastSuccess time.Time
	LastOK      bool
	Errors      uint64
}

func NewSession(client *Client, device Device, cfg Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		device:   device,
		client:   client,
		interval: cfg.pollInterval(),
		logger:   logger.With("device", device.SerialNo),
	}
}

// Device returns the immutable identity this session is bound to.
func (s *Session) Device() Device {
	return s.device
}

// OnUpdate registers a callback invoked after every installed snapshot,
// including the ones forced by RefreshNow. Must be set before Run starts.
func (s *Session) OnUpdate(fn func(DeviceSnapshot)) {
	s.onUpdate = fn
}

// Run polls the device on a fixed interval until ctx is cancelled. A failed
// cycle is logged and the next tick proceeds as normal; the loop never stops
// on its own and applies no backoff.
func (s *Session) Run(ctx context.Context) {
	if err := s.RefreshNow(ctx); err != nil {
		s.logger.Warn("initial poll failed", "err", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RefreshNow(ctx); err != nil {
				s.logger.Warn("poll failed", "err", err)
			}
		}
	}
}

// RefreshNow performs one poll immediately and installs the result before
// returning. The dispatcher calls it after each write so the caller observes
// its own change.
func (s *Session) RefreshNow(ctx context.Context) error {
	now := time.Now()
	snapshot, err := s.client.DeviceState(ctx, s.device.ID)
	if err != nil {
		s.mu.Lock()
		s.stats.LastAttempt = now
		s.stats.LastOK = false
		s.stats.Errors++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.snapshot = &snapshot
	s.stats.LastAttempt = now
	s.stats.LastSuccess = now
	s.stats.LastOK = true
	s.mu.Unlock()

	if s.onUpdate != nil {
		s.onUpdate(snapshot)
	}
	return nil
}

// Snapshot returns the last successfully polled state. Before the first
// successful poll it fails with ErrNotReady. The device's online/offline flag
// does not gate the read.
func (s *Session) Snapshot() (DeviceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return DeviceSnapshot{}, ErrNotReady
	}
	return *s.snapshot, nil
}

// Stats returns a copy of the poll outcome counters.
func (s *Session) Stats() PollStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
