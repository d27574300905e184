package envi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type recordedPatch struct {
	Path        string
	ContentType string
	Body        []byte
}

// fakeCloud stands in for the vendor API: it issues tokens, serves the
// configured snapshot on device reads, and records every PATCH.
type fakeCloud struct {
	t *testing.T

	mu        sync.Mutex
	snapshot  DeviceSnapshot
	failReads bool
	patches   []recordedPatch
}

func (f *fakeCloud) setSnapshot(s DeviceSnapshot) {
	f.mu.Lock()
	f.snapshot = s
	f.mu.Unlock()
}

func (f *fakeCloud) setFailReads(fail bool) {
	f.mu.Lock()
	f.failReads = fail
	f.mu.Unlock()
}

func (f *fakeCloud) recorded() []recordedPatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedPatch(nil), f.patches...)
}

func (f *fakeCloud) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/auth/login" {
		writeLoginResponse(w)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		if f.failReads {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		payload, err := json.Marshal(map[string]any{"data": f.snapshot})
		if err != nil {
			f.t.Fatalf("marshal snapshot: %v", err)
		}
		w.Write(payload)
	case http.MethodPatch:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			f.t.Fatalf("read patch body: %v", err)
		}
		f.patches = append(f.patches, recordedPatch{
			Path:        r.URL.Path,
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		w.Write([]byte(`{"status":"success"}`))
	default:
		http.NotFound(w, r)
	}
}

func testSnapshot() DeviceSnapshot {
	return DeviceSnapshot{
		ID:                 7,
		SerialNo:           "EH-7",
		Name:               "Bedroom",
		DeviceStatus:       1,
		State:              1,
		CurrentTemperature: 70.5,
		Temperature:        70,
		TemperatureUnit:    UnitFahrenheit,
		NightLight: NightLightSetting{
			Brightness: 80,
			Auto:       false,
			On:         true,
			Off:        false,
			Color:      RGBColor{R: 255, G: 0, B: 0},
		},
	}
}

func newTestSession(t *testing.T) (*Session, *fakeCloud) {
	t.Helper()
	cloud := &fakeCloud{t: t, snapshot: testSnapshot()}
	srv := httptest.NewServer(cloud)
	t.Cleanup(srv.Close)

	cfg := Config{
		BaseURL:  srv.URL,
		Username: "user@example.com",
		Password: "hunter2",
	}
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	device := Device{ID: 7, SerialNo: "EH-7", Name: "Bedroom"}
	return NewSession(client, device, cfg, nil), cloud
}

func TestSnapshotBeforeFirstPoll(t *testing.T) {
	session, _ := newTestSession(t)

	_, err := session.Snapshot()
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
}

func TestRefreshInstallsSnapshot(t *testing.T) {
	session, _ := newTestSession(t)

	if err := session.RefreshNow(context.Background()); err != nil {
		t.Fatalf("RefreshNow: %v", err)
	}

	snapshot, err := session.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot.SerialNo != "EH-7" || snapshot.Temperature != 70 {
		t.Errorf("snapshot = %+v", snapshot)
	}
	if !snapshot.Online() || !snapshot.HeatingOn() {
		t.Errorf("Online/HeatingOn = %v/%v, want true/true", snapshot.Online(), snapshot.HeatingOn())
	}
}

func TestFailedRefreshKeepsLastSnapshot(t *testing.T) {
	session, cloud := newTestSession(t)

	if err := session.RefreshNow(context.Background()); err != nil {
		t.Fatalf("RefreshNow: %v", err)
	}

	cloud.setFailReads(true)
	if err := session.RefreshNow(context.Background()); err == nil {
		t.Fatal("RefreshNow succeeded against failing server")
	}

	snapshot, err := session.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot after failed poll: %v", err)
	}
	if snapshot.Temperature != 70 {
		t.Errorf("snapshot was replaced by a failed poll: %+v", snapshot)
	}
}

func TestRefreshReplacesSnapshotWholesale(t *testing.T) {
	session, cloud := newTestSession(t)

	if err := session.RefreshNow(context.Background()); err != nil {
		t.Fatalf("RefreshNow: %v", err)
	}

	next := testSnapshot()
	next.State = 0
	next.Temperature = 65
	next.TemperatureUnit = UnitCelsius
	cloud.setSnapshot(next)

	if err := session.RefreshNow(context.Background()); err != nil {
		t.Fatalf("RefreshNow: %v", err)
	}

	snapshot, err := session.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot.HeatingOn() || snapshot.Temperature != 65 || snapshot.TemperatureUnit != UnitCelsius {
		t.Errorf("snapshot = %+v", snapshot)
	}
}

func TestPollStats(t *testing.T) {
	session, cloud := newTestSession(t)

	if stats := session.Stats(); !stats.LastAttempt.IsZero() || stats.Errors != 0 {
		t.Errorf("fresh session stats = %+v", stats)
	}

	if err := session.RefreshNow(context.Background()); err != nil {
		t.Fatalf("RefreshNow: %v", err)
	}
	stats := session.Stats()
	if !stats.LastOK || stats.Errors != 0 || stats.LastSuccess.IsZero() {
		t.Errorf("stats after success = %+v", stats)
	}

	cloud.setFailReads(true)
	if err := session.RefreshNow(context.Background()); err == nil {
		t.Fatal("RefreshNow succeeded against failing server")
	}
	stats = session.Stats()
	if stats.LastOK || stats.Errors != 1 {
		t.Errorf("stats after failure = %+v", stats)
	}
}

func TestOnUpdateFiresPerRefresh(t *testing.T) {
	session, _ := newTestSession(t)

	var updates []DeviceSnapshot
	session.OnUpdate(func(snapshot DeviceSnapshot) {
		updates = append(updates, snapshot)
	})

	if err := session.RefreshNow(context.Background()); err != nil {
		t.Fatalf("RefreshNow: %v", err)
	}
	if err := session.RefreshNow(context.Background()); err != nil {
		t.Fatalf("RefreshNow: %v", err)
	}

	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2", len(updates))
	}
	if updates[0].SerialNo != "EH-7" {
		t.Errorf("update = %+v", updates[0])
	}
}
