package ipc

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/lumenwm/lumen/internal/backend"
	"github.com/lumenwm/lumen/internal/diag"
	"github.com/lumenwm/lumen/internal/geom"
	"github.com/lumenwm/lumen/internal/registry"
)

type nopCloser struct{}

func (nopCloser) CloseSurface(backend.Surface) error { return nil }

// fakeSession runs Exec inline; the tests are single threaded.
type fakeSession struct {
	reg     *registry.Registry
	outputs []backend.Output
	ring    *diag.Ring
	mode    string
	overlay bool
}

func (f *fakeSession) Exec(fn func()) error        { fn(); return nil }
func (f *fakeSession) Registry() *registry.Registry { return f.reg }
func (f *fakeSession) Outputs() []backend.Output   { return f.outputs }
func (f *fakeSession) BackendName() string         { return "embedded" }
func (f *fakeSession) InputMode() string           { return f.mode }
func (f *fakeSession) OverlayOpen() bool           { return f.overlay }
func (f *fakeSession) Diagnostics() *diag.Ring     { return f.ring }

func newFakeSession(t *testing.T, nwindows int) *fakeSession {
	t.Helper()
	reg := registry.New(nopCloser{}, registry.Limits{MinWidth: 100, MinHeight: 100})
	reg.SetOutput(geom.Rect{Width: 1920, Height: 1080})
	for i := 0; i < nwindows; i++ {
		if _, err := reg.Map(backend.Surface(i+1), "win", geom.Rect{Width: 400, Height: 300}); err != nil {
			t.Fatalf("map: %v", err)
		}
	}
	return &fakeSession{
		reg:  reg,
		mode: "normal",
		ring: diag.NewRing(16),
		outputs: []backend.Output{{
			Name:      "embedded-0",
			Bounds:    geom.Rect{Width: 1920, Height: 1080},
			RefreshHz: 60,
			Connected: true,
		}},
	}
}

func startServer(t *testing.T, session Session) (*Server, *Client) {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "lumen.sock")
	srv := NewServer(socket, session)
	if err := srv.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(srv.Stop)
	return srv, NewClient(socket)
}

func TestStatusRoundTrip(t *testing.T) {
	session := newFakeSession(t, 2)
	session.overlay = true
	_, client := startServer(t, session)

	status, err := client.GetStatus()
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if status.WindowCount != 2 || !status.OverlayOpen || status.Backend != "embedded" {
		t.Fatalf("status = %+v", status)
	}
	if !status.Running || status.InputMode != "normal" {
		t.Fatalf("status = %+v", status)
	}
}

func TestListWindowsRanksAndFocus(t *testing.T) {
	session := newFakeSession(t, 3)
	_, client := startServer(t, session)

	windows, err := client.ListWindows()
	if err != nil {
		t.Fatalf("list windows: %v", err)
	}
	if len(windows) != 3 {
		t.Fatalf("windows = %d, want 3", len(windows))
	}
	for i, w := range windows {
		if w.Rank != i {
			t.Fatalf("windows[%d].Rank = %d", i, w.Rank)
		}
	}
	if !windows[2].Focused || windows[0].Focused {
		t.Fatalf("focus flags wrong: %+v", windows)
	}
}

func TestListOutputs(t *testing.T) {
	_, client := startServer(t, newFakeSession(t, 0))

	outputs, err := client.ListOutputs()
	if err != nil {
		t.Fatalf("list outputs: %v", err)
	}
	if len(outputs) != 1 || outputs[0].Name != "embedded-0" || outputs[0].Width != 1920 {
		t.Fatalf("outputs = %+v", outputs)
	}
}

func TestFocusWindowByHandle(t *testing.T) {
	session := newFakeSession(t, 3)
	_, client := startServer(t, session)

	target := session.reg.Stack()[0]
	if err := client.FocusWindow(uint64(target)); err != nil {
		t.Fatalf("focus: %v", err)
	}
	if got := session.reg.Focused().Handle; got != target {
		t.Fatalf("focused = %d, want %d", got, target)
	}

	if err := client.FocusWindow(9999); err == nil {
		t.Fatalf("focus of unknown handle succeeded")
	} else if !strings.Contains(err.Error(), "no window") {
		t.Fatalf("error = %v", err)
	}
}

func TestSnapWindowByName(t *testing.T) {
	session := newFakeSession(t, 1)
	_, client := startServer(t, session)
	h := session.reg.Stack()[0]

	if err := client.SnapWindow(uint64(h), "left"); err != nil {
		t.Fatalf("snap: %v", err)
	}
	w, _ := session.reg.Get(h)
	if w.Geometry.X != 0 || w.Geometry.Width != 960 {
		t.Fatalf("geometry = %+v after snap", w.Geometry)
	}

	if err := client.SnapWindow(uint64(h), "diagonal"); err == nil {
		t.Fatalf("bogus snap target accepted")
	}
}

func TestCloseWindowKeepsMapping(t *testing.T) {
	session := newFakeSession(t, 1)
	_, client := startServer(t, session)
	h := session.reg.Stack()[0]

	if err := client.CloseWindow(uint64(h)); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Destruction is asynchronous; the window stays until the unmap.
	if session.reg.Len() != 1 {
		t.Fatalf("window removed synchronously")
	}
}

func TestDiagnosticsRoundTrip(t *testing.T) {
	session := newFakeSession(t, 0)
	session.ring.Record(diag.Warning, "output card0-DP-1 disconnected")
	_, client := startServer(t, session)

	data, err := client.GetDiagnostics()
	if err != nil {
		t.Fatalf("diagnostics: %v", err)
	}
	if len(data.Events) != 1 || data.Events[0].Severity != "warning" {
		t.Fatalf("events = %+v", data.Events)
	}
	if !strings.Contains(data.Events[0].Message, "card0-DP-1") {
		t.Fatalf("message = %q", data.Events[0].Message)
	}
}

func TestUnknownCommandRejected(t *testing.T) {
	session := newFakeSession(t, 0)
	srv, _ := startServer(t, session)

	resp := srv.handleCommand(&Request{Command: "REBOOT"})
	if resp.Status != "ERROR" || !strings.Contains(resp.Error, "unknown command") {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestParseRequestRejectsGarbage(t *testing.T) {
	if _, err := ParseRequest([]byte("not json\n")); err == nil {
		t.Fatalf("garbage accepted")
	}
	if _, err := ParseRequest([]byte("{}\n")); err == nil {
		t.Fatalf("empty command accepted")
	}
}
