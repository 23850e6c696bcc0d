package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/lumenwm/lumen/internal/backend"
	"github.com/lumenwm/lumen/internal/diag"
	"github.com/lumenwm/lumen/internal/geom"
	"github.com/lumenwm/lumen/internal/registry"
)

// Session is the slice of the compositor the server talks to. Exec runs
// a function on the session loop and blocks until it ran; everything the
// closure touches is therefore free of data races with input handling.
type Session interface {
	Exec(fn func()) error
	Registry() *registry.Registry
	Outputs() []backend.Output
	BackendName() string
	InputMode() string
	OverlayOpen() bool
	Diagnostics() *diag.Ring
}

// Server accepts control connections on a unix socket.
type Server struct {
	socketPath string
	listener   net.Listener
	session    Session
	startTime  time.Time

	shutdownMu   sync.Mutex
	shuttingDown bool
}

// NewServer prepares a server on the given socket path. A stale socket
// file from a previous run is removed.
func NewServer(socketPath string, session Session) *Server {
	os.Remove(socketPath)
	return &Server{
		socketPath: socketPath,
		session:    session,
		startTime:  time.Now(),
	}
}

// Start begins listening and accepting in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create control socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("control socket listening on %s", s.socketPath)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and removes the socket file.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			done := s.shuttingDown
			s.shutdownMu.Unlock()
			if done {
				return
			}
			log.Printf("control accept error: %v", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("control read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(fmt.Sprintf("invalid request: %v", err)))
		return
	}

	s.send(conn, s.handleCommand(req))
}

func (s *Server) send(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		log.Printf("failed to marshal response: %v", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		log.Printf("failed to send response: %v", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListWindows:
		return s.handleListWindows()
	case CommandListOutputs:
		return s.handleListOutputs()
	case CommandFocusWindow:
		return s.handleFocusWindow(req.Payload)
	case CommandSnapWindow:
		return s.handleSnapWindow(req.Payload)
	case CommandCloseWindow:
		return s.handleCloseWindow(req.Payload)
	case CommandGetDiagnostics:
		return s.handleGetDiagnostics()
	default:
		return NewErrorResponse(fmt.Sprintf("unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus() *Response {
	var status StatusData
	err := s.session.Exec(func() {
		status = StatusData{
			Backend:       s.session.BackendName(),
			InputMode:     s.session.InputMode(),
			WindowCount:   s.session.Registry().Len(),
			OverlayOpen:   s.session.OverlayOpen(),
			UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
			Running:       true,
		}
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleListWindows() *Response {
	var data WindowsData
	err := s.session.Exec(func() {
		reg := s.session.Registry()
		focused := reg.Focused()
		for rank, w := range reg.Windows() {
			info := WindowInfo{
				Handle: uint64(w.Handle),
				Title:  w.Title,
				X:      w.Geometry.X,
				Y:      w.Geometry.Y,
				Width:  w.Geometry.Width,
				Height: w.Geometry.Height,
				Rank:   rank,
			}
			if focused != nil && focused.Handle == w.Handle {
				info.Focused = true
			}
			data.Windows = append(data.Windows, info)
		}
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(data)
	return resp
}

func (s *Server) handleListOutputs() *Response {
	var data OutputsData
	err := s.session.Exec(func() {
		for _, o := range s.session.Outputs() {
			data.Outputs = append(data.Outputs, OutputInfo{
				Name:      o.Name,
				Width:     o.Bounds.Width,
				Height:    o.Bounds.Height,
				RefreshHz: o.RefreshHz,
				Connected: o.Connected,
			})
		}
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(data)
	return resp
}

func (s *Server) handleFocusWindow(payload json.RawMessage) *Response {
	var p WindowPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("bad payload: %v", err))
	}
	var missing bool
	err := s.session.Exec(func() {
		reg := s.session.Registry()
		if _, ok := reg.Get(registry.Handle(p.Handle)); !ok {
			missing = true
			return
		}
		reg.FocusRaise(registry.Handle(p.Handle))
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if missing {
		return NewErrorResponse(fmt.Sprintf("no window with handle %d", p.Handle))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleSnapWindow(payload json.RawMessage) *Response {
	var p SnapPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("bad payload: %v", err))
	}
	half, ok := geom.HalfFromName(p.Half)
	if !ok {
		return NewErrorResponse(fmt.Sprintf("unknown snap target %q", p.Half))
	}
	var missing bool
	err := s.session.Exec(func() {
		reg := s.session.Registry()
		if _, found := reg.Get(registry.Handle(p.Handle)); !found {
			missing = true
			return
		}
		reg.Snap(registry.Handle(p.Handle), half)
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if missing {
		return NewErrorResponse(fmt.Sprintf("no window with handle %d", p.Handle))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleCloseWindow(payload json.RawMessage) *Response {
	var p WindowPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("bad payload: %v", err))
	}
	var missing bool
	err := s.session.Exec(func() {
		reg := s.session.Registry()
		if _, ok := reg.Get(registry.Handle(p.Handle)); !ok {
			missing = true
			return
		}
		reg.Close(registry.Handle(p.Handle))
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if missing {
		return NewErrorResponse(fmt.Sprintf("no window with handle %d", p.Handle))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetDiagnostics() *Response {
	ring := s.session.Diagnostics()
	data := DiagnosticsData{Dropped: ring.Dropped()}
	for _, ev := range ring.Recent(64) {
		data.Events = append(data.Events, DiagnosticInfo{
			Time:     ev.Time.Format(time.RFC3339),
			Severity: ev.Severity.String(),
			Message:  ev.Message,
		})
	}
	resp, _ := NewOKResponse(data)
	return resp
}
