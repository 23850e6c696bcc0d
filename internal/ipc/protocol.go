// Package ipc exposes the running compositor over a unix socket with a
// single-line JSON request/response protocol. State-reading and
// state-mutating commands alike execute on the session loop, so clients
// always observe a consistent scene.
package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType names an IPC command.
type CommandType string

const (
	CommandGetStatus      CommandType = "GET_STATUS"
	CommandListWindows    CommandType = "LIST_WINDOWS"
	CommandListOutputs    CommandType = "LIST_OUTPUTS"
	CommandFocusWindow    CommandType = "FOCUS_WINDOW"
	CommandSnapWindow     CommandType = "SNAP_WINDOW"
	CommandCloseWindow    CommandType = "CLOSE_WINDOW"
	CommandGetDiagnostics CommandType = "GET_DIAGNOSTICS"
)

// Request is one client command.
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the server's answer.
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData is returned by GET_STATUS.
type StatusData struct {
	Backend       string `json:"backend"`
	InputMode     string `json:"input_mode"`
	WindowCount   int    `json:"window_count"`
	OverlayOpen   bool   `json:"overlay_open"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Running       bool   `json:"running"`
}

// WindowInfo describes one managed window.
type WindowInfo struct {
	Handle  uint64 `json:"handle"`
	Title   string `json:"title"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Rank    int    `json:"rank"`
	Focused bool   `json:"focused"`
}

// WindowsData is returned by LIST_WINDOWS, back to front.
type WindowsData struct {
	Windows []WindowInfo `json:"windows"`
}

// OutputInfo describes one output.
type OutputInfo struct {
	Name      string  `json:"name"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	RefreshHz float64 `json:"refresh_hz"`
	Connected bool    `json:"connected"`
}

// OutputsData is returned by LIST_OUTPUTS.
type OutputsData struct {
	Outputs []OutputInfo `json:"outputs"`
}

// WindowPayload addresses a window by handle for FOCUS_WINDOW and
// CLOSE_WINDOW.
type WindowPayload struct {
	Handle uint64 `json:"handle"`
}

// SnapPayload is the SNAP_WINDOW argument. Half is one of left, right,
// top, bottom, maximize, center.
type SnapPayload struct {
	Handle uint64 `json:"handle"`
	Half   string `json:"half"`
}

// DiagnosticInfo is one recorded diagnostic event.
type DiagnosticInfo struct {
	Time     string `json:"time"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// DiagnosticsData is returned by GET_DIAGNOSTICS.
type DiagnosticsData struct {
	Events  []DiagnosticInfo `json:"events"`
	Dropped uint64           `json:"dropped"`
}

// ParseRequest decodes a single-line request.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("invalid request JSON: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("missing command")
	}
	return &req, nil
}

// NewOKResponse wraps data in a success response.
func NewOKResponse(data interface{}) (*Response, error) {
	resp := &Response{Status: "OK"}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		resp.Data = raw
	}
	return resp, nil
}

// NewErrorResponse builds an error response.
func NewErrorResponse(msg string) *Response {
	return &Response{Status: "ERROR", Error: msg}
}

// Marshal encodes the response for the wire.
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
