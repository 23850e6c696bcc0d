package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client talks to a running compositor over the control socket.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client against the given socket path.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: 5 * time.Second}
}

func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to compositor: %w (is it running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("compositor error: %s", resp.Error)
	}
	return &resp, nil
}

// GetStatus fetches the compositor status.
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}
	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status: %w", err)
	}
	return &status, nil
}

// ListWindows fetches the managed windows, back to front.
func (c *Client) ListWindows() ([]WindowInfo, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListWindows})
	if err != nil {
		return nil, err
	}
	var data WindowsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse windows: %w", err)
	}
	return data.Windows, nil
}

// ListOutputs fetches the current outputs.
func (c *Client) ListOutputs() ([]OutputInfo, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListOutputs})
	if err != nil {
		return nil, err
	}
	var data OutputsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse outputs: %w", err)
	}
	return data.Outputs, nil
}

// FocusWindow focuses and raises the window with the given handle.
func (c *Client) FocusWindow(handle uint64) error {
	return c.sendWindowCommand(CommandFocusWindow, handle)
}

// CloseWindow requests destruction of the window with the given handle.
func (c *Client) CloseWindow(handle uint64) error {
	return c.sendWindowCommand(CommandCloseWindow, handle)
}

func (c *Client) sendWindowCommand(cmd CommandType, handle uint64) error {
	payload, err := json.Marshal(WindowPayload{Handle: handle})
	if err != nil {
		return err
	}
	_, err = c.sendRequest(&Request{Command: cmd, Payload: payload})
	return err
}

// SnapWindow snaps a window to a named half of its output.
func (c *Client) SnapWindow(handle uint64, half string) error {
	payload, err := json.Marshal(SnapPayload{Handle: handle, Half: half})
	if err != nil {
		return err
	}
	_, err = c.sendRequest(&Request{Command: CommandSnapWindow, Payload: payload})
	return err
}

// GetDiagnostics fetches recent diagnostic events.
func (c *Client) GetDiagnostics() (*DiagnosticsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetDiagnostics})
	if err != nil {
		return nil, err
	}
	var data DiagnosticsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse diagnostics: %w", err)
	}
	return &data, nil
}
