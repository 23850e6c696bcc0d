// Package mcp exposes a running compositor to Model Context Protocol
// clients over stdio. Every tool is a thin veneer on the control
// socket, so an agent sees exactly what `lumen windows` or `lumen
// status` would print.
package mcp

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lumenwm/lumen/internal/ipc"
)

const (
	serverName    = "lumen"
	serverVersion = "0.3.0"
)

// StatusInput is empty; compositor_status takes no arguments.
type StatusInput struct{}

// StatusResult mirrors the control socket's status reply.
type StatusResult struct {
	Backend     string `json:"backend" jsonschema:"active backend, embedded or direct"`
	InputMode   string `json:"input_mode" jsonschema:"current input mode"`
	WindowCount int    `json:"window_count" jsonschema:"number of managed windows"`
	OverlayOpen bool   `json:"overlay_open" jsonschema:"whether the command center is open"`
}

// ListWindowsInput is empty; list_windows takes no arguments.
type ListWindowsInput struct{}

// WindowEntry describes one managed window, bottom to top.
type WindowEntry struct {
	Handle  uint64 `json:"handle" jsonschema:"window handle for other tools"`
	Title   string `json:"title" jsonschema:"window title"`
	X       int    `json:"x" jsonschema:"left edge in pixels"`
	Y       int    `json:"y" jsonschema:"top edge in pixels"`
	Width   int    `json:"width" jsonschema:"width in pixels"`
	Height  int    `json:"height" jsonschema:"height in pixels"`
	Rank    int    `json:"rank" jsonschema:"stacking rank, higher is closer to the top"`
	Focused bool   `json:"focused" jsonschema:"whether this window has focus"`
}

// ListWindowsResult is the list_windows output.
type ListWindowsResult struct {
	Windows []WindowEntry `json:"windows" jsonschema:"managed windows, back to front"`
}

// FocusWindowInput names the window to focus and raise.
type FocusWindowInput struct {
	Handle uint64 `json:"handle" jsonschema:"handle from list_windows"`
}

// FocusWindowResult reports the focus change.
type FocusWindowResult struct {
	Focused uint64 `json:"focused" jsonschema:"handle that now has focus"`
}

// SnapWindowInput names the window and the region to snap it into.
type SnapWindowInput struct {
	Handle uint64 `json:"handle" jsonschema:"handle from list_windows"`
	Half   string `json:"half" jsonschema:"one of left, right, top, bottom, maximize, center"`
}

// SnapWindowResult reports the snap.
type SnapWindowResult struct {
	Handle uint64 `json:"handle" jsonschema:"handle that was snapped"`
	Half   string `json:"half" jsonschema:"region it was snapped to"`
}

// Serve runs an MCP server on stdin/stdout until the context ends. It
// talks to the compositor through the control socket at socketPath.
func Serve(ctx context.Context, socketPath string) error {
	client := ipc.NewClient(socketPath)
	server := sdk.NewServer(&sdk.Implementation{Name: serverName, Version: serverVersion}, nil)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "compositor_status",
		Description: "Reports the compositor backend, input mode, and window count",
	}, statusHandler(client))

	sdk.AddTool(server, &sdk.Tool{
		Name:        "list_windows",
		Description: "Lists managed windows with geometry and stacking order",
	}, listWindowsHandler(client))

	sdk.AddTool(server, &sdk.Tool{
		Name:        "focus_window",
		Description: "Focuses and raises a window by handle",
	}, focusWindowHandler(client))

	sdk.AddTool(server, &sdk.Tool{
		Name:        "snap_window",
		Description: "Snaps a window to a half, maximizes it, or centers it",
	}, snapWindowHandler(client))

	err := server.Run(ctx, &sdk.StdioTransport{})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func statusHandler(client *ipc.Client) sdk.ToolHandlerFor[StatusInput, StatusResult] {
	return func(ctx context.Context, _ *sdk.CallToolRequest, _ StatusInput) (*sdk.CallToolResult, StatusResult, error) {
		status, err := client.GetStatus()
		if err != nil {
			return nil, StatusResult{}, fmt.Errorf("compositor status: %w", err)
		}
		return nil, StatusResult{
			Backend:     status.Backend,
			InputMode:   status.InputMode,
			WindowCount: status.WindowCount,
			OverlayOpen: status.OverlayOpen,
		}, nil
	}
}

func listWindowsHandler(client *ipc.Client) sdk.ToolHandlerFor[ListWindowsInput, ListWindowsResult] {
	return func(ctx context.Context, _ *sdk.CallToolRequest, _ ListWindowsInput) (*sdk.CallToolResult, ListWindowsResult, error) {
		windows, err := client.ListWindows()
		if err != nil {
			return nil, ListWindowsResult{}, fmt.Errorf("list windows: %w", err)
		}
		out := ListWindowsResult{Windows: make([]WindowEntry, 0, len(windows))}
		for _, w := range windows {
			out.Windows = append(out.Windows, WindowEntry{
				Handle:  w.Handle,
				Title:   w.Title,
				X:       w.X,
				Y:       w.Y,
				Width:   w.Width,
				Height:  w.Height,
				Rank:    w.Rank,
				Focused: w.Focused,
			})
		}
		return nil, out, nil
	}
}

func focusWindowHandler(client *ipc.Client) sdk.ToolHandlerFor[FocusWindowInput, FocusWindowResult] {
	return func(ctx context.Context, _ *sdk.CallToolRequest, input FocusWindowInput) (*sdk.CallToolResult, FocusWindowResult, error) {
		if err := client.FocusWindow(input.Handle); err != nil {
			return nil, FocusWindowResult{}, fmt.Errorf("focus window %d: %w", input.Handle, err)
		}
		return nil, FocusWindowResult{Focused: input.Handle}, nil
	}
}

func snapWindowHandler(client *ipc.Client) sdk.ToolHandlerFor[SnapWindowInput, SnapWindowResult] {
	return func(ctx context.Context, _ *sdk.CallToolRequest, input SnapWindowInput) (*sdk.CallToolResult, SnapWindowResult, error) {
		if err := client.SnapWindow(input.Handle, input.Half); err != nil {
			return nil, SnapWindowResult{}, fmt.Errorf("snap window %d to %s: %w", input.Handle, input.Half, err)
		}
		return nil, SnapWindowResult{Handle: input.Handle, Half: input.Half}, nil
	}
}
