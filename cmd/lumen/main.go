package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charmbracelet/lipgloss"

	"github.com/lumenwm/lumen/internal/backend"
	"github.com/lumenwm/lumen/internal/config"
	"github.com/lumenwm/lumen/internal/ipc"
	"github.com/lumenwm/lumen/internal/mcp"
	"github.com/lumenwm/lumen/internal/runtimepath"
	"github.com/lumenwm/lumen/internal/session"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runCompositor(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "outputs":
		os.Exit(runOutputs(os.Args[2:]))
	case "window":
		os.Exit(runWindow(os.Args[2:]))
	case "diag":
		os.Exit(runDiag(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: lumen <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Start the compositor (foreground)")
	fmt.Fprintln(w, "  status              Show compositor status")
	fmt.Fprintln(w, "  windows             List managed windows")
	fmt.Fprintln(w, "  outputs             List outputs")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  window focus        Focus and raise a window by handle")
	fmt.Fprintln(w, "  window snap         Snap a window to a half, maximize, or center")
	fmt.Fprintln(w, "  window close        Ask a window to close")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  diag                Show recent diagnostics")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Check the config file for errors")
	fmt.Fprintln(w, "  config print        Print the effective configuration")
	fmt.Fprintln(w, "  config edit         Edit configuration interactively")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Run an MCP server on stdio")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  help                Show this help")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  LUMEN_BACKEND       Backend to run on: embedded (default) or direct")
	fmt.Fprintln(w, "  LUMEN_CONFIG        Config file path override")
	fmt.Fprintln(w, "  LUMEN_SOCKET        Control socket path override")
}

func runCompositor(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	backendFlag := fs.String("backend", "", "backend to run on: embedded or direct (overrides LUMEN_BACKEND)")
	configFlag := fs.String("config", "", "config file path (overrides LUMEN_CONFIG)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lumen run [-backend embedded|direct] [-config path]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the compositor in the foreground until interrupted.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	opts, err := config.OptionsFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid environment: %v\n", err)
		return 2
	}
	if *backendFlag != "" {
		opts.Backend = *backendFlag
	}
	if *configFlag != "" {
		opts.ConfigPath = *configFlag
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log.Printf("configuration loaded (modifier: %s, gaps: %d/%d)",
		cfg.Modifier, cfg.OuterGap, cfg.InnerGap)

	var b backend.Backend
	switch opts.Backend {
	case "embedded":
		b = backend.NewEmbedded(cfg)
	case "direct":
		b = backend.NewDirect(cfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown backend %q (want embedded or direct)\n", opts.Backend)
		return 2
	}

	socketPath, err := runtimepath.SocketPath(opts.SocketPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve socket path: %v\n", err)
		return 1
	}

	sess := session.New(cfg, b, opts.Backend)

	server := ipc.NewServer(socketPath, sess)
	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "start control socket: %v\n", err)
		return 1
	}
	defer server.Stop()
	log.Printf("control socket listening on %s", socketPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Printf("received %v, shutting down", sig)
		cancel()
	}()

	if err := sess.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log.Println("compositor stopped")
	return 0
}

func newClient() (*ipc.Client, error) {
	opts, err := config.OptionsFromEnv()
	if err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	socketPath, err := runtimepath.SocketPath(opts.SocketPath)
	if err != nil {
		return nil, err
	}
	return ipc.NewClient(socketPath), nil
}

var (
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle  = lipgloss.NewStyle().Bold(true)
	focusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
)

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lumen status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show compositor status via the control socket.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client, err := newClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	printField("backend", status.Backend)
	printField("input_mode", status.InputMode)
	printField("windows", strconv.Itoa(status.WindowCount))
	printField("overlay_open", strconv.FormatBool(status.OverlayOpen))
	printField("uptime_seconds", strconv.FormatInt(status.UptimeSeconds, 10))
	return 0
}

func printField(label, value string) {
	fmt.Printf("%s %s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}

func runWindows(args []string) int {
	fs := flag.NewFlagSet("windows", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lumen windows")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List managed windows, bottom of the stack first.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client, err := newClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	windows, err := client.ListWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(windows) == 0 {
		fmt.Println(dimStyle.Render("no windows"))
		return 0
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%-8s %-6s %-24s %s", "HANDLE", "RANK", "GEOMETRY", "TITLE")))
	for _, w := range windows {
		geometry := fmt.Sprintf("%dx%d+%d+%d", w.Width, w.Height, w.X, w.Y)
		line := fmt.Sprintf("%-8d %-6d %-24s %s", w.Handle, w.Rank, geometry, w.Title)
		if w.Focused {
			fmt.Println(focusStyle.Render(line + "  *"))
		} else {
			fmt.Println(line)
		}
	}
	return 0
}

func runOutputs(args []string) int {
	fs := flag.NewFlagSet("outputs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lumen outputs")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client, err := newClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	outputs, err := client.ListOutputs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, o := range outputs {
		state := "connected"
		if !o.Connected {
			state = dimStyle.Render("disconnected")
		}
		fmt.Printf("%s %dx%d @ %.0fHz %s\n",
			valueStyle.Render(o.Name), o.Width, o.Height, o.RefreshHz, state)
	}
	return 0
}

func runWindow(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: lumen window <focus|snap|close> <handle> [half]")
		return 2
	}

	client, err := newClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	parseHandle := func(s string) (uint64, bool) {
		h, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid handle %q\n", s)
			return 0, false
		}
		return h, true
	}

	switch args[0] {
	case "focus":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: lumen window focus <handle>")
			return 2
		}
		h, ok := parseHandle(args[1])
		if !ok {
			return 2
		}
		if err := client.FocusWindow(h); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	case "snap":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "Usage: lumen window snap <handle> <left|right|top|bottom|maximize|center>")
			return 2
		}
		h, ok := parseHandle(args[1])
		if !ok {
			return 2
		}
		if err := client.SnapWindow(h, args[2]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	case "close":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: lumen window close <handle>")
			return 2
		}
		h, ok := parseHandle(args[1])
		if !ok {
			return 2
		}
		if err := client.CloseWindow(h); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown window command: %s\n", args[0])
		return 2
	}
	return 0
}

func runDiag(args []string) int {
	fs := flag.NewFlagSet("diag", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lumen diag")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the compositor's recent diagnostic events.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client, err := newClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	data, err := client.GetDiagnostics()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, ev := range data.Events {
		sev := ev.Severity
		switch sev {
		case "error":
			sev = errorStyle.Render(sev)
		case "warning":
			sev = warnStyle.Render(sev)
		default:
			sev = dimStyle.Render(sev)
		}
		fmt.Printf("%s [%s] %s\n", dimStyle.Render(ev.Time), sev, ev.Message)
	}
	if data.Dropped > 0 {
		fmt.Println(dimStyle.Render(fmt.Sprintf("(%d older events dropped)", data.Dropped)))
	}
	return 0
}

func runMCP(args []string) int {
	if len(args) < 1 || args[0] != "serve" {
		fmt.Fprintln(os.Stderr, "Usage: lumen mcp serve")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run an MCP server on stdio, bridged to the running compositor.")
		return 2
	}

	opts, err := config.OptionsFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid environment: %v\n", err)
		return 2
	}
	socketPath, err := runtimepath.SocketPath(opts.SocketPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mcp.Serve(ctx, socketPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func loadConfig(opts config.Options) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.LoadFromPath(opts.ConfigPath)
	}
	return config.Load()
}
