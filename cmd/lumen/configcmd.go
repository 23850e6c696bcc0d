package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/lumenwm/lumen/internal/config"
)

func runConfig(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: lumen config <validate|print|edit>")
		return 2
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:])
	case "print":
		return runConfigPrint(args[1:])
	case "edit":
		return runConfigEdit(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown config command: %s\n", args[0])
		return 2
	}
}

func runConfigValidate(args []string) int {
	fs := flag.NewFlagSet("config validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lumen config validate")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Load the config file and report parse or range errors.")
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
	if _, err := loadConfig(opts); err != nil {
		var parseErr *config.ParseError
		if errors.As(err, &parseErr) {
			fmt.Fprintln(os.Stderr, errorStyle.Render(parseErr.Error()))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	fmt.Println("config ok")
	return 0
}

func runConfigPrint(args []string) int {
	fs := flag.NewFlagSet("config print", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lumen config print")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Print the effective configuration as YAML, defaults included.")
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
	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	out, err := config.Print(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Print(out)
	return 0
}

func runConfigEdit(args []string) int {
	fs := flag.NewFlagSet("config edit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lumen config edit")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Edit the most common settings in an interactive form.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "config edit needs an interactive terminal")
		return 1
	}

	opts, err := config.OptionsFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid environment: %v\n", err)
		return 2
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	path := opts.ConfigPath
	if path == "" {
		path, err = config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	moveStep := strconv.Itoa(cfg.MoveStep)
	resizeStep := strconv.Itoa(cfg.ResizeStep)
	outerGap := strconv.Itoa(cfg.OuterGap)
	innerGap := strconv.Itoa(cfg.InnerGap)

	positiveInt := func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return fmt.Errorf("must be a positive number")
		}
		return nil
	}
	nonNegativeInt := func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return fmt.Errorf("must be zero or a positive number")
		}
		return nil
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Modifier key").
				Options(
					huh.NewOption("super", "super"),
					huh.NewOption("alt", "alt"),
					huh.NewOption("ctrl", "ctrl"),
				).
				Value(&cfg.Modifier),
			huh.NewInput().
				Title("Move step (px)").
				Validate(positiveInt).
				Value(&moveStep),
			huh.NewInput().
				Title("Resize step (px)").
				Validate(positiveInt).
				Value(&resizeStep),
			huh.NewInput().
				Title("Outer gap (px)").
				Validate(nonNegativeInt).
				Value(&outerGap),
			huh.NewInput().
				Title("Inner gap (px)").
				Validate(nonNegativeInt).
				Value(&innerGap),
			huh.NewSelect[string]().
				Title("Snap easing").
				Options(
					huh.NewOption("ease-out-cubic", "ease-out-cubic"),
					huh.NewOption("ease-in-out-cubic", "ease-in-out-cubic"),
					huh.NewOption("ease-out-quad", "ease-out-quad"),
					huh.NewOption("linear", "linear"),
				).
				Value(&cfg.Animations.Easing),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println(dimStyle.Render("aborted, nothing written"))
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cfg.MoveStep, _ = strconv.Atoi(moveStep)
	cfg.ResizeStep, _ = strconv.Atoi(resizeStep)
	cfg.OuterGap, _ = strconv.Atoi(outerGap)
	cfg.InnerGap, _ = strconv.Atoi(innerGap)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		return 1
	}
	if err := config.Save(cfg, path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("wrote %s\n", path)
	return 0
}
