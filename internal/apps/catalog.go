// Package apps maintains the launchable application catalog backing the
// command center. Entries come from freedesktop .desktop files in the
// usual XDG data directories.
package apps

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
)

// Entry is one launchable application.
type Entry struct {
	Name string
	Exec string
	Icon string
}

// LaunchError wraps a failed spawn with the entry name for diagnostics.
type LaunchError struct {
	Entry string
	Err   error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %q: %v", e.Entry, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// dataDirs returns the application directories in ascending precedence;
// a user-local entry with the same file name shadows the system one.
func dataDirs() []string {
	dirs := []string{
		"/usr/share/applications",
		"/usr/local/share/applications",
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".local", "share", "applications"))
	}
	return dirs
}

// Scan reads every .desktop file and returns the visible application
// entries sorted by name. Unreadable directories are skipped; a missing
// catalog is an empty catalog, not an error.
func Scan() []Entry {
	byID := make(map[string]Entry)
	for _, dir := range dataDirs() {
		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".desktop") {
				continue
			}
			entry, ok, err := parseDesktopFile(filepath.Join(dir, f.Name()))
			if err != nil {
				log.Printf("skipping %s: %v", f.Name(), err)
				continue
			}
			if ok {
				byID[f.Name()] = entry
			} else {
				// Hidden in a higher-precedence dir masks the lower one.
				delete(byID, f.Name())
			}
		}
	}

	entries := make([]Entry, 0, len(byID))
	for _, e := range byID {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// parseDesktopFile extracts Name, Exec and Icon from the [Desktop Entry]
// group. ok is false for entries that parse fine but should not be shown
// (NoDisplay, Hidden, non-Application types).
func parseDesktopFile(path string) (Entry, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return Entry{}, false, err
	}
	defer f.Close()
	return parseDesktop(bufio.NewScanner(f))
}

func parseDesktop(sc *bufio.Scanner) (Entry, bool, error) {
	var (
		entry     Entry
		inSection bool
		entryType string
		hidden    bool
	)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inSection = line == "[Desktop Entry]"
			continue
		}
		if !inSection {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "Name":
			if entry.Name == "" {
				entry.Name = strings.TrimSpace(value)
			}
		case "Exec":
			entry.Exec = stripFieldCodes(strings.TrimSpace(value))
		case "Icon":
			entry.Icon = strings.TrimSpace(value)
		case "Type":
			entryType = strings.TrimSpace(value)
		case "NoDisplay", "Hidden":
			if strings.TrimSpace(value) == "true" {
				hidden = true
			}
		}
	}
	if err := sc.Err(); err != nil {
		return Entry{}, false, err
	}
	if entry.Name == "" || entry.Exec == "" {
		return Entry{}, false, nil
	}
	if hidden || (entryType != "" && entryType != "Application") {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// stripFieldCodes removes the %f/%u style placeholders a launcher without
// file arguments has nothing to substitute for. %% collapses to a literal
// percent sign.
func stripFieldCodes(execLine string) string {
	var b strings.Builder
	runes := []rune(execLine)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '%' || i+1 == len(runes) {
			b.WriteRune(runes[i])
			continue
		}
		i++
		if runes[i] == '%' {
			b.WriteRune('%')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Launch spawns the entry detached from the compositor: its own session,
// no inherited pipes, never reaped here. Failure to start is reported;
// failure after start belongs to the child.
func Launch(e Entry) error {
	cmd := exec.Command("/bin/sh", "-c", e.Exec)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return &LaunchError{Entry: e.Name, Err: err}
	}
	if err := cmd.Process.Release(); err != nil {
		return &LaunchError{Entry: e.Name, Err: err}
	}
	return nil
}
