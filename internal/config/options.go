package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Options are the process startup settings. Unlike Config they come from
// the environment (and flags layered on top in cmd/lumen), not the file.
type Options struct {
	// Backend selects the output/input source: "embedded" or "direct".
	Backend string `env:"LUMEN_BACKEND" envDefault:"embedded"`

	// ConfigPath overrides the default config file location.
	ConfigPath string `env:"LUMEN_CONFIG"`

	// SocketPath overrides the IPC socket location.
	SocketPath string `env:"LUMEN_SOCKET"`
}

// OptionsFromEnv reads startup options from the environment.
func OptionsFromEnv() (Options, error) {
	var opts Options
	if err := env.Parse(&opts); err != nil {
		return Options{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if opts.Backend != "embedded" && opts.Backend != "direct" {
		return Options{}, fmt.Errorf("LUMEN_BACKEND: unknown backend %q (expected embedded or direct)", opts.Backend)
	}
	return opts, nil
}
