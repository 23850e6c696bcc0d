package overlay

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Battery is the charge state shown in the system bar.
type Battery struct {
	Present  bool
	Percent  int
	Charging bool
}

// Widgets is the system bar content snapshot.
type Widgets struct {
	Clock   string
	Battery Battery
}

// powerSupplyDir is swapped by tests.
var powerSupplyDir = "/sys/class/power_supply"

// ReadWidgets samples the clock and the first battery found in sysfs.
// Machines without a battery just get the clock.
func ReadWidgets(now time.Time) Widgets {
	return Widgets{
		Clock:   now.Format("15:04"),
		Battery: readBattery(powerSupplyDir),
	}
}

func readBattery(dir string) Battery {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Battery{}
	}
	for _, e := range entries {
		supply := filepath.Join(dir, e.Name())
		kind, err := os.ReadFile(filepath.Join(supply, "type"))
		if err != nil || strings.TrimSpace(string(kind)) != "Battery" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(supply, "capacity"))
		if err != nil {
			continue
		}
		percent, err := strconv.Atoi(strings.TrimSpace(string(raw)))
		if err != nil {
			continue
		}
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		b := Battery{Present: true, Percent: percent}
		if status, err := os.ReadFile(filepath.Join(supply, "status")); err == nil {
			s := strings.TrimSpace(string(status))
			b.Charging = s == "Charging" || s == "Full"
		}
		return b
	}
	return Battery{}
}
