package units

import (
	"fmt"
	"strings"
)

// Style selects the unit system used to render byte counts.
type Style int

const (
	// Windows uses 1024-based units with the familiar KB/MB/GB suffixes.
	Windows Style = iota
	// Binary uses 1024-based units with IEC suffixes (KiB, MiB, ...).
	Binary
	// Metric uses 1000-based SI units (kB, MB, ...).
	Metric
)

func (s Style) String() string {
	switch s {
	case Windows:
		return "windows"
	case Binary:
		return "binary"
	case Metric:
		return "metric"
	default:
		return "unknown"
	}
}

// Base returns the multiplier between adjacent units.
func (s Style) Base() int64 {
	if s == Metric {
		return 1000
	}
	return 1024
}

// Suffixes returns the unit names for s, smallest first.
func (s Style) Suffixes() []string {
	switch s {
	case Binary:
		return []string{"bytes", "KiB", "MiB", "GiB", "TiB", "PiB", "EiB", "ZiB", "YiB"}
	case Metric:
		return []string{"bytes", "kB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}
	default:
		return []string{"bytes", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}
	}
}

// ParseStyle maps a config or flag value onto a Style.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "windows", "win":
		return Windows, nil
	case "binary", "iec":
		return Binary, nil
	case "metric", "si":
		return Metric, nil
	}
	return Windows, fmt.Errorf("unknown unit style %q (use windows, binary or metric)", s)
}
