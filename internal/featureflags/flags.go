// Package featureflags reads deploy-time toggles from the environment.
package featureflags

import (
	"os"
	"strings"
)

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes (case-insensitive).
// Known flags: strict_auth (disables the open-unit password bypass),
// auto_wipe_disabled (stops the periodic cache TTL sweep).
func Enabled(name string) bool {
	v := os.Getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
