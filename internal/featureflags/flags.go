// Package featureflags gates optional surfaces, like admin credential
// recovery, behind FLAG_* environment variables.
package featureflags

import (
	"os"
	"strings"
)

// Enabled reports whether the flag is switched on. Flags are read from the
// environment as FLAG_<NAME>; accepted truthy values are 1, true, yes and on
// (case-insensitive). Anything else, including an unset variable, is off.
func Enabled(name string) bool {
	value := strings.TrimSpace(os.Getenv("FLAG_" + strings.ToUpper(name)))
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
