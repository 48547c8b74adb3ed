package util

import (
	"os"
	"strings"
)

// EnvBool reports whether the named variable is set to a truthy value.
func EnvBool(name string) bool {
	switch strings.ToLower(os.Getenv(name)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}
